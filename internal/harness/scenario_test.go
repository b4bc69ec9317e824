package harness

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/inklive/internal/config"
)

const minimalScenario = `
name: minimal
description: "Reload once"
project:
  files:
    main.ink: "Hello.\n"
steps:
  - action: set_project
  - action: reload
assertions:
  - type: trace_contains
    event: "out compile"
`

func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "minimal.yaml", minimalScenario)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "minimal", scenario.Name)
	assert.Equal(t, "Reload once", scenario.Description)
	assert.Equal(t, "main.ink", scenario.Project.MainFile())
	assert.Equal(t, "Hello.\n", scenario.Project.Files["main.ink"])
	require.Len(t, scenario.Steps, 2)
	assert.Equal(t, ActionSetProject, scenario.Steps[0].Action)
	assert.Equal(t, ActionReload, scenario.Steps[1].Action)
	require.Len(t, scenario.Assertions, 1)
	assert.Equal(t, AssertTraceContains, scenario.Assertions[0].Type)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_Durations(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: timing
description: "Durations parse as Go durations"
config:
  quiet_period: 300ms
  replay_pacing: sink
project:
  files:
    main.ink: "Hello.\n"
steps:
  - action: advance
    duration: 1.5s
    edit_every: 100ms
assertions:
  - type: state
    expect: { busy: false }
`))
	require.NoError(t, err)

	assert.Equal(t, 1500*time.Millisecond, scenario.Steps[0].Duration)
	assert.Equal(t, 100*time.Millisecond, scenario.Steps[0].EditEvery)

	cfg, err := scenario.Config.Apply(config.Default())
	require.NoError(t, err)
	assert.Equal(t, 300*time.Millisecond, cfg.QuietPeriod)
	assert.Equal(t, config.PacingSink, cfg.ReplayPacing)
	assert.Equal(t, 250*time.Millisecond, cfg.TickInterval, "unset fields keep the default")
}

func TestParseScenario_DeliverStep(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: deliver
description: "Deliver fields decode"
project:
  files:
    main.ink: "Hello.\n"
steps:
  - action: deliver
    inbound:
      kind: play-generated-errors
      session: $export
      errors:
        - { filename: main.ink, line: 3, message: "loose end", type: WARNING }
assertions:
  - type: state
    expect: { issues: 0 }
`))
	require.NoError(t, err)

	in := scenario.Steps[0].Inbound
	require.NotNil(t, in)
	assert.Equal(t, "play-generated-errors", in.Kind)
	assert.Equal(t, "$export", in.Session)
	require.Len(t, in.Errors, 1)
	assert.Equal(t, IssueArg{Filename: "main.ink", LineNumber: 3, Message: "loose end", Type: "WARNING"}, in.Errors[0])
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "missing name",
			yaml: `
description: "x"
project: { files: { main.ink: "" } }
steps: [{ action: reload }]
assertions: [{ type: state, expect: { busy: false } }]
`,
			wantErr: "name is required",
		},
		{
			name: "missing description",
			yaml: `
name: x
project: { files: { main.ink: "" } }
steps: [{ action: reload }]
assertions: [{ type: state, expect: { busy: false } }]
`,
			wantErr: "description is required",
		},
		{
			name: "no files",
			yaml: `
name: x
description: "x"
steps: [{ action: reload }]
assertions: [{ type: state, expect: { busy: false } }]
`,
			wantErr: "project.files is required",
		},
		{
			name: "main file missing",
			yaml: `
name: x
description: "x"
project: { main: story.ink, files: { main.ink: "" } }
steps: [{ action: reload }]
assertions: [{ type: state, expect: { busy: false } }]
`,
			wantErr: `must contain the main file "story.ink"`,
		},
		{
			name: "no steps",
			yaml: `
name: x
description: "x"
project: { files: { main.ink: "" } }
assertions: [{ type: state, expect: { busy: false } }]
`,
			wantErr: "steps list is required",
		},
		{
			name: "no assertions",
			yaml: `
name: x
description: "x"
project: { files: { main.ink: "" } }
steps: [{ action: reload }]
`,
			wantErr: "assertions list is required",
		},
		{
			name: "unknown action",
			yaml: `
name: x
description: "x"
project: { files: { main.ink: "" } }
steps: [{ action: explode }]
assertions: [{ type: state, expect: { busy: false } }]
`,
			wantErr: `steps[0]: unknown action "explode"`,
		},
		{
			name: "advance without duration",
			yaml: `
name: x
description: "x"
project: { files: { main.ink: "" } }
steps: [{ action: advance }]
assertions: [{ type: state, expect: { busy: false } }]
`,
			wantErr: "duration must be positive",
		},
		{
			name: "deliver without kind",
			yaml: `
name: x
description: "x"
project: { files: { main.ink: "" } }
steps: [{ action: deliver, inbound: { session: $play } }]
assertions: [{ type: state, expect: { busy: false } }]
`,
			wantErr: "inbound.kind is required",
		},
		{
			name: "unknown session reference",
			yaml: `
name: x
description: "x"
project: { files: { main.ink: "" } }
steps: [{ action: deliver, inbound: { kind: compile-complete, session: $previous } }]
assertions: [{ type: state, expect: { busy: false } }]
`,
			wantErr: `unknown session reference "$previous"`,
		},
		{
			name: "bad pacing",
			yaml: `
name: x
description: "x"
config: { replay_pacing: sometimes }
project: { files: { main.ink: "" } }
steps: [{ action: reload }]
assertions: [{ type: state, expect: { busy: false } }]
`,
			wantErr: "config:",
		},
		{
			name: "unknown assertion type",
			yaml: `
name: x
description: "x"
project: { files: { main.ink: "" } }
steps: [{ action: reload }]
assertions: [{ type: vibes }]
`,
			wantErr: `unknown assertion type "vibes"`,
		},
		{
			name: "negative count",
			yaml: `
name: x
description: "x"
project: { files: { main.ink: "" } }
steps: [{ action: reload }]
assertions: [{ type: trace_count, event: "out compile", count: -1 }]
`,
			wantErr: "count must be non-negative",
		},
		{
			name: "final_state without table",
			yaml: `
name: x
description: "x"
project: { files: { main.ink: "" } }
steps: [{ action: reload }]
assertions: [{ type: final_state, expect: { files: 1 } }]
`,
			wantErr: "table is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseScenario_MalformedYAML(t *testing.T) {
	_, err := ParseScenario([]byte("name: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_UnknownFieldsRejected(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: typo
description: "assertion instead of assertions"
project: { files: { main.ink: "" } }
steps: [{ action: reload }]
assertion: [{ type: state, expect: { busy: false } }]
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "assertion")
}

func TestParseScenario_TraceCountZeroAllowed(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: zero
description: "count 0 is a valid expectation"
project: { files: { main.ink: "" } }
steps: [{ action: reload }]
assertions: [{ type: trace_count, event: "sink text", count: 0 }]
`))
	require.NoError(t, err)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "b.yaml", minimalScenario)
	writeScenario(t, dir, "ignored.txt", "not a scenario")
	writeScenario(t, dir, "a.yaml", `
name: another
description: "Second scenario"
project: { files: { main.ink: "" } }
steps: [{ action: reload }]
assertions: [{ type: state, expect: { busy: false } }]
`)

	scenarios, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, scenarios, 2)
	assert.Equal(t, "another", scenarios[0].Name, "sorted by file name")
	assert.Equal(t, "minimal", scenarios[1].Name)
}

func TestLoadDir_DuplicateNames(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "a.yaml", minimalScenario)
	writeScenario(t, dir, "b.yaml", minimalScenario)

	_, err := LoadDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `scenario name "minimal" already used by a.yaml`)
}

func TestLoadDir_ExampleScenarios(t *testing.T) {
	scenarios, err := LoadDir("testdata/scenarios")
	require.NoError(t, err)
	assert.NotEmpty(t, scenarios)
}
