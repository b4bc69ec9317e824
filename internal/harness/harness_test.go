package harness

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/inklive/internal/wire"
)

func mustParse(t *testing.T, yaml string) *Scenario {
	t.Helper()
	scenario, err := ParseScenario([]byte(yaml))
	require.NoError(t, err)
	return scenario
}

func TestRun_ReloadAndCompile(t *testing.T) {
	result, err := Run(mustParse(t, `
name: reload_and_compile
description: "An explicit reload sends one compile and clears busy on completion"
project:
  files:
    main.ink: "Hello.\n"
steps:
  - action: set_project
  - action: reload
    expect: { busy: true, play_session: main_ink_test000_1 }
  - action: deliver
    inbound: { kind: compile-complete, session: $play }
    expect: { busy: false }
assertions:
  - type: trace_order
    events:
      - "sink resetting main_ink_test000_1"
      - "out compile main_ink_test000_1 play files=1"
      - "in compile-complete main_ink_test000_1"
      - "sink compile-complete main_ink_test000_1"
`))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "main_ink_test000_1", result.State.PlaySession)
	require.NotEmpty(t, result.Trace)
	assert.Equal(t, int64(1), result.Trace[0].Seq)
}

func TestRun_CustomSuffixes(t *testing.T) {
	result, err := Run(mustParse(t, `
name: suffixes
description: "Suffixes name the namespace"
suffixes: [abc123]
project:
  files:
    main.ink: "Hello.\n"
steps:
  - action: set_project
  - action: reload
assertions:
  - type: state
    expect: { namespace: main_ink_abc123, play_session: main_ink_abc123_1 }
`))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_StepBackThenRewindWhileNotReady(t *testing.T) {
	result, err := Run(mustParse(t, `
name: rewind_not_ready
description: "A rewind while the project is not ready defers the reload"
project:
  files:
    main.ink: "Hello.\n* [Go] -> END\n"
steps:
  - action: set_project
  - action: reload
  - action: deliver
    inbound: { kind: compile-complete, session: $play }
  - action: deliver
    inbound: { kind: play-generated-choice, session: $play, choice: { number: 0, text: Go } }
  - action: deliver
    inbound: { kind: play-requires-input, session: $play }
  - action: choose
    choice: 0
    expect: { choice_sequence: [0] }
  - action: step_back
    expect: { choice_sequence: [], play_session: main_ink_test000_2 }
  - action: set_ready
    ready: false
  - action: rewind
assertions:
  - type: state
    expect:
      choice_sequence: []
      current_turn: -1
      reload_pending: true
      busy: true
  - type: trace_count
    event: "out compile"
    count: 2
  - type: trace_contains
    event: "out play-continue-with-choice-number main_ink_test000_1 choice=0"
`))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_EvaluateExpression(t *testing.T) {
	result, err := Run(mustParse(t, `
name: evaluate
description: "Expressions are answered by the play session"
project:
  files:
    main.ink: "VAR x = 1\nHello.\n"
steps:
  - action: set_project
  - action: reload
  - action: deliver
    inbound: { kind: compile-complete, session: $play }
  - action: evaluate
    expression: "x + 1"
  - action: deliver
    inbound: { kind: play-evaluated-expression, session: $play, result: "2" }
assertions:
  - type: trace_contains
    event: "out evaluate-expression main_ink_test000_1 expr=\"x + 1\""
  - type: outcome_contains
    event: "evaluate ok 2"
`))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, []string{"evaluate ok 2"}, result.Outcomes)
}

func TestRun_SendFailureBecomesOutcome(t *testing.T) {
	result, err := Run(mustParse(t, `
name: send_failure
description: "A failed send is reported to the caller"
project:
  files:
    main.ink: "Hello.\n"
steps:
  - action: set_project
  - action: reload
  - action: deliver
    inbound: { kind: compile-complete, session: $play }
  - action: fail_sends
    error: boom
  - action: choose
    choice: 0
    expect: { choice_sequence: [] }
  - action: fail_sends
assertions:
  - type: outcome_contains
    event: "choose failed: send choice 0 to main_ink_test000_1: boom"
`))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_ResumeWithoutPrompt(t *testing.T) {
	_, err := Run(mustParse(t, `
name: resume_without_prompt
description: "Resuming before any prompt cannot run"
project:
  files:
    main.ink: "Hello.\n"
steps:
  - action: resume
assertions:
  - type: state
    expect: { busy: false }
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "steps[0] resume: no prompt to resume")
}

func TestRun_StepExpectFailure(t *testing.T) {
	result, err := Run(mustParse(t, `
name: expect_failure
description: "A failed step expectation fails the scenario"
project:
  files:
    main.ink: "Hello.\n"
steps:
  - action: set_project
  - action: reload
    expect: { busy: false }
assertions:
  - type: trace_count
    event: "out compile"
    count: 1
`))
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "steps[1] reload:")
	assert.Contains(t, result.Errors[0], `field "busy" = false`)
}

func TestRun_FailedAssertionReportsTrace(t *testing.T) {
	result, err := Run(mustParse(t, `
name: failed_assertion
description: "A failed trace assertion includes the trace"
project:
  files:
    main.ink: "Hello.\n"
steps:
  - action: set_project
  - action: reload
assertions:
  - type: trace_contains
    event: "sink story-completed"
`))
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Full trace:")
	assert.Contains(t, result.Errors[0], "out  compile main_ink_test000_1 play files=1")
}

func TestRun_Deterministic(t *testing.T) {
	scenarios, err := LoadDir("testdata/scenarios")
	require.NoError(t, err)

	for _, scenario := range scenarios {
		t.Run(scenario.Name, func(t *testing.T) {
			first, err := Run(scenario)
			require.NoError(t, err)
			second, err := Run(scenario)
			require.NoError(t, err)
			assert.Equal(t, Render(scenario.Name, first), Render(scenario.Name, second))
		})
	}
}

func TestRenderOutbound(t *testing.T) {
	tests := []struct {
		name string
		msg  wire.Outbound
		want string
	}{
		{
			name: "play compile",
			msg: wire.Compile(wire.CompileInstruction{
				SessionID: "a_1", Play: true, UpdatedFiles: map[string]string{"main.ink": ""},
			}),
			want: "compile a_1 play files=1",
		},
		{
			name: "ink.js export",
			msg:  wire.Compile(wire.CompileInstruction{SessionID: "a_2", Export: true, InkJSCompatible: true}),
			want: "compile a_2 export files=0 ink-js",
		},
		{
			name: "stats",
			msg:  wire.Compile(wire.CompileInstruction{SessionID: "a_3", Stats: true}),
			want: "compile a_3 stats files=0",
		},
		{name: "stop", msg: wire.Stop("a_1"), want: "play-stop-ink a_1"},
		{name: "choice", msg: wire.ContinueWithChoice(2, "a_1"), want: "play-continue-with-choice-number a_1 choice=2"},
		{name: "location", msg: wire.GetLocationInSource(14, "a_1"), want: "get-location-in-source a_1 offset=14"},
		{name: "runtime path", msg: wire.GetRuntimePathInSource("knot.0", "a_1"), want: "get-runtime-path-in-source a_1 path=knot.0"},
		{name: "expression", msg: wire.EvaluateExpression("x", "a_1"), want: `evaluate-expression a_1 expr="x"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, renderOutbound(tt.msg))
		})
	}
}

func TestGCD(t *testing.T) {
	assert.Equal(t, 50*time.Millisecond, gcd(250*time.Millisecond, 100*time.Millisecond))
	assert.Equal(t, 250*time.Millisecond, gcd(250*time.Millisecond, 500*time.Millisecond))
	assert.Equal(t, 250*time.Millisecond, gcd(250*time.Millisecond, 250*time.Millisecond))
}

func TestTotalLines(t *testing.T) {
	assert.Equal(t, 3, totalLines(wire.Stats{"currentFile": map[string]any{"totalLines": 3}}))
	assert.Equal(t, 0, totalLines(wire.Stats{"words": 6}))
}

func TestJoinNonEmpty(t *testing.T) {
	assert.Equal(t, "compile-complete a_1", joinNonEmpty("compile-complete", "a_1"))
	assert.Equal(t, "next-issue", joinNonEmpty("next-issue", ""))
}
