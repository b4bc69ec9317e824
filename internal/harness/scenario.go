package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/inklive/internal/config"
)

// Scenario defines one live compiler test.
// It sets up a project, runs a list of steps against the manager, and
// asserts on the resulting trace and state.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Config overrides the default timing and replay settings.
	Config ConfigOverrides `yaml:"config,omitempty"`

	// Suffixes are the namespace suffixes handed out by successive
	// set_project steps. The last one repeats. Defaults to ["test000"].
	Suffixes []string `yaml:"suffixes,omitempty"`

	// Project is the workspace loaded by set_project.
	Project ProjectSetup `yaml:"project"`

	// Steps run in order against the manager.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and state.
	// Supported types: trace_contains, trace_order, trace_count,
	// outcome_contains, state, final_state
	Assertions []Assertion `yaml:"assertions"`
}

// ConfigOverrides replaces selected fields of config.Default().
// Zero fields keep the default.
type ConfigOverrides struct {
	TickInterval time.Duration `yaml:"tick_interval,omitempty"`
	QuietPeriod  time.Duration `yaml:"quiet_period,omitempty"`
	InitialDelay time.Duration `yaml:"initial_delay,omitempty"`
	ReplayPacing string        `yaml:"replay_pacing,omitempty"`
	Lang         string        `yaml:"lang,omitempty"`
}

// Apply returns cfg with the overrides applied, validated.
func (o ConfigOverrides) Apply(cfg config.Config) (config.Config, error) {
	if o.TickInterval != 0 {
		cfg.TickInterval = o.TickInterval
	}
	if o.QuietPeriod != 0 {
		cfg.QuietPeriod = o.QuietPeriod
	}
	if o.InitialDelay != 0 {
		cfg.InitialDelay = o.InitialDelay
	}
	if o.ReplayPacing != "" {
		cfg.ReplayPacing = o.ReplayPacing
	}
	if o.Lang != "" {
		cfg.Lang = o.Lang
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// ProjectSetup describes the in-memory workspace.
type ProjectSetup struct {
	// Main is the main file name. Defaults to "main.ink".
	Main string `yaml:"main,omitempty"`

	// Files maps relative path to source. Every file starts dirty.
	Files map[string]string `yaml:"files"`

	// Ready defaults to true.
	Ready *bool `yaml:"ready,omitempty"`

	// OpenFile is the file counted for stats totalLines.
	OpenFile string `yaml:"open_file,omitempty"`
}

// MainFile returns Main, or the default.
func (p ProjectSetup) MainFile() string {
	if p.Main == "" {
		return "main.ink"
	}
	return p.Main
}

// Step is one action against the manager.
// Only the fields relevant to Action are used.
type Step struct {
	// Action names the operation (see the Action* constants).
	Action string `yaml:"action"`

	// Duration is how far advance moves virtual time.
	Duration time.Duration `yaml:"duration,omitempty"`

	// EditEvery makes advance record an edit whenever the virtual clock is
	// at a multiple of it.
	EditEvery time.Duration `yaml:"edit_every,omitempty"`

	// File and Content are the edit target.
	File    string `yaml:"file,omitempty"`
	Content string `yaml:"content,omitempty"`

	// Inbound is the event for deliver.
	Inbound *InboundStep `yaml:"inbound,omitempty"`

	// Choice is the choice number for choose.
	Choice int `yaml:"choice,omitempty"`

	// InkJS sets the ink-js compatibility flag for export.
	InkJS bool `yaml:"ink_js,omitempty"`

	// Expression is the text for evaluate.
	Expression string `yaml:"expression,omitempty"`

	// Error is the send failure for fail_sends. Empty restores sending.
	Error string `yaml:"error,omitempty"`

	// Ready is the flag for set_ready.
	Ready bool `yaml:"ready,omitempty"`

	// Expect is checked against the manager state after the step.
	// Subset match - only specified fields are validated.
	Expect map[string]interface{} `yaml:"expect,omitempty"`
}

// InboundStep is a supervisor event to deliver.
type InboundStep struct {
	Kind     string                 `yaml:"kind"`
	Session  string                 `yaml:"session,omitempty"`
	Text     string                 `yaml:"text,omitempty"`
	Choice   *ChoiceArg             `yaml:"choice,omitempty"`
	Tags     []string               `yaml:"tags,omitempty"`
	Errors   []IssueArg             `yaml:"errors,omitempty"`
	Path     string                 `yaml:"path,omitempty"`
	ExitCode int                    `yaml:"exit_code,omitempty"`
	Error    string                 `yaml:"error,omitempty"`
	Result   string                 `yaml:"result,omitempty"`
	Stats    map[string]interface{} `yaml:"stats,omitempty"`
}

// ChoiceArg is an offered choice.
type ChoiceArg struct {
	Number int    `yaml:"number"`
	Text   string `yaml:"text"`
}

// IssueArg is one compiler diagnostic.
type IssueArg struct {
	Filename   string `yaml:"filename"`
	LineNumber int    `yaml:"line"`
	Message    string `yaml:"message"`
	Type       string `yaml:"type"`
}

// Step action constants.
const (
	ActionSetProject   = "set_project"
	ActionCloseProject = "close_project"
	ActionStart        = "start"
	ActionAdvance      = "advance"
	ActionEdit         = "edit"
	ActionSetEdited    = "set_edited"
	ActionSetReady     = "set_ready"
	ActionReload       = "reload"
	ActionDeliver      = "deliver"
	ActionChoose       = "choose"
	ActionRewind       = "rewind"
	ActionStepBack     = "step_back"
	ActionExport       = "export"
	ActionStats        = "stats"
	ActionEvaluate     = "evaluate"
	ActionNextIssue    = "next_issue"
	ActionResume       = "resume"
	ActionFailSends    = "fail_sends"
)

var knownActions = map[string]bool{
	ActionSetProject: true, ActionCloseProject: true, ActionStart: true,
	ActionAdvance: true, ActionEdit: true, ActionSetEdited: true,
	ActionSetReady: true, ActionReload: true, ActionDeliver: true,
	ActionChoose: true, ActionRewind: true, ActionStepBack: true,
	ActionExport: true, ActionStats: true, ActionEvaluate: true,
	ActionNextIssue: true, ActionResume: true, ActionFailSends: true,
}

// Assertion validates the final trace, outcomes, or state.
type Assertion struct {
	// Type is the assertion type.
	Type string `yaml:"type"`

	// Event is a trace or outcome line prefix (trace_contains,
	// trace_count, outcome_contains).
	Event string `yaml:"event,omitempty"`

	// Events is the expected order of line prefixes (trace_order).
	Events []string `yaml:"events,omitempty"`

	// Count is the expected number of occurrences (used by trace_count).
	Count int `yaml:"count,omitempty"`

	// Table is the journal table queried by final_state.
	Table string `yaml:"table,omitempty"`

	// Where specifies query filters (used by final_state).
	// All fields must match exactly.
	Where map[string]interface{} `yaml:"where,omitempty"`

	// Expect contains expected field values (state, final_state).
	// Subset match - only specified fields are validated.
	Expect map[string]interface{} `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains   = "trace_contains"
	AssertTraceOrder      = "trace_order"
	AssertTraceCount      = "trace_count"
	AssertOutcomeContains = "outcome_contains"
	AssertState           = "state"
	AssertFinalState      = "final_state"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadDir loads every *.yaml scenario in dir, sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("glob scenarios: %w", err)
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	names := make(map[string]string, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		if prev, dup := names[s.Name]; dup {
			return nil, fmt.Errorf("%s: scenario name %q already used by %s", filepath.Base(path), s.Name, prev)
		}
		names[s.Name] = filepath.Base(path)
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Project.Files) == 0 {
		return fmt.Errorf("project.files is required and must be non-empty")
	}

	if _, ok := s.Project.Files[s.Project.MainFile()]; !ok {
		return fmt.Errorf("project.files must contain the main file %q", s.Project.MainFile())
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	if _, err := s.Config.Apply(config.Default()); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateStep validates a single step based on its action.
func validateStep(index int, st *Step) error {
	if st.Action == "" {
		return fmt.Errorf("steps[%d]: action is required", index)
	}
	if !knownActions[st.Action] {
		return fmt.Errorf("steps[%d]: unknown action %q", index, st.Action)
	}

	switch st.Action {
	case ActionAdvance:
		if st.Duration <= 0 {
			return fmt.Errorf("steps[%d]: duration must be positive for advance", index)
		}
		if st.EditEvery < 0 {
			return fmt.Errorf("steps[%d]: edit_every must be non-negative", index)
		}
	case ActionEdit:
		if st.File == "" {
			return fmt.Errorf("steps[%d]: file is required for edit", index)
		}
	case ActionDeliver:
		if st.Inbound == nil || st.Inbound.Kind == "" {
			return fmt.Errorf("steps[%d]: inbound.kind is required for deliver", index)
		}
		if strings.HasPrefix(st.Inbound.Session, "$") && !knownRefs[st.Inbound.Session] {
			return fmt.Errorf("steps[%d]: unknown session reference %q", index, st.Inbound.Session)
		}
	case ActionEvaluate:
		if st.Expression == "" {
			return fmt.Errorf("steps[%d]: expression is required for evaluate", index)
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains, AssertOutcomeContains:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for %s", index, a.Type)
		}
	case AssertTraceOrder:
		if len(a.Events) == 0 {
			return fmt.Errorf("assertions[%d]: events list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertState:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for state", index)
		}
	case AssertFinalState:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
