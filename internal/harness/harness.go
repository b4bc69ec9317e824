package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/roach88/inklive/internal/config"
	"github.com/roach88/inklive/internal/i18n"
	"github.com/roach88/inklive/internal/issues"
	"github.com/roach88/inklive/internal/live"
	"github.com/roach88/inklive/internal/project"
	"github.com/roach88/inklive/internal/session"
	"github.com/roach88/inklive/internal/store"
	"github.com/roach88/inklive/internal/testutil"
	"github.com/roach88/inklive/internal/wire"
)

const (
	refPlay   = "$play"
	refExport = "$export"
	refStats  = "$stats"
)

var knownRefs = map[string]bool{refPlay: true, refExport: true, refStats: true}

// Harness is the test execution engine.
// It runs one scenario against a live.Manager with a virtual clock, fixed
// namespace suffixes, and an in-memory journal.
type Harness struct {
	cfg     config.Config
	store   *store.Store
	manager *live.Manager
	deliver wire.InboundFunc
	sup     *testutil.RecordingSupervisor
	sink    *testutil.RecordingSink
	clock   *testutil.FakeClock
	ws      *project.Workspace
	result  *Result
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory journal for isolation.
//
// Execution flow:
// 1. Apply config overrides and build the workspace
// 2. Wire the manager through journaling supervisor and sink decorators
// 3. Execute steps, checking each step's expect clause
// 4. Read the journal back as the trace
// 5. Evaluate assertions and return the result
//
// A returned error means the scenario could not run; assertion failures
// are reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	cfg, err := scenario.Config.Apply(config.Default())
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	suffixes := scenario.Suffixes
	if len(suffixes) == 0 {
		suffixes = []string{"test000"}
	}

	// Suppress logs in tests
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := &Harness{
		cfg:    cfg,
		store:  st,
		sup:    testutil.NewRecordingSupervisor(),
		sink:   testutil.NewRecordingSink(),
		clock:  testutil.NewFakeClock(),
		ws:     newWorkspace(scenario.Project),
		result: NewResult(),
	}
	h.manager = live.New(cfg,
		store.NewSupervisor(h.sup, st, logger),
		store.NewSink(h.sink, st, logger),
		live.WithClock(h.clock),
		live.WithLogger(logger),
		live.WithLocalizer(i18n.New(cfg.Lang)),
		live.WithSuffixSource(session.NewFixedSuffix(suffixes...)),
	)
	h.deliver = store.Tap(st, logger, h.manager.Handle)

	result := h.result
	for i, step := range scenario.Steps {
		if err := h.execute(step); err != nil {
			return nil, fmt.Errorf("steps[%d] %s: %w", i, step.Action, err)
		}
		if step.Expect != nil {
			if err := assertState(h.manager.Snapshot(), step.Expect); err != nil {
				result.AddError(fmt.Sprintf("steps[%d] %s: %v", i, step.Action, err))
			}
		}
	}
	result.State = h.manager.Snapshot()

	ctx := context.Background()
	trace, err := h.readTrace(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}
	result.Trace = trace

	actx := &AssertionContext{
		Store: st,
		Ctx:   ctx,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

func newWorkspace(p ProjectSetup) *project.Workspace {
	ws := testutil.NewWorkspace(p.MainFile(), p.Files)
	if p.Ready != nil {
		ws.SetReady(*p.Ready)
	}
	if p.OpenFile != "" {
		ws.SetOpenFile(p.OpenFile)
	}
	return ws
}

// execute runs one step. Operation errors become outcomes; only a step the
// harness cannot perform returns an error.
func (h *Harness) execute(step Step) error {
	m := h.manager

	switch step.Action {
	case ActionSetProject:
		m.SetProject(h.ws)
	case ActionCloseProject:
		m.CloseProject()
	case ActionStart:
		m.Start()
	case ActionAdvance:
		h.advance(step.Duration, step.EditEvery)
	case ActionEdit:
		h.ws.SetValue(step.File, step.Content)
		m.SetEdited()
	case ActionSetEdited:
		m.SetEdited()
	case ActionSetReady:
		h.ws.SetReady(step.Ready)
	case ActionReload:
		h.outcome("reload", m.Reload())
	case ActionDeliver:
		h.deliver(h.inbound(step.Inbound))
	case ActionChoose:
		h.outcome("choose", m.Choose(h.offered(step.Choice)))
	case ActionRewind:
		h.outcome("rewind", m.Rewind())
	case ActionStepBack:
		h.outcome("step_back", m.StepBack())
	case ActionExport:
		h.outcome("export", m.ExportJSON(step.InkJS, func(path string, err error) {
			if err != nil {
				h.result.AddOutcome("export error: %v", err)
				return
			}
			h.result.AddOutcome("export ok %s", path)
		}))
	case ActionStats:
		h.outcome("stats", m.GetStats(func(stats wire.Stats, err error) {
			if err != nil {
				h.result.AddOutcome("stats error: %v", err)
				return
			}
			h.result.AddOutcome("stats ok totalLines=%d", totalLines(stats))
		}))
	case ActionEvaluate:
		h.outcome("evaluate", m.EvaluateExpression(step.Expression, func(value string, err error) {
			if err != nil {
				h.result.AddOutcome("evaluate error: %v", err)
				return
			}
			h.result.AddOutcome("evaluate ok %s", value)
		}))
	case ActionNextIssue:
		m.NextIssue()
	case ActionResume:
		resume := h.sink.LastResume()
		if resume == nil {
			return errors.New("no prompt to resume")
		}
		resume()
	case ActionFailSends:
		if step.Error == "" {
			h.sup.Fail(nil)
		} else {
			h.sup.Fail(errors.New(step.Error))
		}
	default:
		return fmt.Errorf("unknown action %q", step.Action)
	}
	return nil
}

func (h *Harness) outcome(op string, err error) {
	if err != nil {
		h.result.AddOutcome("%s failed: %v", op, err)
	}
}

// advance moves virtual time forward by d. The clock stops at every
// multiple of the tick interval and of editEvery. At each stop an edit is
// recorded first (on multiples of editEvery), then Tick runs (on multiples
// of the tick interval). Multiples are counted from the clock's epoch, not
// from the start of the step.
func (h *Harness) advance(d, editEvery time.Duration) {
	tick := h.cfg.TickInterval
	step := tick
	if editEvery > 0 {
		step = gcd(tick, editEvery)
	}

	var elapsed time.Duration
	for elapsed < d {
		next := min(step-h.clock.Since()%step, d-elapsed)
		h.clock.Advance(next)
		elapsed += next

		now := h.clock.Since()
		if editEvery > 0 && now%editEvery == 0 {
			h.manager.SetEdited()
		}
		if now%tick == 0 {
			if err := h.manager.Tick(); err != nil {
				h.result.AddOutcome("tick failed: %v", err)
			}
		}
	}
}

func gcd(a, b time.Duration) time.Duration {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// inbound builds the supervisor event for a deliver step.
func (h *Harness) inbound(in *InboundStep) wire.Inbound {
	msg := wire.Inbound{
		Kind:       wire.InboundKind(in.Kind),
		SessionID:  h.resolve(in.Session),
		Tags:       in.Tags,
		ExportPath: in.Path,
		ExitCode:   in.ExitCode,
		Error:      in.Error,
		Result:     in.Result,
	}
	if in.Text != "" || msg.Kind == wire.KindGeneratedText {
		msg.Text = &wire.TextResult{Text: in.Text}
	}
	if in.Choice != nil {
		msg.Choice = &wire.Choice{Number: in.Choice.Number, Text: in.Choice.Text}
	}
	for _, e := range in.Errors {
		msg.Errors = append(msg.Errors, issues.Issue{
			Filename:   e.Filename,
			LineNumber: e.LineNumber,
			Message:    e.Message,
			Type:       issues.Type(e.Type),
		})
	}
	if in.Stats != nil {
		msg.Stats = wire.Stats(in.Stats)
	}
	return msg
}

// resolve maps a session reference to the current id of its slot.
// Anything else is taken as a literal id.
func (h *Harness) resolve(ref string) string {
	state := h.manager.Snapshot()
	switch ref {
	case refPlay:
		return state.PlaySession
	case refExport:
		return state.ExportSession
	case refStats:
		return state.StatsSession
	default:
		return ref
	}
}

// offered returns the most recently offered choice numbered n, so Choose
// goes back to the session that offered it. A number never offered is
// sent to the current play session.
func (h *Harness) offered(n int) wire.Choice {
	choices := h.sink.Choices()
	for i := len(choices) - 1; i >= 0; i-- {
		if choices[i].Number == n {
			return choices[i]
		}
	}
	return wire.Choice{Number: n}
}

// readTrace reads the journal back and renders each entry. Sink entries
// are paired in order with the recording sink's lines.
func (h *Harness) readTrace(ctx context.Context) ([]TraceEvent, error) {
	entries, err := h.store.ReadEntries(ctx, store.Filter{})
	if err != nil {
		return nil, err
	}
	lines := h.sink.Events()

	trace := make([]TraceEvent, 0, len(entries))
	next := 0
	for _, e := range entries {
		ev := TraceEvent{
			Seq:       e.Seq,
			Direction: string(e.Direction),
			Kind:      e.Kind,
			SessionID: e.SessionID,
		}
		switch e.Direction {
		case store.DirOut:
			var msg wire.Outbound
			if err := json.Unmarshal([]byte(e.Payload), &msg); err != nil {
				return nil, fmt.Errorf("seq %d: decode outbound: %w", e.Seq, err)
			}
			ev.Detail = renderOutbound(msg)
		case store.DirIn:
			ev.Detail = joinNonEmpty(e.Kind, e.SessionID)
		case store.DirSink:
			if next >= len(lines) {
				return nil, fmt.Errorf("seq %d: journal has more sink events than the sink recorded", e.Seq)
			}
			ev.Detail = lines[next]
			next++
		}
		trace = append(trace, ev)
	}
	if next != len(lines) {
		return nil, fmt.Errorf("sink recorded %d events, journal has %d", len(lines), next)
	}
	return trace, nil
}

func renderOutbound(msg wire.Outbound) string {
	parts := []string{string(msg.Kind)}
	if msg.SessionID != "" {
		parts = append(parts, msg.SessionID)
	}

	switch msg.Kind {
	case wire.KindCompile:
		if in := msg.Instruction; in != nil {
			switch {
			case in.Export:
				parts = append(parts, "export")
			case in.Stats:
				parts = append(parts, "stats")
			default:
				parts = append(parts, "play")
			}
			parts = append(parts, fmt.Sprintf("files=%d", len(in.UpdatedFiles)))
			if in.InkJSCompatible {
				parts = append(parts, "ink-js")
			}
		}
	case wire.KindContinueWithChoice:
		parts = append(parts, fmt.Sprintf("choice=%d", msg.Choice))
	case wire.KindGetLocationInSource:
		parts = append(parts, fmt.Sprintf("offset=%d", msg.Offset))
	case wire.KindGetRuntimePathSource:
		parts = append(parts, "path="+msg.RuntimePath)
	case wire.KindEvaluateExpression:
		parts = append(parts, fmt.Sprintf("expr=%q", msg.Expression))
	}
	return strings.Join(parts, " ")
}

func joinNonEmpty(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

func totalLines(stats wire.Stats) int {
	cf, _ := stats["currentFile"].(map[string]any)
	n, _ := cf["totalLines"].(int)
	return n
}
