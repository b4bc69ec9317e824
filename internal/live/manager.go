package live

import (
	"fmt"
	"log/slog"

	"github.com/roach88/inklive/internal/clock"
	"github.com/roach88/inklive/internal/config"
	"github.com/roach88/inklive/internal/i18n"
	"github.com/roach88/inklive/internal/issues"
	"github.com/roach88/inklive/internal/project"
	"github.com/roach88/inklive/internal/session"
	"github.com/roach88/inklive/internal/wire"
)

// Callback types for request/response operations. Each is called exactly
// once: with the result, or with an error (ErrSuperseded, ErrProjectClosed,
// *ExportError, *ExpressionError).
type (
	LocationFunc   func(loc wire.Location, err error)
	ExpressionFunc func(result string, err error)
	ExportFunc     func(jsonPath string, err error)
	StatsFunc      func(stats wire.Stats, err error)
)

type exprRequest struct {
	cb   ExpressionFunc
	text string
}

// Manager is the live-compile session manager for one open project.
//
// Thread-safety: none. Exactly one goroutine may call its methods; Loop
// provides that goroutine.
//
// INVARIANTS:
//   - The registry holds the only ids whose events change state.
//   - busy changes only through setBusy, which notifies once per transition.
//   - Every pending callback is called exactly once.
type Manager struct {
	cfg    config.Config
	sup    wire.Supervisor
	sink   EventSink
	clock  clock.Clock
	logger *slog.Logger
	text   i18n.Localizer
	suffix session.SuffixSource

	project project.Project
	ns      session.Namespace
	ids     *session.Generator
	reg     session.Registry
	sched   *Scheduler
	replay  replayState
	issues  *issues.Tracker
	busy    bool

	location slot[LocationFunc]
	expr     slot[exprRequest]
	export   slot[ExportFunc]
	stats    slot[StatsFunc]

	// schedule runs f on the manager's goroutine. Loop replaces it with an
	// enqueue so sink-paced resume callbacks are safe from any goroutine.
	schedule func(f func())
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock sets the clock used for edit timestamps and the initial reload.
func WithClock(c clock.Clock) Option {
	return func(m *Manager) {
		m.clock = c
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// WithLocalizer sets where export failure messages come from.
// Default: i18n.New(cfg.Lang).
func WithLocalizer(l i18n.Localizer) Option {
	return func(m *Manager) {
		m.text = l
	}
}

// WithSuffixSource sets the namespace suffix source.
// Default: session.RandomSuffix. Tests use session.FixedSuffix.
func WithSuffixSource(s session.SuffixSource) Option {
	return func(m *Manager) {
		m.suffix = s
	}
}

// New creates a Manager with no project loaded.
//
// sup receives every outbound message. A nil sink is replaced by NopSink.
func New(cfg config.Config, sup wire.Supervisor, sink EventSink, opts ...Option) *Manager {
	if sink == nil {
		sink = NopSink{}
	}
	m := &Manager{
		cfg:      cfg,
		sup:      sup,
		sink:     sink,
		clock:    clock.System{},
		logger:   slog.Default(),
		suffix:   session.RandomSuffix{},
		ids:      session.NewGenerator(),
		sched:    NewScheduler(cfg.QuietPeriod),
		replay:   newReplayState(),
		issues:   issues.NewTracker(),
		schedule: runNow,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.text == nil {
		m.text = i18n.New(cfg.Lang)
	}
	return m
}

// SetProject opens p, replacing any current project.
//
// Session state from the previous project is torn down and a reload is
// queued for the next tick. The namespace is derived once here and stays
// fixed until the next SetProject.
func (m *Manager) SetProject(p project.Project) {
	m.teardown(ErrProjectClosed)
	m.project = p
	m.ns = session.NewNamespace(p.MainFileName(), m.suffix.Generate())
	m.sched.RequestReload()
	m.logger.Info("project set", "main", p.MainFileName(), "namespace", m.ns)
}

// CloseProject stops the play session, cancels outstanding requests with
// ErrProjectClosed, and leaves no project loaded.
func (m *Manager) CloseProject() {
	if m.project == nil {
		return
	}
	m.teardown(ErrProjectClosed)
	m.logger.Info("project closed", "namespace", m.ns)
	m.project = nil
	m.ns = ""
}

// teardown clears all session-scoped state. Callbacks are completed with
// cause after the state is cleared.
func (m *Manager) teardown(cause error) {
	if play := m.reg.Play(); !play.IsZero() {
		m.send(wire.Stop(play.String()))
	}

	loc, hasLoc := m.location.drain()
	expr, hasExpr := m.expr.drain()
	exp, hasExp := m.export.drain()
	st, hasSt := m.stats.drain()

	m.reg.Reset()
	m.replay = newReplayState()
	m.issues.Clear()
	m.sched.Reset()
	m.setBusy(false)

	if hasLoc {
		loc(wire.Location{}, cause)
	}
	if hasExpr {
		expr.cb("", cause)
	}
	if hasExp {
		exp("", cause)
	}
	if hasSt {
		st(nil, cause)
	}
}

// Start schedules the initial reload InitialDelay from now.
func (m *Manager) Start() {
	m.sched.Start(m.clock.Now(), m.cfg.InitialDelay)
}

// Tick runs one debounce check and reloads if a reload is due.
func (m *Manager) Tick() error {
	if !m.sched.Due(m.clock.Now()) {
		return nil
	}
	return m.Reload()
}

// SetEdited records an edit now. The reload fires once editing has paused
// for the quiet period.
func (m *Manager) SetEdited() {
	m.sched.SetEdited(m.clock.Now())
}

// Reload stops the current play session and starts a new one that replays
// the recorded choices.
//
// With no project, or a project that is not ready, the reload is deferred:
// it stays pending (retried on every tick) and busy is raised.
func (m *Manager) Reload() error {
	if m.project == nil || !m.project.Ready() {
		m.sched.RequestReload()
		m.setBusy(true)
		return nil
	}

	m.sched.Reloaded()

	if play := m.reg.Play(); !play.IsZero() {
		m.send(wire.Stop(play.String()))
	}
	m.cancelStoryRequests()

	m.replay.restart()

	id := m.ids.Next(m.ns, session.PurposePlay)
	instr := wire.BuildInstruction(m.project, id, m.ns, wire.PlayMode())

	m.sink.Resetting(id.String())
	m.issues.Clear()
	m.reg.Set(id)

	m.logger.Info("sending session", "session", id.String(), "updated_files", len(instr.UpdatedFiles))
	if err := m.sup.Send(wire.Compile(instr)); err != nil {
		m.logger.Error("send compile failed", "session", id.String(), "error", err)
		instr.Undeliver()
		m.setBusy(false)
		return fmt.Errorf("send compile %s: %w", id, err)
	}
	m.setBusy(true)
	return nil
}

// cancelStoryRequests completes location and expression requests that were
// sent to a play session that is about to be stopped.
func (m *Manager) cancelStoryRequests() {
	if loc, ok := m.location.drain(); ok {
		loc(wire.Location{}, ErrSuperseded)
	}
	if expr, ok := m.expr.drain(); ok {
		expr.cb("", ErrSuperseded)
	}
}

// ExportJSON compiles the project to JSON in its own export session.
//
// cb receives the JSON path, or an *ExportError. A second export before the
// first completes supersedes it.
func (m *Manager) ExportJSON(inkJSCompatible bool, cb ExportFunc) error {
	if m.project == nil {
		return ErrNoProject
	}
	id := m.ids.Next(m.ns, session.PurposeExport)
	instr := wire.BuildInstruction(m.project, id, m.ns, wire.ExportMode(inkJSCompatible))

	if err := m.sup.Send(wire.Compile(instr)); err != nil {
		m.logger.Error("send export failed", "session", id.String(), "error", err)
		instr.Undeliver()
		return fmt.Errorf("send export %s: %w", id, err)
	}

	m.reg.Set(id)
	prev, replaced := m.export.put(id, cb)
	m.setBusy(true)
	if replaced {
		prev("", ErrSuperseded)
	}
	return nil
}

// GetStats compiles the project in a stats session.
//
// cb receives the stats report with currentFile.totalLines added.
func (m *Manager) GetStats(cb StatsFunc) error {
	if m.project == nil {
		return ErrNoProject
	}
	id := m.ids.Next(m.ns, session.PurposeStats)
	instr := wire.BuildInstruction(m.project, id, m.ns, wire.StatsMode())

	if err := m.sup.Send(wire.Compile(instr)); err != nil {
		m.logger.Error("send stats failed", "session", id.String(), "error", err)
		instr.Undeliver()
		return fmt.Errorf("send stats %s: %w", id, err)
	}

	m.reg.Set(id)
	prev, replaced := m.stats.put(id, cb)
	m.setBusy(true)
	if replaced {
		prev(nil, ErrSuperseded)
	}
	return nil
}

// Choose submits a live choice to the session that offered it and records
// it for replay.
func (m *Manager) Choose(c wire.Choice) error {
	target := c.SourceSessionID
	if target == "" {
		target = m.reg.Play().String()
	}
	if target == "" {
		return ErrNoPlaySession
	}
	if !m.reg.IsPlay(target) {
		return fmt.Errorf("choose %d from %s: %w", c.Number, target, ErrStaleSession)
	}
	if err := m.sup.Send(wire.ContinueWithChoice(c.Number, target)); err != nil {
		return fmt.Errorf("send choice %d to %s: %w", c.Number, target, err)
	}
	m.replay.record(c.Number)
	return nil
}

// Rewind forgets the play-through and restarts the story.
func (m *Manager) Rewind() error {
	m.replay.clear()
	return m.Reload()
}

// StepBack forgets the latest choice and replays up to the one before it.
func (m *Manager) StepBack() error {
	m.replay.dropLast()
	return m.Reload()
}

// GetLocationInSource resolves a runtime offset in the play session.
func (m *Manager) GetLocationInSource(offset int, cb LocationFunc) error {
	play := m.reg.Play()
	if play.IsZero() {
		return ErrNoPlaySession
	}
	if err := m.sup.Send(wire.GetLocationInSource(offset, play.String())); err != nil {
		return fmt.Errorf("send location lookup: %w", err)
	}
	m.putLocation(play, cb)
	return nil
}

// GetRuntimePathInSource resolves a runtime path in the play session.
func (m *Manager) GetRuntimePathInSource(path string, cb LocationFunc) error {
	play := m.reg.Play()
	if play.IsZero() {
		return ErrNoPlaySession
	}
	if err := m.sup.Send(wire.GetRuntimePathInSource(path, play.String())); err != nil {
		return fmt.Errorf("send runtime path lookup: %w", err)
	}
	m.putLocation(play, cb)
	return nil
}

func (m *Manager) putLocation(id session.ID, cb LocationFunc) {
	if prev, replaced := m.location.put(id, cb); replaced {
		prev(wire.Location{}, ErrSuperseded)
	}
}

// EvaluateExpression evaluates text in the context of the play session.
func (m *Manager) EvaluateExpression(text string, cb ExpressionFunc) error {
	play := m.reg.Play()
	if play.IsZero() {
		return ErrNoPlaySession
	}
	if err := m.sup.Send(wire.EvaluateExpression(text, play.String())); err != nil {
		return fmt.Errorf("send expression: %w", err)
	}
	if prev, replaced := m.expr.put(play, exprRequest{cb: cb, text: text}); replaced {
		prev.cb("", ErrSuperseded)
	}
	return nil
}

// NextIssue selects the next issue, wrapping to the first, and tells the
// sink. Does nothing when there are no issues.
func (m *Manager) NextIssue() {
	if is, ok := m.issues.Next(); ok {
		m.sink.SelectIssue(is)
	}
}

// Issues returns the diagnostics from the latest batch.
func (m *Manager) Issues() []issues.Issue {
	return m.issues.All()
}

// IssuesForFile returns the latest diagnostics for one file.
func (m *Manager) IssuesForFile(filename string) []issues.Issue {
	return m.issues.ForFile(filename)
}

// Busy reports whether a request to the compiler is outstanding.
func (m *Manager) Busy() bool {
	return m.busy
}

// State is a point-in-time view of the manager, for tests and tracing.
type State struct {
	Namespace      string `json:"namespace" yaml:"namespace"`
	PlaySession    string `json:"play_session" yaml:"play_session"`
	ExportSession  string `json:"export_session" yaml:"export_session"`
	StatsSession   string `json:"stats_session" yaml:"stats_session"`
	ChoiceSequence []int  `json:"choice_sequence" yaml:"choice_sequence"`
	CurrentTurn    int    `json:"current_turn" yaml:"current_turn"`
	Replaying      bool   `json:"replaying" yaml:"replaying"`
	Busy           bool   `json:"busy" yaml:"busy"`
	ReloadPending  bool   `json:"reload_pending" yaml:"reload_pending"`
	Issues         int    `json:"issues" yaml:"issues"`
	SelectedIssue  int    `json:"selected_issue" yaml:"selected_issue"`
}

// Snapshot returns the current State.
func (m *Manager) Snapshot() State {
	return State{
		Namespace:      string(m.ns),
		PlaySession:    m.reg.Play().String(),
		ExportSession:  m.reg.Export().String(),
		StatsSession:   m.reg.Stats().String(),
		ChoiceSequence: m.replay.sequence(),
		CurrentTurn:    m.replay.cursor,
		Replaying:      m.replay.replaying,
		Busy:           m.busy,
		ReloadPending:  m.sched.Pending(),
		Issues:         m.issues.Len(),
		SelectedIssue:  m.issues.Selected(),
	}
}

func runNow(f func()) { f() }

func (m *Manager) setBusy(busy bool) {
	if busy == m.busy {
		return
	}
	m.busy = busy
	m.sink.CompilerBusyChanged(busy)
}

// send is fire-and-forget; failures are logged.
func (m *Manager) send(msg wire.Outbound) {
	if err := m.sup.Send(msg); err != nil {
		m.logger.Error("send failed", "kind", msg.Kind, "session", msg.SessionID, "error", err)
	}
}
