package store

import (
	"context"
	"log/slog"

	"github.com/roach88/inklive/internal/issues"
	"github.com/roach88/inklive/internal/live"
	"github.com/roach88/inklive/internal/wire"
)

// Supervisor journals every outbound message, then forwards it.
// A journal failure is logged; the message is still sent.
type Supervisor struct {
	next   wire.Supervisor
	store  *Store
	logger *slog.Logger
}

var _ wire.Supervisor = (*Supervisor)(nil)

// NewSupervisor wraps next. A nil logger means slog.Default().
func NewSupervisor(next wire.Supervisor, st *Store, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{next: next, store: st, logger: logger}
}

// Send implements wire.Supervisor.
func (s *Supervisor) Send(msg wire.Outbound) error {
	if err := s.store.WriteOutbound(context.Background(), msg); err != nil {
		s.logger.Warn("journal outbound failed", "kind", msg.Kind, "session", msg.SessionID, "error", err)
	}
	return s.next.Send(msg)
}

// Tap returns an InboundFunc that journals each event before passing it on.
func Tap(st *Store, logger *slog.Logger, next wire.InboundFunc) wire.InboundFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(msg wire.Inbound) {
		if err := st.WriteInbound(context.Background(), msg); err != nil {
			logger.Warn("journal inbound failed", "kind", msg.Kind, "session", msg.SessionID, "error", err)
		}
		next(msg)
	}
}

// Sink journals every notification, then forwards it to the wrapped sink.
type Sink struct {
	next   live.EventSink
	store  *Store
	logger *slog.Logger
}

var _ live.EventSink = (*Sink)(nil)

// NewSink wraps next. A nil next means live.NopSink.
func NewSink(next live.EventSink, st *Store, logger *slog.Logger) *Sink {
	if next == nil {
		next = live.NopSink{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{next: next, store: st, logger: logger}
}

func (s *Sink) write(kind, sessionID string, payload any) {
	if err := s.store.WriteSinkEvent(context.Background(), kind, sessionID, payload); err != nil {
		s.logger.Warn("journal sink event failed", "kind", kind, "error", err)
	}
}

func (s *Sink) CompilerBusyChanged(busy bool) {
	s.write("compiler-busy-changed", "", map[string]bool{"busy": busy})
	s.next.CompilerBusyChanged(busy)
}

func (s *Sink) Resetting(id string) {
	s.write("resetting", id, nil)
	s.next.Resetting(id)
}

func (s *Sink) CompileComplete(id string) {
	s.write("compile-complete", id, nil)
	s.next.CompileComplete(id)
}

func (s *Sink) TextAdded(r wire.TextResult) {
	s.write("text-added", "", r)
	s.next.TextAdded(r)
}

func (s *Sink) ErrorsAdded(errs []issues.Issue) {
	s.write("errors-added", "", errs)
	s.next.ErrorsAdded(errs)
}

func (s *Sink) TagsAdded(tags []string) {
	s.write("tags-added", "", tags)
	s.next.TagsAdded(tags)
}

func (s *Sink) ChoiceAdded(c wire.Choice, latest bool) {
	s.write("choice-added", c.SourceSessionID, map[string]any{"choice": c, "isLatestTurn": latest})
	s.next.ChoiceAdded(c, latest)
}

func (s *Sink) PlayerPrompt(replaying bool, resume func()) {
	s.write("player-prompt", "", map[string]bool{"replaying": replaying})
	s.next.PlayerPrompt(replaying, resume)
}

func (s *Sink) ReplayComplete(id string) {
	s.write("replay-complete", id, nil)
	s.next.ReplayComplete(id)
}

func (s *Sink) StoryCompleted() {
	s.write("story-completed", "", nil)
	s.next.StoryCompleted()
}

func (s *Sink) ExitDueToError() {
	s.write("exit-due-to-error", "", nil)
	s.next.ExitDueToError()
}

func (s *Sink) UnexpectedError(err string) {
	s.write("unexpected-error", "", map[string]string{"error": err})
	s.next.UnexpectedError(err)
}

func (s *Sink) SelectIssue(is issues.Issue) {
	s.write("select-issue", "", is)
	s.next.SelectIssue(is)
}
