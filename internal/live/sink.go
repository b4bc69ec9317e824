package live

import (
	"log/slog"

	"github.com/roach88/inklive/internal/issues"
	"github.com/roach88/inklive/internal/wire"
)

// EventSink receives the manager's notifications. The UI layer implements
// it; the manager only ever calls it.
//
// All methods are called on the manager's goroutine and must not block.
type EventSink interface {
	CompilerBusyChanged(busy bool)
	Resetting(sessionID string)
	CompileComplete(sessionID string)
	TextAdded(result wire.TextResult)
	ErrorsAdded(errs []issues.Issue)
	TagsAdded(tags []string)
	ChoiceAdded(choice wire.Choice, isLatestTurn bool)
	// PlayerPrompt asks for input. When replaying is true the prompt is a
	// replay turn: the sink should not show choices and calls resume to
	// submit the recorded choice. For a genuine prompt resume is a no-op.
	PlayerPrompt(replaying bool, resume func())
	ReplayComplete(sessionID string)
	StoryCompleted()
	ExitDueToError()
	UnexpectedError(err string)
	SelectIssue(issue issues.Issue)
}

// NopSink ignores every event. Embed it to implement only some methods.
type NopSink struct{}

func (NopSink) CompilerBusyChanged(bool)       {}
func (NopSink) Resetting(string)               {}
func (NopSink) CompileComplete(string)         {}
func (NopSink) TextAdded(wire.TextResult)      {}
func (NopSink) ErrorsAdded([]issues.Issue)     {}
func (NopSink) TagsAdded([]string)             {}
func (NopSink) ChoiceAdded(wire.Choice, bool)  {}
func (NopSink) PlayerPrompt(bool, func())      {}
func (NopSink) ReplayComplete(string)          {}
func (NopSink) StoryCompleted()                {}
func (NopSink) ExitDueToError()                {}
func (NopSink) UnexpectedError(string)         {}
func (NopSink) SelectIssue(issues.Issue)       {}

// LogSink writes every event to a slog logger. Used by the run command when
// no UI is attached.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) log() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (s LogSink) CompilerBusyChanged(busy bool) { s.log().Debug("compiler busy", "busy", busy) }
func (s LogSink) Resetting(id string)           { s.log().Info("resetting", "session", id) }
func (s LogSink) CompileComplete(id string)     { s.log().Info("compile complete", "session", id) }
func (s LogSink) TextAdded(r wire.TextResult)   { s.log().Info("text", "text", r.Text) }
func (s LogSink) TagsAdded(tags []string)       { s.log().Info("tags", "tags", tags) }
func (s LogSink) ReplayComplete(id string)      { s.log().Info("replay complete", "session", id) }
func (s LogSink) StoryCompleted()               { s.log().Info("story completed") }
func (s LogSink) ExitDueToError()               { s.log().Warn("story exited due to error") }
func (s LogSink) UnexpectedError(err string)    { s.log().Error("unexpected story error", "error", err) }

func (s LogSink) ErrorsAdded(errs []issues.Issue) {
	for _, is := range errs {
		s.log().Warn("ink issue", "type", is.Type, "file", is.Filename, "line", is.LineNumber, "message", is.Message)
	}
}

func (s LogSink) ChoiceAdded(c wire.Choice, latest bool) {
	s.log().Info("choice", "number", c.Number, "text", c.Text, "latest", latest)
}

func (s LogSink) PlayerPrompt(replaying bool, resume func()) {
	s.log().Debug("player prompt", "replaying", replaying)
	if replaying {
		resume()
	}
}

func (s LogSink) SelectIssue(is issues.Issue) {
	s.log().Info("issue selected", "file", is.Filename, "line", is.LineNumber, "message", is.Message)
}
