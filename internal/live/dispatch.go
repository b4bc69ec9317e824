package live

import (
	"maps"

	"github.com/roach88/inklive/internal/config"
	"github.com/roach88/inklive/internal/i18n"
	"github.com/roach88/inklive/internal/session"
	"github.com/roach88/inklive/internal/wire"
)

// Handle processes one inbound supervisor event.
//
// Each kind is checked against the registry slot(s) it belongs to (see
// session.Registry). Events for any other session return with no state
// change, no sink call, and no log line; they come from a session that was
// stopped or replaced while its output was still in flight.
func (m *Manager) Handle(msg wire.Inbound) {
	raw := msg.SessionID

	switch msg.Kind {
	case wire.KindCompileComplete:
		if !m.reg.IsPlay(raw) {
			return
		}
		m.setBusy(false)
		m.sink.CompileComplete(raw)

	case wire.KindGeneratedText:
		if !m.reg.IsPlay(raw) {
			return
		}
		m.setBusy(false)
		var text wire.TextResult
		if msg.Text != nil {
			text = *msg.Text
		}
		m.sink.TextAdded(text)

	case wire.KindGeneratedErrors:
		if !m.reg.IsPlayOrExport(raw) {
			return
		}
		m.setBusy(false)
		m.issues.Replace(msg.Errors)
		m.sink.ErrorsAdded(m.issues.All())

	case wire.KindGeneratedTags:
		if !m.reg.IsPlay(raw) {
			return
		}
		m.setBusy(false)
		m.sink.TagsAdded(msg.Tags)

	case wire.KindGeneratedChoice:
		if !m.reg.IsPlay(raw) {
			return
		}
		m.setBusy(false)
		if msg.Choice == nil {
			m.logger.Warn("choice event without choice", "session", raw)
			return
		}
		c := *msg.Choice
		c.SourceSessionID = raw
		m.sink.ChoiceAdded(c, m.replay.caughtUp())

	case wire.KindRequiresInput:
		if !m.reg.IsPlay(raw) {
			return
		}
		m.setBusy(false)
		m.requiresInput(raw)

	case wire.KindInklecateComplete:
		switch {
		case m.reg.IsPlay(raw):
			m.setBusy(false)
			m.sink.StoryCompleted()
			m.abandonReplay(raw)
		case m.reg.IsExport(raw):
			m.completeExport(msg.ExportPath, nil)
		}

	case wire.KindExitDueToError:
		m.storyFailed(msg, i18n.MsgExportInkErrors, FailureInkErrors)

	case wire.KindUnexpectedError:
		m.storyFailed(msg, i18n.MsgUnexpectedError, FailureUnexpected)

	case wire.KindStoryStopped:
		// A stop notice arrives right after every reset. Clearing busy here
		// would hide the busy state of the compile that just started.

	case wire.KindReturnLocation:
		cb, ok := m.location.take(raw)
		if !ok {
			return
		}
		var loc wire.Location
		if msg.Location != nil {
			loc = *msg.Location
		}
		cb(loc, nil)

	case wire.KindEvaluatedExpression:
		req, ok := m.expr.take(raw)
		if !ok {
			return
		}
		req.cb(msg.Result, nil)

	case wire.KindEvaluatedExpressionError:
		req, ok := m.expr.take(raw)
		if !ok {
			return
		}
		req.cb("", &ExpressionError{Expression: req.text, Message: msg.Error})

	case wire.KindReturnStats:
		if !m.reg.IsStats(raw) {
			return
		}
		m.completeStats(m.withOpenFileLines(msg.Stats), nil)

	case wire.KindNextIssue:
		m.NextIssue()

	default:
		m.logger.Warn("unknown inbound kind", "kind", msg.Kind, "session", raw)
	}
}

// requiresInput runs one replay step, or prompts the player.
func (m *Manager) requiresInput(raw string) {
	if !m.replay.replaying {
		m.sink.PlayerPrompt(false, func() {})
		return
	}

	if !m.replay.caughtUp() {
		if m.cfg.ReplayPacing == config.PacingSink {
			m.sink.PlayerPrompt(true, m.resumeFunc(raw))
			return
		}
		m.submitReplayChoice(raw)
		return
	}

	m.replay.replaying = false
	m.sink.ReplayComplete(raw)
	m.sink.PlayerPrompt(false, func() {})
}

// resumeFunc returns the callback a sink uses to release one paced replay
// turn. It may be called from any goroutine, any number of times; only the
// first call counts, and only while raw is still the play session.
func (m *Manager) resumeFunc(raw string) func() {
	used := false
	return func() {
		m.schedule(func() {
			if used || !m.reg.IsPlay(raw) || !m.replay.replaying {
				return
			}
			used = true
			m.submitReplayChoice(raw)
		})
	}
}

func (m *Manager) submitReplayChoice(raw string) {
	choice, ok := m.replay.next()
	if !ok {
		return
	}
	m.logger.Debug("replaying choice", "session", raw, "choice", choice, "turn", m.replay.cursor)
	m.send(wire.ContinueWithChoice(choice, raw))
}

// abandonReplay stops a replay cut short by the story ending or failing.
// ReplayComplete still fires so the UI does not wait for it forever.
func (m *Manager) abandonReplay(raw string) {
	if m.replay.abandon() {
		m.sink.ReplayComplete(raw)
	}
}

// storyFailed handles play-exit-due-to-error and play-story-unexpected-error.
// For export and stats sessions the failure completes the request; for the
// play session it ends the story.
func (m *Manager) storyFailed(msg wire.Inbound, key string, kind FailureKind) {
	raw := msg.SessionID
	switch {
	case m.reg.IsExport(raw), m.reg.IsStats(raw):
		err := &ExportError{
			Kind:      kind,
			Message:   m.text.Text(key),
			SessionID: raw,
			ExitCode:  msg.ExitCode,
			Detail:    msg.Error,
		}
		if m.reg.IsExport(raw) {
			m.completeExport("", err)
		} else {
			m.completeStats(nil, err)
		}

	case m.reg.IsPlay(raw):
		m.setBusy(false)
		m.abandonReplay(raw)
		if kind == FailureInkErrors {
			m.sink.ExitDueToError()
		} else {
			m.sink.UnexpectedError(msg.Error)
		}
	}
}

func (m *Manager) completeExport(path string, err error) {
	cb, ok := m.export.drain()
	m.reg.Clear(session.PurposeExport)
	m.setBusy(false)
	if ok {
		cb(path, err)
	}
}

func (m *Manager) completeStats(stats wire.Stats, err error) {
	cb, ok := m.stats.drain()
	m.reg.Clear(session.PurposeStats)
	m.setBusy(false)
	if ok {
		cb(stats, err)
	}
}

// withOpenFileLines copies stats and adds currentFile.totalLines.
func (m *Manager) withOpenFileLines(stats wire.Stats) wire.Stats {
	out := make(wire.Stats, len(stats)+1)
	maps.Copy(out, stats)
	lines := 0
	if m.project != nil {
		lines = m.project.CountOpenFileLines()
	}
	out["currentFile"] = map[string]any{"totalLines": lines}
	return out
}
