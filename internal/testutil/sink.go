package testutil

import (
	"fmt"
	"strings"
	"sync"

	"github.com/roach88/inklive/internal/issues"
	"github.com/roach88/inklive/internal/wire"
)

// RecordingSink records every live compiler event as one line of text.
//
// The lines are stable and human-readable so tests can compare them
// directly and the harness can write them to golden files:
//
//	busy true
//	resetting main_ink_test000_1
//	choice 0 "Go left" latest=true
//	prompt replaying=false
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type RecordingSink struct {
	mu      sync.Mutex
	events  []string
	resumes []func()
	errors  []issues.Issue
	choices []wire.Choice

	// AutoResume makes PlayerPrompt call resume for replay turns
	// immediately, like a UI that shows no replay animation.
	AutoResume bool
}

// NewRecordingSink creates an empty sink.
func NewRecordingSink() *RecordingSink {
	return &RecordingSink{}
}

func (s *RecordingSink) record(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, fmt.Sprintf(format, args...))
}

// Events returns a copy of the recorded lines.
func (s *RecordingSink) Events() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	copy(out, s.events)
	return out
}

// Count returns how many recorded lines start with prefix.
func (s *RecordingSink) Count(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.events {
		if strings.HasPrefix(e, prefix) {
			n++
		}
	}
	return n
}

// Index returns the position of the first line equal to event, or -1.
func (s *RecordingSink) Index(event string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.events {
		if e == event {
			return i
		}
	}
	return -1
}

// Reset forgets everything recorded so far.
func (s *RecordingSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
	s.resumes = nil
	s.errors = nil
	s.choices = nil
}

// LastResume returns the resume callback of the latest prompt.
func (s *RecordingSink) LastResume() func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.resumes) == 0 {
		return nil
	}
	return s.resumes[len(s.resumes)-1]
}

// Errors returns the latest reported diagnostics batch.
func (s *RecordingSink) Errors() []issues.Issue {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errors
}

// Choices returns every choice offered so far.
func (s *RecordingSink) Choices() []wire.Choice {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]wire.Choice, len(s.choices))
	copy(out, s.choices)
	return out
}

func (s *RecordingSink) CompilerBusyChanged(busy bool) { s.record("busy %t", busy) }
func (s *RecordingSink) Resetting(id string)           { s.record("resetting %s", id) }
func (s *RecordingSink) CompileComplete(id string)     { s.record("compile-complete %s", id) }
func (s *RecordingSink) TextAdded(r wire.TextResult)   { s.record("text %q", r.Text) }
func (s *RecordingSink) TagsAdded(tags []string)       { s.record("tags %s", strings.Join(tags, ",")) }
func (s *RecordingSink) ReplayComplete(id string)      { s.record("replay-complete %s", id) }
func (s *RecordingSink) StoryCompleted()               { s.record("story-completed") }
func (s *RecordingSink) ExitDueToError()               { s.record("exit-due-to-error") }
func (s *RecordingSink) UnexpectedError(err string)    { s.record("unexpected-error %s", err) }

func (s *RecordingSink) ErrorsAdded(errs []issues.Issue) {
	s.mu.Lock()
	s.errors = errs
	s.mu.Unlock()
	s.record("errors %d", len(errs))
}

func (s *RecordingSink) ChoiceAdded(c wire.Choice, latest bool) {
	s.mu.Lock()
	s.choices = append(s.choices, c)
	s.mu.Unlock()
	s.record("choice %d %q latest=%t", c.Number, c.Text, latest)
}

func (s *RecordingSink) PlayerPrompt(replaying bool, resume func()) {
	s.mu.Lock()
	s.resumes = append(s.resumes, resume)
	auto := s.AutoResume
	s.mu.Unlock()
	s.record("prompt replaying=%t", replaying)
	if replaying && auto {
		resume()
	}
}

func (s *RecordingSink) SelectIssue(is issues.Issue) {
	s.record("select-issue %s:%d %s", is.Filename, is.LineNumber, is.Message)
}
