package testutil

import (
	"sync"

	"github.com/roach88/inklive/internal/wire"
)

// RecordingSupervisor records every outbound message instead of talking to
// a compiler.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type RecordingSupervisor struct {
	mu   sync.Mutex
	sent []wire.Outbound
	err  error
}

// NewRecordingSupervisor creates a supervisor that accepts every message.
func NewRecordingSupervisor() *RecordingSupervisor {
	return &RecordingSupervisor{}
}

// Send records m, or returns the error set by Fail without recording.
func (s *RecordingSupervisor) Send(m wire.Outbound) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, m)
	return nil
}

// Fail makes later sends return err. Fail(nil) restores normal sending.
func (s *RecordingSupervisor) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Sent returns a copy of every recorded message.
func (s *RecordingSupervisor) Sent() []wire.Outbound {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]wire.Outbound, len(s.sent))
	copy(out, s.sent)
	return out
}

// OfKind returns the recorded messages of one kind, in order.
func (s *RecordingSupervisor) OfKind(kind wire.OutboundKind) []wire.Outbound {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []wire.Outbound
	for _, m := range s.sent {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}

// Compiles returns the sent compile instructions, in order.
func (s *RecordingSupervisor) Compiles() []wire.CompileInstruction {
	var out []wire.CompileInstruction
	for _, m := range s.OfKind(wire.KindCompile) {
		out = append(out, *m.Instruction)
	}
	return out
}

// Choices returns the choice numbers submitted, in order.
func (s *RecordingSupervisor) Choices() []int {
	var out []int
	for _, m := range s.OfKind(wire.KindContinueWithChoice) {
		out = append(out, m.Choice)
	}
	return out
}

// Last returns the latest recorded message.
func (s *RecordingSupervisor) Last() (wire.Outbound, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return wire.Outbound{}, false
	}
	return s.sent[len(s.sent)-1], true
}

// Reset forgets the recorded messages.
func (s *RecordingSupervisor) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = nil
}
