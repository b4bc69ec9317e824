package wire

import (
	"errors"
)

// ErrSupervisorClosed is returned by Send after the transport shut down.
var ErrSupervisorClosed = errors.New("supervisor closed")

// ErrSupervisorFull is returned by a channel transport whose buffer is full.
var ErrSupervisorFull = errors.New("supervisor queue full")

// Supervisor is the outbound side of the compiler-process supervisor.
//
// Send is fire-and-forget: it must not block waiting for the compiler.
// Responses arrive later, out of band, as Inbound messages.
type Supervisor interface {
	Send(Outbound) error
}

// SupervisorFunc adapts a function to Supervisor.
type SupervisorFunc func(Outbound) error

// Send implements Supervisor.
func (f SupervisorFunc) Send(m Outbound) error { return f(m) }

// ChanSupervisor delivers outbound messages to a buffered channel, for an
// in-process supervisor.
type ChanSupervisor struct {
	ch chan Outbound
}

// NewChanSupervisor creates a channel transport with the given buffer size.
func NewChanSupervisor(size int) *ChanSupervisor {
	return &ChanSupervisor{ch: make(chan Outbound, size)}
}

// Send implements Supervisor. It never blocks: a full buffer is an error.
func (s *ChanSupervisor) Send(m Outbound) error {
	select {
	case s.ch <- m:
		return nil
	default:
		return ErrSupervisorFull
	}
}

// Outbox returns the receive side for the supervisor.
func (s *ChanSupervisor) Outbox() <-chan Outbound {
	return s.ch
}
