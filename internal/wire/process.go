package wire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
)

// InboundFunc receives inbound messages from a transport.
type InboundFunc func(Inbound)

// ProcessSupervisor runs the supervisor as a child process and talks to it
// over stdin/stdout JSON lines. The child's stderr is passed through.
//
// Lifecycle: Start once, then Send from any goroutine. Wait blocks until
// the child exits and the reader has drained stdout.
type ProcessSupervisor struct {
	name    string
	args    []string
	deliver InboundFunc
	logger  *slog.Logger

	mu      sync.Mutex
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	enc     *Encoder
	closed  bool
	readErr chan error
}

// NewProcessSupervisor prepares a child process transport.
// deliver is called from the reader goroutine for each inbound message.
func NewProcessSupervisor(name string, args []string, deliver InboundFunc) *ProcessSupervisor {
	return &ProcessSupervisor{
		name:    name,
		args:    args,
		deliver: deliver,
		logger:  slog.Default(),
	}
}

// Start spawns the child. It is killed when ctx is cancelled.
func (p *ProcessSupervisor) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd != nil {
		return errors.New("supervisor already started")
	}

	cmd := exec.CommandContext(ctx, p.name, p.args...)
	cmd.Stderr = os.Stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("supervisor stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("supervisor stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start supervisor %s: %w", p.name, err)
	}

	p.cmd = cmd
	p.stdin = stdin
	p.enc = NewEncoder(stdin)
	p.readErr = make(chan error, 1)
	go p.read(stdout)

	p.logger.Info("supervisor started", "command", p.name, "pid", cmd.Process.Pid)
	return nil
}

// Send implements Supervisor.
func (p *ProcessSupervisor) Send(m Outbound) error {
	p.mu.Lock()
	enc, closed := p.enc, p.closed
	p.mu.Unlock()

	if enc == nil || closed {
		return ErrSupervisorClosed
	}
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("send %s: %w", m.Kind, err)
	}
	return nil
}

// Close closes the child's stdin, asking it to exit.
func (p *ProcessSupervisor) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.stdin == nil {
		p.closed = true
		return nil
	}
	p.closed = true
	return p.stdin.Close()
}

// Wait waits for the reader to drain and the child to exit.
func (p *ProcessSupervisor) Wait() error {
	p.mu.Lock()
	cmd, readErr := p.cmd, p.readErr
	p.mu.Unlock()
	if cmd == nil {
		return nil
	}

	rerr := <-readErr
	werr := cmd.Wait()
	if werr != nil {
		return fmt.Errorf("supervisor exited: %w", werr)
	}
	return rerr
}

func (p *ProcessSupervisor) read(r io.Reader) {
	dec := NewDecoder(r)
	for {
		m, err := dec.DecodeInbound()
		if errors.Is(err, io.EOF) {
			p.readErr <- nil
			return
		}
		var de *DecodeError
		if errors.As(err, &de) {
			p.logger.Warn("malformed supervisor message", "line", de.Line, "error", de.Err)
			continue
		}
		if err != nil {
			p.readErr <- err
			return
		}
		p.deliver(m)
	}
}
