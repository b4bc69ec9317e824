package live

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/inklive/internal/wire"
)

// Loop runs a Manager on a single goroutine.
//
// Thread-safety model:
//   - Do, Deliver, SetEdited, Stop: safe from any goroutine
//   - Run: must be called from exactly one goroutine
//
// Every tick and every queued job runs to completion before the next one
// starts, so the Manager never sees concurrent calls. A due tick runs after
// at most one more job, however many are queued.
type Loop struct {
	m      *Manager
	queue  *jobQueue
	logger *slog.Logger
}

// NewLoop wraps m. After this call m must only be touched through the loop.
func NewLoop(m *Manager) *Loop {
	l := &Loop{
		m:      m,
		queue:  newJobQueue(),
		logger: m.logger,
	}
	m.schedule = func(f func()) {
		l.Do(func(*Manager) { f() })
	}
	return l
}

// Do queues f to run on the loop goroutine.
// Returns false if the loop has stopped.
func (l *Loop) Do(f func(m *Manager)) bool {
	return l.queue.enqueue(f)
}

// Deliver queues an inbound supervisor event. It matches wire.InboundFunc
// so it can be handed straight to a ProcessSupervisor.
func (l *Loop) Deliver(msg wire.Inbound) {
	if !l.queue.enqueue(func(m *Manager) { m.Handle(msg) }) {
		l.logger.Debug("inbound dropped: loop stopped", "kind", msg.Kind, "session", msg.SessionID)
	}
}

// SetEdited queues an edit notification.
func (l *Loop) SetEdited() {
	l.Do(func(m *Manager) { m.SetEdited() })
}

// FileChanged queues an edit notification for rel. It has the shape of a
// project.EditFunc so a Watcher can report straight into the loop.
func (l *Loop) FileChanged(rel string) {
	l.Do(func(m *Manager) {
		m.logger.Debug("file changed", "file", rel)
		m.SetEdited()
	})
}

// Run starts the manager, then processes ticks and jobs until ctx is
// cancelled or Stop is called.
//
// ERROR HANDLING: failures inside a tick or job are logged and the loop
// continues, including recovered panics from sink callbacks.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("live compiler starting", "tick", l.m.cfg.TickInterval, "quiet", l.m.cfg.QuietPeriod)

	ticker := l.m.clock.NewTicker(l.m.cfg.TickInterval)
	defer ticker.Stop()

	l.m.Start()

	for {
		if j, ok := l.queue.tryDequeue(); ok {
			l.run("job", func() error {
				j(l.m)
				return nil
			})
			// A busy queue must not starve ticks or cancellation.
			select {
			case <-ctx.Done():
				l.logger.Info("live compiler stopping: context cancelled")
				l.queue.close()
				return ctx.Err()
			case <-ticker.C():
				l.run("tick", l.m.Tick)
			default:
			}
			continue
		}

		select {
		case <-ctx.Done():
			l.logger.Info("live compiler stopping: context cancelled")
			l.queue.close()
			return ctx.Err()

		case <-ticker.C():
			l.run("tick", l.m.Tick)

		case <-l.queue.wait():
			// The signal channel is closed by Stop. A stale buffered signal
			// with an empty queue just loops back to tryDequeue.
			if l.queue.drained() {
				l.logger.Info("live compiler stopping: loop stopped")
				return nil
			}
		}
	}
}

// Stop makes Run return once the jobs already queued have run.
func (l *Loop) Stop() {
	l.queue.close()
}

func (l *Loop) run(what string, f func() error) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("live compiler "+what+" panicked", "panic", fmt.Sprint(r))
		}
	}()
	if err := f(); err != nil {
		l.logger.Error("live compiler "+what+" failed", "error", err)
	}
}
