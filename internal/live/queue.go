package live

import "sync"

// job is one unit of work for the loop goroutine.
type job func(*Manager)

// jobQueue is a thread-safe FIFO queue of jobs.
//
// The queue is unbounded so producers (the supervisor reader, the file
// watcher, UI calls) never block on a busy loop.
//
// A buffered signal channel of size 1 coalesces wakeups and lets Run wait
// on it together with ctx.Done and the ticker.
type jobQueue struct {
	mu     sync.Mutex
	jobs   []job
	closed bool
	signal chan struct{}
}

func newJobQueue() *jobQueue {
	return &jobQueue{
		jobs:   make([]job, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// enqueue adds j to the back of the queue.
// Safe from any goroutine. Returns false if the queue is closed.
func (q *jobQueue) enqueue(j job) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.jobs = append(q.jobs, j)

	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// tryDequeue removes the front job without blocking.
func (q *jobQueue) tryDequeue() (job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.jobs) == 0 {
		return nil, false
	}

	j := q.jobs[0]
	// Nil the slot so the closure and what it captures can be collected.
	q.jobs[0] = nil
	if len(q.jobs) == 1 {
		q.jobs = q.jobs[:0]
	} else {
		q.jobs = q.jobs[1:]
	}

	return j, true
}

// wait returns a channel that signals when jobs may be available.
// It is closed when the queue is closed.
func (q *jobQueue) wait() <-chan struct{} {
	return q.signal
}

// drained reports whether the queue is closed and empty.
func (q *jobQueue) drained() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed && len(q.jobs) == 0
}

// close stops new jobs from being queued and wakes the waiter.
// Jobs already queued are still handed out by tryDequeue.
func (q *jobQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}
