package live

import "time"

// Scheduler decides, on each tick, whether a reload is due.
//
// A reload is due when one was explicitly requested, when the initial
// reload time has passed, or when an edit was recorded and the quiet
// period has elapsed since (strictly greater). Repeated edits keep pushing
// the deadline out, so a burst of edits produces one reload.
//
// Scheduler does no I/O and reads no clock; callers pass now.
type Scheduler struct {
	quiet time.Duration

	pending  bool
	lastEdit time.Time
	edited   bool

	initialAt time.Time
	initial   bool
}

// NewScheduler creates a scheduler with the given quiet period.
func NewScheduler(quiet time.Duration) *Scheduler {
	return &Scheduler{quiet: quiet}
}

// Start schedules the initial reload delay after now.
func (s *Scheduler) Start(now time.Time, delay time.Duration) {
	s.initialAt = now.Add(delay)
	s.initial = true
}

// SetEdited records now as the time of the latest edit.
func (s *Scheduler) SetEdited(now time.Time) {
	s.lastEdit = now
	s.edited = true
}

// RequestReload marks a reload as pending for the next tick.
func (s *Scheduler) RequestReload() {
	s.pending = true
}

// Pending reports whether an explicit reload is waiting.
func (s *Scheduler) Pending() bool {
	return s.pending
}

// Due reports whether a reload should fire at now.
func (s *Scheduler) Due(now time.Time) bool {
	if s.pending {
		return true
	}
	if s.edited && now.Sub(s.lastEdit) > s.quiet {
		return true
	}
	return s.initial && !now.Before(s.initialAt)
}

// Reloaded clears every reason for a reload. Any reload satisfies the
// initial one.
func (s *Scheduler) Reloaded() {
	s.pending = false
	s.edited = false
	s.lastEdit = time.Time{}
	s.initial = false
}

// Reset forgets everything, including the initial reload.
func (s *Scheduler) Reset() {
	*s = Scheduler{quiet: s.quiet}
}
