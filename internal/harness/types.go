package harness

import (
	"fmt"

	"github.com/roach88/inklive/internal/live"
)

// TraceEvent is one journal entry rendered for assertions and golden files.
type TraceEvent struct {
	Seq       int64  `json:"seq"`
	Direction string `json:"direction"` // "out", "in" or "sink"
	Kind      string `json:"kind"`
	SessionID string `json:"session_id,omitempty"`
	// Detail is the short rendering of the message, starting with its kind
	// (for sink events, the recording sink's line).
	Detail string `json:"detail"`
}

// Line is the event without its seq, as matched by trace assertions.
func (e TraceEvent) Line() string {
	return e.Direction + " " + e.Detail
}

// String is the event as written to golden files, with the direction
// padded so details line up.
func (e TraceEvent) String() string {
	return fmt.Sprintf("%03d %-4s %s", e.Seq, e.Direction, e.Detail)
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all step expectations and assertions hold.
	Pass bool `json:"pass"`

	// Trace contains every journal entry in seq order.
	Trace []TraceEvent `json:"trace"`

	// Outcomes lists callback results and operation errors, in the order
	// they happened, such as "export ok out/main.json".
	Outcomes []string `json:"outcomes"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State is the manager state after the last step.
	State live.State `json:"state"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Trace:    []TraceEvent{},
		Outcomes: []string{},
		Errors:   []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddOutcome records a callback result or an operation error.
func (r *Result) AddOutcome(format string, args ...any) {
	r.Outcomes = append(r.Outcomes, fmt.Sprintf(format, args...))
}
