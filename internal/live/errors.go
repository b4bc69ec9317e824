package live

import (
	"errors"
	"fmt"
)

var (
	// ErrSuperseded completes a pending callback whose request was replaced
	// by a newer request of the same kind.
	ErrSuperseded = errors.New("request superseded")

	// ErrProjectClosed completes pending callbacks when the project they
	// belong to is replaced or closed.
	ErrProjectClosed = errors.New("project closed")

	// ErrNoProject is returned by operations that need an open project.
	ErrNoProject = errors.New("no project loaded")

	// ErrNoPlaySession is returned by operations that talk to the running
	// story when no play session exists.
	ErrNoPlaySession = errors.New("no play session")

	// ErrStaleSession is returned by Choose when the choice was offered by a
	// play session that has since been replaced.
	ErrStaleSession = errors.New("choice from a stale session")
)

// FailureKind classifies why an export or stats request failed.
type FailureKind string

const (
	// FailureInkErrors means the ink did not compile.
	FailureInkErrors FailureKind = "INK_ERRORS"

	// FailureUnexpected means the compiler failed for another reason.
	FailureUnexpected FailureKind = "UNEXPECTED"
)

// ExportError is the error an export (or stats) callback receives when the
// compiler reports a failure for that session.
//
// Message is localized and ready to show. Detail carries the raw compiler
// error text when there is one.
type ExportError struct {
	Kind      FailureKind
	Message   string
	SessionID string
	ExitCode  int
	Detail    string
}

// Error implements the error interface.
func (e *ExportError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (session=%s): %s", e.Kind, e.Message, e.SessionID, e.Detail)
	}
	return fmt.Sprintf("%s: %s (session=%s)", e.Kind, e.Message, e.SessionID)
}

// IsInkErrors reports whether err is an ExportError caused by ink errors.
// Uses errors.As to handle wrapped errors.
func IsInkErrors(err error) bool {
	var ee *ExportError
	if errors.As(err, &ee) {
		return ee.Kind == FailureInkErrors
	}
	return false
}

// ExpressionError is returned to an expression callback when the story
// could not evaluate the expression.
type ExpressionError struct {
	Expression string
	Message    string
}

// Error implements the error interface.
func (e *ExpressionError) Error() string {
	return fmt.Sprintf("evaluate %q: %s", e.Expression, e.Message)
}
