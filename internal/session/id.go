package session

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Purpose tags what a session was started for.
type Purpose int

const (
	// PurposePlay is the interactive play-through session.
	PurposePlay Purpose = iota + 1
	// PurposeExport compiles the story to JSON on disk.
	PurposeExport
	// PurposeStats compiles the story to collect word and line counts.
	PurposeStats
)

// String returns the lower-case purpose name.
func (p Purpose) String() string {
	switch p {
	case PurposePlay:
		return "play"
	case PurposeExport:
		return "export"
	case PurposeStats:
		return "stats"
	default:
		return "unknown"
	}
}

// Namespace scopes the compiled artifacts of one open project.
type Namespace string

// NewNamespace derives a namespace from the main file name and a suffix.
// Dots are replaced so the namespace is safe as a directory name.
//
//	NewNamespace("main.ink", "a1b2c3d") // "main_ink_a1b2c3d"
func NewNamespace(mainFileName, suffix string) Namespace {
	return Namespace(strings.ReplaceAll(mainFileName, ".", "_") + "_" + suffix)
}

// ID is a strongly-typed session handle.
//
// The zero ID is "no session". Two IDs are equal only if both the value
// and the purpose match, so a play id can never be confused with an export id.
type ID struct {
	value   string
	purpose Purpose
}

// String returns the wire form of the id.
func (id ID) String() string {
	return id.value
}

// Purpose returns what the session was started for.
func (id ID) Purpose() Purpose {
	return id.purpose
}

// IsZero reports whether id is the "no session" value.
func (id ID) IsZero() bool {
	return id.value == ""
}

// Matches reports whether a raw id received from the supervisor refers to
// this session. The zero ID matches nothing, not even the empty string.
func (id ID) Matches(raw string) bool {
	return !id.IsZero() && id.value == raw
}

// Generator hands out session ids.
//
// The counter is shared across namespaces: switching projects changes the
// namespace but the counter keeps increasing.
//
// Thread-safety: Next is safe for concurrent use (atomic counter), although
// the live manager only calls it from its loop goroutine.
type Generator struct {
	seq atomic.Int64
}

// NewGenerator creates a generator whose first id ends in _1.
func NewGenerator() *Generator {
	return &Generator{}
}

// Next increments the counter and returns "{ns}_{counter}" tagged with purpose.
func (g *Generator) Next(ns Namespace, purpose Purpose) ID {
	n := g.seq.Add(1)
	return ID{
		value:   fmt.Sprintf("%s_%d", ns, n),
		purpose: purpose,
	}
}
