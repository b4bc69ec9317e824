package session

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// SuffixLength is the number of random characters in a namespace suffix.
const SuffixLength = 7

// SuffixSource generates the random part of a namespace.
// Implemented by RandomSuffix (production) and FixedSuffix (tests).
type SuffixSource interface {
	Generate() string
}

// RandomSuffix draws suffixes from random (v4) UUIDs.
//
// Stateless and safe for concurrent use.
type RandomSuffix struct{}

// Generate returns SuffixLength lower-case hex characters.
func (RandomSuffix) Generate() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return raw[:SuffixLength]
}

// FixedSuffix returns predetermined suffixes for deterministic tests.
// Once the list is exhausted the last suffix repeats.
type FixedSuffix struct {
	mu       sync.Mutex
	suffixes []string
	idx      int
}

// NewFixedSuffix creates a source that returns suffixes in order.
// With no arguments it always returns "test000".
func NewFixedSuffix(suffixes ...string) *FixedSuffix {
	if len(suffixes) == 0 {
		suffixes = []string{"test000"}
	}
	return &FixedSuffix{suffixes: suffixes}
}

// Generate returns the next predetermined suffix.
func (f *FixedSuffix) Generate() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	s := f.suffixes[f.idx]
	if f.idx < len(f.suffixes)-1 {
		f.idx++
	}
	return s
}
