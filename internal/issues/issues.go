// Package issues holds the compiler diagnostics from the latest compile.
package issues

// Type classifies a diagnostic.
type Type string

const (
	TypeError   Type = "ERROR"
	TypeWarning Type = "WARNING"
	TypeTodo    Type = "TODO"
)

// Issue is one diagnostic reported by the compiler.
type Issue struct {
	Filename   string `json:"filename"`
	LineNumber int    `json:"lineNumber,omitempty"`
	Message    string `json:"message"`
	Type       Type   `json:"type"`
}

// Tracker holds the active diagnostics and the navigation cursor.
//
// The list is replaced wholesale on every diagnostics batch; there is no
// merging across compiles. Selection is -1 when nothing is selected.
type Tracker struct {
	issues   []Issue
	selected int
}

// NewTracker creates an empty tracker with nothing selected.
func NewTracker() *Tracker {
	return &Tracker{selected: -1}
}

// Replace installs a new diagnostics batch and clears the selection.
// The slice is copied so later mutation by the caller has no effect.
func (t *Tracker) Replace(batch []Issue) {
	t.issues = append([]Issue(nil), batch...)
	t.selected = -1
}

// Clear drops all diagnostics and clears the selection.
func (t *Tracker) Clear() {
	t.issues = nil
	t.selected = -1
}

// All returns a copy of the active diagnostics.
func (t *Tracker) All() []Issue {
	return append([]Issue(nil), t.issues...)
}

// Len returns the number of active diagnostics.
func (t *Tracker) Len() int {
	return len(t.issues)
}

// Selected returns the selection index, or -1.
func (t *Tracker) Selected() int {
	return t.selected
}

// Next advances the selection cyclically, wrapping to the first issue
// after the last. Returns false when there are no issues.
func (t *Tracker) Next() (Issue, bool) {
	if len(t.issues) == 0 {
		return Issue{}, false
	}
	t.selected++
	if t.selected >= len(t.issues) {
		t.selected = 0
	}
	return t.issues[t.selected], true
}

// ForFile returns the diagnostics reported against filename, in order.
func (t *Tracker) ForFile(filename string) []Issue {
	var out []Issue
	for _, is := range t.issues {
		if is.Filename == filename {
			out = append(out, is)
		}
	}
	return out
}
