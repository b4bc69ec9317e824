package project

import (
	"path"
	"sort"
	"strings"
	"sync"
)

// InkFile is an in-memory ink file.
//
// Thread-safety: all methods are safe for concurrent use. The watcher
// goroutine writes while the live loop reads.
type InkFile struct {
	mu    sync.Mutex
	rel   string
	value string
	dirty bool
}

// RelativePath implements File.
func (f *InkFile) RelativePath() string { return f.rel }

// Value implements File.
func (f *InkFile) Value() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

// CompilerVersionDirty implements File.
func (f *InkFile) CompilerVersionDirty() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dirty
}

// ClearCompilerVersionDirty implements File.
func (f *InkFile) ClearCompilerVersionDirty() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dirty = false
}

// TakeIfDirty implements File.
func (f *InkFile) TakeIfDirty() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.dirty {
		return "", false
	}
	f.dirty = false
	return f.value, true
}

// MarkCompilerVersionDirty implements File.
func (f *InkFile) MarkCompilerVersionDirty() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dirty = true
}

// set replaces the text. Returns false if nothing changed.
func (f *InkFile) set(value string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.value == value && !f.dirty {
		return false
	}
	f.value = value
	f.dirty = true
	return true
}

// Workspace is an in-memory Project.
//
// New files start dirty: the compiler has never seen them, so the first
// compile instruction carries every file.
type Workspace struct {
	mu       sync.RWMutex
	main     string
	openFile string
	files    map[string]*InkFile
	ready    bool
}

// NewWorkspace creates an empty workspace whose root file is mainFile.
// The workspace is not ready until SetReady(true).
func NewWorkspace(mainFile string) *Workspace {
	mainFile = cleanRel(mainFile)
	return &Workspace{
		main:     mainFile,
		openFile: mainFile,
		files:    make(map[string]*InkFile),
	}
}

// MainFileName implements Project. Returns the base name of the main file.
func (w *Workspace) MainFileName() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return path.Base(w.main)
}

// MainPath returns the main file's path relative to the root.
func (w *Workspace) MainPath() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.main
}

// Files implements Project. Files are ordered by relative path.
func (w *Workspace) Files() []File {
	w.mu.RLock()
	defer w.mu.RUnlock()

	keys := make([]string, 0, len(w.files))
	for k := range w.files {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]File, 0, len(keys))
	for _, k := range keys {
		out = append(out, w.files[k])
	}
	return out
}

// File returns the file at rel, if present.
func (w *Workspace) File(rel string) (*InkFile, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	f, ok := w.files[cleanRel(rel)]
	return f, ok
}

// Ready implements Project.
func (w *Workspace) Ready() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.ready
}

// SetReady marks the project as loaded (or not).
func (w *Workspace) SetReady(ready bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ready = ready
}

// SetOpenFile records which file the editor shows.
func (w *Workspace) SetOpenFile(rel string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.openFile = cleanRel(rel)
}

// CountOpenFileLines implements Project. An empty file has zero lines.
func (w *Workspace) CountOpenFileLines() int {
	w.mu.RLock()
	f, ok := w.files[w.openFile]
	w.mu.RUnlock()
	if !ok {
		return 0
	}
	return countLines(f.Value())
}

// SetValue stores content for rel, adding the file if needed, and marks it
// dirty. Returns false if the content was unchanged and already delivered.
func (w *Workspace) SetValue(rel, content string) bool {
	rel = cleanRel(rel)

	w.mu.Lock()
	f, ok := w.files[rel]
	if !ok {
		w.files[rel] = &InkFile{rel: rel, value: content, dirty: true}
	}
	w.mu.Unlock()

	if !ok {
		return true
	}
	return f.set(content)
}

// Remove drops rel from the workspace. Returns false if it was absent.
func (w *Workspace) Remove(rel string) bool {
	rel = cleanRel(rel)
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.files[rel]; !ok {
		return false
	}
	delete(w.files, rel)
	return true
}

func cleanRel(rel string) string {
	rel = strings.ReplaceAll(rel, "\\", "/")
	return strings.TrimPrefix(path.Clean("/"+rel), "/")
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}
