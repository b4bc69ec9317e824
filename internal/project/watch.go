package project

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// EditFunc is called after a watched file's content changed in the workspace.
type EditFunc func(rel string)

// Watcher mirrors on-disk edits into a Workspace.
//
// Each write to a file the manifest includes is read back, stored with
// Workspace.SetValue (which marks it dirty), and reported through onEdit.
// Debouncing is the live compiler's job, not the watcher's: every change
// is reported.
type Watcher struct {
	root     string
	ws       *Workspace
	manifest Manifest
	onEdit   EditFunc
	logger   *slog.Logger

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewWatcher creates a watcher for the project rooted at root.
// onEdit may be nil.
func NewWatcher(root string, ws *Workspace, m Manifest, onEdit EditFunc) *Watcher {
	if onEdit == nil {
		onEdit = func(string) {}
	}
	return &Watcher{
		root:     root,
		ws:       ws,
		manifest: m,
		onEdit:   onEdit,
		logger:   slog.Default(),
	}
}

// Start registers every non-hidden directory under root and starts the
// event goroutine. Calling Start on a running watcher is a no-op.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := addTree(fsw, w.root); err != nil {
		fsw.Close()
		return err
	}

	w.fsw = fsw
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	go w.run(ctx, fsw, w.stopCh, w.doneCh)

	w.logger.Info("watching project", "root", w.root)
	return nil
}

// Stop ends the event goroutine and waits for it to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	stopCh, doneCh, fsw := w.stopCh, w.doneCh, w.fsw
	w.mu.Unlock()

	close(stopCh)
	<-doneCh
	if err := fsw.Close(); err != nil {
		w.logger.Error("closing watcher", "error", err)
	}
}

// Wait blocks until the event goroutine exits, either from Stop or from
// ctx cancellation. Returns immediately if the watcher never started.
func (w *Watcher) Wait() {
	w.mu.Lock()
	doneCh := w.doneCh
	w.mu.Unlock()
	if doneCh != nil {
		<-doneCh
	}
}

func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handle(fsw, ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("watch error", "error", err)
		}
	}
}

func (w *Watcher) handle(fsw *fsnotify.Watcher, ev fsnotify.Event) {
	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := addTree(fsw, ev.Name); err != nil {
				w.logger.Warn("watch new directory", "path", ev.Name, "error", err)
			}
			return
		}
	}

	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil || !w.manifest.Matches(rel) {
		return
	}
	rel = filepath.ToSlash(rel)

	switch {
	case ev.Op&(fsnotify.Write|fsnotify.Create) != 0:
		data, err := os.ReadFile(ev.Name)
		if err != nil {
			// Editors that save via rename can remove the file between
			// the event and the read; the follow-up Create covers it.
			if !errors.Is(err, os.ErrNotExist) {
				w.logger.Warn("read changed file", "path", rel, "error", err)
			}
			return
		}
		if w.ws.SetValue(rel, string(data)) {
			w.logger.Debug("file changed", "path", rel)
			w.onEdit(rel)
		}
	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		w.logger.Debug("file removed", "path", rel)
	}
}

func addTree(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := fsw.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		return nil
	})
}
