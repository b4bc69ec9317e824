package project

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// LoadDir builds a ready Workspace from the ink files under dir.
//
// Hidden directories (".git", ".inklive") are skipped. The main file named
// by the manifest must exist.
func LoadDir(dir string) (*Workspace, Manifest, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, Manifest{}, fmt.Errorf("project directory: %w", err)
	}
	if !info.IsDir() {
		return nil, Manifest{}, fmt.Errorf("not a directory: %s", dir)
	}

	m, err := LoadManifest(dir)
	if err != nil {
		return nil, Manifest{}, err
	}

	ws := NewWorkspace(m.Main)
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		if !m.Matches(rel) {
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("read %s: %w", rel, err)
		}
		ws.SetValue(filepath.ToSlash(rel), string(data))
		return nil
	})
	if err != nil {
		return nil, Manifest{}, fmt.Errorf("scan project: %w", err)
	}

	if _, ok := ws.File(m.Main); !ok {
		return nil, Manifest{}, fmt.Errorf("main file %q not found in %s", m.Main, dir)
	}

	ws.SetReady(true)
	slog.Debug("project loaded", "dir", dir, "main", m.Main, "files", len(ws.Files()))
	return ws, m, nil
}
