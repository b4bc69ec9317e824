package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/roach88/inklive/internal/project"
)

// LoadResult is a project loaded from disk, ready to hand to the live compiler.
type LoadResult struct {
	Dir       string
	Workspace *project.Workspace
	Manifest  project.Manifest
}

// LoadError represents an error that occurred while loading a project.
type LoadError struct {
	Code    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// LoadProject reads the manifest and ink files of the project in dir.
//
// Every failure is a *LoadError whose Code tells a missing directory, a bad
// manifest, and a missing main file apart.
func LoadProject(dir string) (*LoadResult, error) {
	info, err := os.Stat(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("project directory not found: %s", dir)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: "cannot read project directory", Err: err}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	m, err := project.LoadManifest(dir)
	if err != nil {
		var me *project.ManifestError
		if errors.As(err, &me) {
			return nil, &LoadError{Code: ErrCodeManifest, Message: fmt.Sprintf("invalid %s", project.ManifestFile), Err: me.Err}
		}
		return nil, &LoadError{Code: ErrCodeManifest, Message: "cannot load manifest", Err: err}
	}

	if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(m.Main))); errors.Is(err, os.ErrNotExist) {
		return nil, &LoadError{Code: ErrCodeMainMissing, Message: fmt.Sprintf("main file %q not found in %s", m.Main, dir)}
	}

	ws, m, err := project.LoadDir(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: "cannot load project", Err: err}
	}

	return &LoadResult{Dir: dir, Workspace: ws, Manifest: m}, nil
}

// loadErrorCode returns the code of a *LoadError, or ErrCodeGeneric.
func loadErrorCode(err error) string {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Code
	}
	return ErrCodeGeneric
}
