package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// ManifestFile is the optional project manifest at the project root.
const ManifestFile = "inklive.cue"

// manifestSchema constrains inklive.cue. Unset fields take the defaults.
const manifestSchema = `
main:    string & =~"\\.ink$" | *"main.ink"
include: [...string] | *["*.ink"]
exclude: [...string] | *[]
`

// Manifest describes which files make up a project.
//
// Example inklive.cue:
//
//	main: "story.ink"
//	include: ["*.ink"]
//	exclude: ["scratch_*.ink"]
type Manifest struct {
	Main    string   `json:"main"`
	Include []string `json:"include"`
	Exclude []string `json:"exclude"`
}

// DefaultManifest is used when a project has no inklive.cue.
func DefaultManifest() Manifest {
	return Manifest{
		Main:    "main.ink",
		Include: []string{"*.ink"},
	}
}

// ManifestError reports an invalid manifest.
type ManifestError struct {
	Path string
	Err  error
}

func (e *ManifestError) Error() string {
	return fmt.Sprintf("manifest %s: %v", e.Path, e.Err)
}

func (e *ManifestError) Unwrap() error {
	return e.Err
}

// LoadManifest reads dir/inklive.cue, validated against the manifest schema.
// A missing manifest is not an error: DefaultManifest is returned.
func LoadManifest(dir string) (Manifest, error) {
	p := filepath.Join(dir, ManifestFile)
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultManifest(), nil
	}
	if err != nil {
		return Manifest{}, &ManifestError{Path: p, Err: err}
	}
	return ParseManifest(p, data)
}

// ParseManifest compiles manifest source. filename is used in error positions.
func ParseManifest(filename string, data []byte) (Manifest, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(manifestSchema, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Manifest{}, &ManifestError{Path: filename, Err: fmt.Errorf("schema: %w", err)}
	}

	user := ctx.CompileBytes(data, cue.Filename(filename))
	if err := user.Err(); err != nil {
		return Manifest{}, &ManifestError{Path: filename, Err: err}
	}

	v := schema.Unify(user)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return Manifest{}, &ManifestError{Path: filename, Err: err}
	}

	var m Manifest
	if err := v.Decode(&m); err != nil {
		return Manifest{}, &ManifestError{Path: filename, Err: fmt.Errorf("decode: %w", err)}
	}

	def := DefaultManifest()
	if m.Main == "" {
		m.Main = def.Main
	}
	if len(m.Include) == 0 {
		m.Include = def.Include
	}
	return m, nil
}

// Matches reports whether rel belongs to the project. Patterns are matched
// against the base name with filepath.Match; an invalid pattern never matches.
func (m Manifest) Matches(rel string) bool {
	base := filepath.Base(rel)
	if !matchAny(m.Include, base) {
		return false
	}
	return !matchAny(m.Exclude, base)
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, err := filepath.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}
