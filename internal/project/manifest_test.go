package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseManifest_Defaults(t *testing.T) {
	m, err := ParseManifest("inklive.cue", []byte(""))
	require.NoError(t, err)
	assert.Equal(t, "main.ink", m.Main)
	assert.Equal(t, []string{"*.ink"}, m.Include)
	assert.Empty(t, m.Exclude)
}

func TestParseManifest_Fields(t *testing.T) {
	src := `
main: "story.ink"
include: ["*.ink", "*.inkl"]
exclude: ["scratch_*.ink"]
`
	m, err := ParseManifest("inklive.cue", []byte(src))
	require.NoError(t, err)
	assert.Equal(t, "story.ink", m.Main)
	assert.Equal(t, []string{"*.ink", "*.inkl"}, m.Include)
	assert.Equal(t, []string{"scratch_*.ink"}, m.Exclude)
}

func TestParseManifest_RejectsNonInkMain(t *testing.T) {
	_, err := ParseManifest("inklive.cue", []byte(`main: "story.txt"`))
	require.Error(t, err)

	var me *ManifestError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, "inklive.cue", me.Path)
}

func TestParseManifest_RejectsSyntaxError(t *testing.T) {
	_, err := ParseManifest("inklive.cue", []byte(`main: `))
	assert.Error(t, err)
}

func TestParseManifest_RejectsWrongType(t *testing.T) {
	_, err := ParseManifest("inklive.cue", []byte(`include: "*.ink"`))
	assert.Error(t, err)
}

func TestLoadManifest_Missing(t *testing.T) {
	m, err := LoadManifest(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultManifest(), m)
}

func TestLoadManifest_FromDisk(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFile), []byte(`main: "root.ink"`), 0o644))

	m, err := LoadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, "root.ink", m.Main)
}

func TestManifest_Matches(t *testing.T) {
	m := Manifest{Include: []string{"*.ink"}, Exclude: []string{"scratch_*"}}

	assert.True(t, m.Matches("main.ink"))
	assert.True(t, m.Matches("act1/intro.ink"))
	assert.False(t, m.Matches("notes.txt"))
	assert.False(t, m.Matches("scratch_idea.ink"))
	assert.False(t, Manifest{Include: []string{"["}}.Matches("main.ink"), "bad pattern never matches")
}
