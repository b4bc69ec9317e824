package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/inklive/internal/testutil"
)

func runValidateCmd(t *testing.T, format, dir string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{dir})
	err := cmd.Execute()
	return buf.String(), err
}

func TestValidateValidProject(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"main.ink":  "INCLUDE intro.ink\n-> intro\n",
		"intro.ink": "== intro ==\nOnce upon a time.\n-> END\n",
	})

	out, err := runValidateCmd(t, "text", dir)
	require.NoError(t, err)
	assert.Equal(t, "✓ Project valid: main.ink (2 file(s))\n", out)
}

func TestValidateBadInclude(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"main.ink": "Hello.\nINCLUDE missing.ink // chapter two\n",
	})

	out, err := runValidateCmd(t, "text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "validation failed with 1 error(s)")
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "main.ink:2 error\n  E103: INCLUDE missing.ink: no such file in the project")
}

func TestValidateWarningsOnly(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"main.ink":    "INCLUDE empty.ink\nHello.\n",
		"empty.ink":   "  \n",
		"scratch.ink": "Notes.\n",
	})

	out, err := runValidateCmd(t, "json", dir)
	require.NoError(t, err, "warnings do not fail validation")

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, []string{"empty.ink", "main.ink", "scratch.ink"}, resp.Data.Files)
	assert.Equal(t, []ValidationProblem{
		{Severity: SeverityWarning, Code: ErrCodeEmptyFile, File: "empty.ink", Message: "file is empty"},
		{Severity: SeverityWarning, Code: ErrCodeUnreachable, File: "scratch.ink", Message: "not included from main.ink"},
	}, resp.Data.Problems)
}

func TestValidateMissingMain(t *testing.T) {
	dir := writeProject(t, map[string]string{"other.ink": "Hello.\n"})

	out, err := runValidateCmd(t, "json", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeMainMissing, resp.Error.Code)
}

func TestValidateBadManifest(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"inklive.cue": `main: "story.txt"`,
		"main.ink":    "Hello.\n",
	})

	out, err := runValidateCmd(t, "text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E003]: E003: invalid inklive.cue")
}

func TestValidateMissingDir(t *testing.T) {
	out, err := runValidateCmd(t, "text", "does-not-exist")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E002]")
}

func TestCheckProject_IncludeCycle(t *testing.T) {
	ws := testutil.NewWorkspace("main.ink", map[string]string{
		"main.ink": "INCLUDE a.ink\n",
		"a.ink":    "INCLUDE b.ink\n",
		"b.ink":    "INCLUDE a.ink\nINCLUDE main.ink\n",
	})

	assert.Empty(t, CheckProject(ws))
}

func TestParseIncludes(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []include
	}{
		{"none", "Hello.\n* Go\n", nil},
		{"simple", "INCLUDE a.ink\n", []include{{name: "a.ink", line: 1}}},
		{"indented_tab", "Hi\n\tINCLUDE\tb.ink\n", []include{{name: "b.ink", line: 2}}},
		{"comment", "INCLUDE c.ink // later\n", []include{{name: "c.ink", line: 1}}},
		{"not_a_keyword", "INCLUDEd text\nINCLUDE\n", nil},
		{"several", "INCLUDE a.ink\n\nINCLUDE sub/b.ink\n", []include{{name: "a.ink", line: 1}, {name: "sub/b.ink", line: 3}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseIncludes(tt.src))
		})
	}
}
