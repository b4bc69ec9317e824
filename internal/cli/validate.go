package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/inklive/internal/project"
)

// Problem severities.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// ValidationProblem is one finding about a project.
type ValidationProblem struct {
	Severity string `json:"severity"`
	Code     string `json:"code"`
	File     string `json:"file"`
	Line     int    `json:"line,omitempty"`
	Message  string `json:"message"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                `json:"valid"`
	Main     string              `json:"main"`
	Files    []string            `json:"files"`
	Problems []ValidationProblem `json:"problems,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <project-dir>",
		Short: "Check a project without compiling it",
		Long: `Load an ink project the way "inklive run" does and report problems.

Checks that inklive.cue (if present) is valid and the main file exists,
then follows INCLUDE lines from the main file. An INCLUDE of a file that
is not part of the project is an error. Empty files and files nothing
includes are warnings.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	proj, err := LoadProject(dir)
	if err != nil {
		_ = formatter.Error(loadErrorCode(err), err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load project", err)
	}

	formatter.VerboseLog("Loaded %d ink file(s) from %s", len(proj.Workspace.Files()), dir)

	result := ValidationResult{
		Main:     proj.Workspace.MainPath(),
		Problems: CheckProject(proj.Workspace),
	}
	for _, f := range proj.Workspace.Files() {
		result.Files = append(result.Files, f.RelativePath())
	}
	result.Valid = countSeverity(result.Problems, SeverityError) == 0

	return outputValidation(formatter, result)
}

// CheckProject follows INCLUDE lines from the main file and reports
// broken includes, empty files, and files nothing includes.
func CheckProject(ws *project.Workspace) []ValidationProblem {
	var problems []ValidationProblem

	byPath := make(map[string]project.File)
	for _, f := range ws.Files() {
		byPath[f.RelativePath()] = f
	}

	root := path.Dir(ws.MainPath())
	reached := map[string]bool{ws.MainPath(): true}
	queue := []string{ws.MainPath()}
	for len(queue) > 0 {
		rel := queue[0]
		queue = queue[1:]

		f, ok := byPath[rel]
		if !ok {
			continue
		}
		for _, inc := range parseIncludes(f.Value()) {
			target := path.Join(root, inc.name)
			if _, ok := byPath[target]; !ok {
				problems = append(problems, ValidationProblem{
					Severity: SeverityError,
					Code:     ErrCodeBadInclude,
					File:     rel,
					Line:     inc.line,
					Message:  fmt.Sprintf("INCLUDE %s: no such file in the project", inc.name),
				})
				continue
			}
			if !reached[target] {
				reached[target] = true
				queue = append(queue, target)
			}
		}
	}

	for _, f := range ws.Files() {
		rel := f.RelativePath()
		if strings.TrimSpace(f.Value()) == "" {
			problems = append(problems, ValidationProblem{
				Severity: SeverityWarning,
				Code:     ErrCodeEmptyFile,
				File:     rel,
				Message:  "file is empty",
			})
		}
		if !reached[rel] {
			problems = append(problems, ValidationProblem{
				Severity: SeverityWarning,
				Code:     ErrCodeUnreachable,
				File:     rel,
				Message:  fmt.Sprintf("not included from %s", ws.MainPath()),
			})
		}
	}

	return problems
}

type include struct {
	name string
	line int
}

// parseIncludes returns the INCLUDE lines of ink source, in order.
// Trailing // comments are dropped.
func parseIncludes(src string) []include {
	var out []include
	sc := bufio.NewScanner(strings.NewReader(src))
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		rest, ok := strings.CutPrefix(line, "INCLUDE")
		if !ok || (rest != "" && rest[0] != ' ' && rest[0] != '\t') {
			continue
		}
		if i := strings.Index(rest, "//"); i >= 0 {
			rest = rest[:i]
		}
		if name := strings.TrimSpace(rest); name != "" {
			out = append(out, include{name: name, line: n})
		}
	}
	return out
}

func countSeverity(problems []ValidationProblem, severity string) int {
	n := 0
	for _, p := range problems {
		if p.Severity == severity {
			n++
		}
	}
	return n
}

// outputValidation writes the result. Errors are a validation failure
// (exit code 1); warnings alone are not.
func outputValidation(formatter *OutputFormatter, result ValidationResult) error {
	errCount := countSeverity(result.Problems, SeverityError)

	if formatter.Format == "json" {
		response := CLIResponse{Status: "ok", Data: result}
		if errCount > 0 {
			response.Status = "error"
			first := firstError(result.Problems)
			response.Error = &CLIError{Code: first.Code, Message: first.Message}
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
	} else {
		if errCount > 0 {
			fmt.Fprintln(formatter.Writer, "✗ Validation failed")
		} else {
			fmt.Fprintf(formatter.Writer, "✓ Project valid: %s (%d file(s))\n", result.Main, len(result.Files))
		}
		if len(result.Problems) > 0 {
			fmt.Fprintln(formatter.Writer)
		}
		for _, p := range result.Problems {
			loc := p.File
			if p.Line > 0 {
				loc = fmt.Sprintf("%s:%d", p.File, p.Line)
			}
			fmt.Fprintf(formatter.Writer, "%s %s\n  %s: %s\n", loc, p.Severity, p.Code, p.Message)
		}
	}

	if errCount > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", errCount))
	}
	return nil
}

func firstError(problems []ValidationProblem) ValidationProblem {
	for _, p := range problems {
		if p.Severity == SeverityError {
			return p
		}
	}
	return ValidationProblem{}
}
