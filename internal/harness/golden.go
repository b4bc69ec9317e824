package harness

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// GoldenDir is where golden traces live, relative to the test's package.
const GoldenDir = "testdata/golden"

// Render writes the scenario trace and outcomes in golden file format:
//
//	scenario: replay_after_edit
//	trace:
//	001 sink resetting main_ink_test000_1
//	002 out  compile main_ink_test000_1 play files=1
//	outcomes:
//	export ok out/main.json
//
// The outcomes section is omitted when there are none.
func Render(name string, result *Result) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "scenario: %s\n", name)
	buf.WriteString("trace:\n")
	for _, ev := range result.Trace {
		fmt.Fprintf(&buf, "%s\n", ev)
	}
	if len(result.Outcomes) > 0 {
		buf.WriteString("outcomes:\n")
		for _, o := range result.Outcomes {
			fmt.Fprintf(&buf, "%s\n", o)
		}
	}
	return buf.Bytes()
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares the given result's trace against a golden file.
// This is useful when you've already run a scenario and want to compare
// the result against a golden file without re-running.
func AssertGolden(t *testing.T, scenarioName string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, Render(scenarioName, result))
}
