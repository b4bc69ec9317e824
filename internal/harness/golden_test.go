package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScenarios_Golden runs every scenario in testdata/scenarios and
// compares its trace with testdata/golden/{name}.golden.
func TestScenarios_Golden(t *testing.T) {
	scenarios, err := LoadDir("testdata/scenarios")
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	for _, scenario := range scenarios {
		t.Run(scenario.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			require.True(t, result.Pass, "scenario assertions failed: %v", result.Errors)
		})
	}
}

func TestRender(t *testing.T) {
	result := NewResult()
	result.Trace = []TraceEvent{
		{Seq: 1, Direction: "sink", Detail: "resetting main_ink_test000_1"},
		{Seq: 2, Direction: "out", Detail: "compile main_ink_test000_1 play files=1"},
		{Seq: 3, Direction: "in", Detail: "compile-complete main_ink_test000_1"},
	}

	assert.Equal(t, "scenario: render\n"+
		"trace:\n"+
		"001 sink resetting main_ink_test000_1\n"+
		"002 out  compile main_ink_test000_1 play files=1\n"+
		"003 in   compile-complete main_ink_test000_1\n", string(Render("render", result)))

	result.AddOutcome("export ok %s", "out/main.json")
	assert.Contains(t, string(Render("render", result)), "outcomes:\nexport ok out/main.json\n")
}
