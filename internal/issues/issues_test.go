package issues

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBatch() []Issue {
	return []Issue{
		{Filename: "main.ink", LineNumber: 3, Message: "unknown divert", Type: TypeError},
		{Filename: "act1.ink", LineNumber: 10, Message: "unused variable", Type: TypeWarning},
		{Filename: "main.ink", LineNumber: 9, Message: "write ending", Type: TypeTodo},
	}
}

func TestTracker_NewIsEmpty(t *testing.T) {
	tr := NewTracker()
	assert.Equal(t, 0, tr.Len())
	assert.Equal(t, -1, tr.Selected())

	_, ok := tr.Next()
	assert.False(t, ok)
	assert.Equal(t, -1, tr.Selected(), "next on empty list leaves selection alone")
}

func TestTracker_NextWraps(t *testing.T) {
	tr := NewTracker()
	tr.Replace(sampleBatch())

	var got []int
	for i := 0; i < 5; i++ {
		is, ok := tr.Next()
		require.True(t, ok)
		got = append(got, is.LineNumber)
	}
	assert.Equal(t, []int{3, 10, 9, 3, 10}, got)
	assert.Equal(t, 1, tr.Selected())
}

func TestTracker_ReplaceResetsSelection(t *testing.T) {
	tr := NewTracker()
	tr.Replace(sampleBatch())
	tr.Next()
	tr.Next()

	tr.Replace([]Issue{{Filename: "x.ink", Message: "m", Type: TypeError}})
	assert.Equal(t, -1, tr.Selected())
	assert.Equal(t, 1, tr.Len())

	is, ok := tr.Next()
	require.True(t, ok)
	assert.Equal(t, "x.ink", is.Filename)
}

func TestTracker_ReplaceCopies(t *testing.T) {
	tr := NewTracker()
	batch := sampleBatch()
	tr.Replace(batch)
	batch[0].Message = "mutated"

	assert.Equal(t, "unknown divert", tr.All()[0].Message)
}

func TestTracker_ForFile(t *testing.T) {
	tr := NewTracker()
	tr.Replace(sampleBatch())

	mainIssues := tr.ForFile("main.ink")
	require.Len(t, mainIssues, 2)
	assert.Equal(t, 3, mainIssues[0].LineNumber)
	assert.Equal(t, 9, mainIssues[1].LineNumber)

	assert.Empty(t, tr.ForFile("missing.ink"))
}

func TestTracker_Clear(t *testing.T) {
	tr := NewTracker()
	tr.Replace(sampleBatch())
	tr.Next()

	tr.Clear()
	assert.Equal(t, 0, tr.Len())
	assert.Equal(t, -1, tr.Selected())
}
