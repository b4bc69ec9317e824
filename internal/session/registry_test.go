package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_SlotsAreIndependent(t *testing.T) {
	g := NewGenerator()
	var r Registry

	play := g.Next("ns", PurposePlay)
	export := g.Next("ns", PurposeExport)
	stats := g.Next("ns", PurposeStats)
	r.Set(play)
	r.Set(export)
	r.Set(stats)

	assert.True(t, r.IsPlay(play.String()))
	assert.False(t, r.IsPlay(export.String()))
	assert.True(t, r.IsExport(export.String()))
	assert.True(t, r.IsStats(stats.String()))
	assert.False(t, r.IsStats(play.String()))
}

func TestRegistry_IsPlayOrExport(t *testing.T) {
	g := NewGenerator()
	var r Registry

	play := g.Next("ns", PurposePlay)
	export := g.Next("ns", PurposeExport)
	stats := g.Next("ns", PurposeStats)
	r.Set(play)
	r.Set(export)
	r.Set(stats)

	assert.True(t, r.IsPlayOrExport(play.String()))
	assert.True(t, r.IsPlayOrExport(export.String()))
	assert.False(t, r.IsPlayOrExport(stats.String()))
	assert.False(t, r.IsPlayOrExport("ns_999"))
}

func TestRegistry_SetReturnsPrevious(t *testing.T) {
	g := NewGenerator()
	var r Registry

	first := g.Next("ns", PurposePlay)
	second := g.Next("ns", PurposePlay)

	assert.True(t, r.Set(first).IsZero())
	assert.Equal(t, first, r.Set(second))
	assert.False(t, r.IsPlay(first.String()), "superseded play session is stale")
	assert.True(t, r.IsPlay(second.String()))
}

func TestRegistry_ClearAndReset(t *testing.T) {
	g := NewGenerator()
	var r Registry

	play := g.Next("ns", PurposePlay)
	stats := g.Next("ns", PurposeStats)
	r.Set(play)
	r.Set(stats)

	r.Clear(PurposeStats)
	assert.True(t, r.Stats().IsZero())
	assert.Equal(t, play, r.Play())

	r.Reset()
	assert.True(t, r.Play().IsZero())
	assert.False(t, r.IsPlay(play.String()))
}

func TestRegistry_UnknownPurposeIgnored(t *testing.T) {
	var r Registry
	prev := r.Set(ID{value: "x", purpose: Purpose(99)})
	assert.True(t, prev.IsZero())
	assert.True(t, r.Play().IsZero())
	assert.True(t, r.Export().IsZero())
	assert.True(t, r.Stats().IsZero())
	r.Clear(Purpose(99))
}
