package live

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/inklive/internal/session"
)

func TestReplayState_Lifecycle(t *testing.T) {
	r := newReplayState()
	assert.Equal(t, -1, r.cursor)
	assert.Nil(t, r.sequence())

	r.restart()
	r.record(2)
	r.record(0)
	assert.Equal(t, []int{2, 0}, r.sequence())
	assert.Equal(t, 2, r.cursor)

	r.restart()
	assert.True(t, r.replaying)
	assert.False(t, r.caughtUp())

	c, ok := r.next()
	require.True(t, ok)
	assert.Equal(t, 2, c)
	c, ok = r.next()
	require.True(t, ok)
	assert.Equal(t, 0, c)

	_, ok = r.next()
	assert.False(t, ok)
	assert.True(t, r.caughtUp())
}

func TestReplayState_SequenceIsCopied(t *testing.T) {
	r := newReplayState()
	r.record(1)
	seq := r.sequence()
	seq[0] = 99
	assert.Equal(t, []int{1}, r.sequence())
}

func TestReplayState_NextBeforeStart(t *testing.T) {
	r := newReplayState()
	r.seq = []int{1}
	_, ok := r.next()
	assert.False(t, ok, "cursor -1 never indexes the sequence")
}

func TestReplayState_DropLastAndClear(t *testing.T) {
	r := newReplayState()
	r.dropLast()
	assert.Empty(t, r.seq)

	r.record(1)
	r.record(2)
	r.dropLast()
	assert.Equal(t, []int{1}, r.sequence())

	r.clear()
	assert.Nil(t, r.sequence())
	assert.Equal(t, -1, r.cursor)
}

func TestReplayState_Abandon(t *testing.T) {
	r := newReplayState()
	assert.False(t, r.abandon())
	r.restart()
	assert.True(t, r.abandon())
	assert.False(t, r.abandon())
}

func TestSlot_PutTakeDrain(t *testing.T) {
	gen := session.NewGenerator()
	a := gen.Next("ns", session.PurposePlay)
	b := gen.Next("ns", session.PurposePlay)

	var s slot[string]
	_, ok := s.take(a.String())
	assert.False(t, ok, "empty slot")

	_, replaced := s.put(a, "first")
	assert.False(t, replaced)

	prev, replaced := s.put(b, "second")
	assert.True(t, replaced)
	assert.Equal(t, "first", prev)

	_, ok = s.take(a.String())
	assert.False(t, ok, "superseded session")

	cb, ok := s.take(b.String())
	require.True(t, ok)
	assert.Equal(t, "second", cb)

	_, ok = s.drain()
	assert.False(t, ok, "taken callbacks leave the slot empty")
	s.put(a, "third")
	cb, ok = s.drain()
	require.True(t, ok)
	assert.Equal(t, "third", cb)
}
