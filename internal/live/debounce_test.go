package live

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return t0.Add(time.Duration(ms) * time.Millisecond)
}

func TestScheduler_NothingDueInitially(t *testing.T) {
	s := NewScheduler(500 * time.Millisecond)
	assert.False(t, s.Due(at(0)))
	assert.False(t, s.Due(at(100000)))
}

func TestScheduler_QuietPeriodIsStrict(t *testing.T) {
	s := NewScheduler(500 * time.Millisecond)
	s.SetEdited(at(0))

	assert.False(t, s.Due(at(250)))
	assert.False(t, s.Due(at(500)), "exactly the quiet period is not enough")
	assert.True(t, s.Due(at(501)))
}

func TestScheduler_EditsDeferReload(t *testing.T) {
	s := NewScheduler(500 * time.Millisecond)
	s.SetEdited(at(0))
	s.SetEdited(at(400))

	assert.False(t, s.Due(at(750)))
	assert.True(t, s.Due(at(1000)))
}

func TestScheduler_RequestReload(t *testing.T) {
	s := NewScheduler(500 * time.Millisecond)
	s.RequestReload()
	assert.True(t, s.Pending())
	assert.True(t, s.Due(at(0)))

	s.Reloaded()
	assert.False(t, s.Pending())
	assert.False(t, s.Due(at(0)))
}

func TestScheduler_InitialReload(t *testing.T) {
	s := NewScheduler(500 * time.Millisecond)
	s.Start(at(0), time.Second)

	assert.False(t, s.Due(at(750)))
	assert.True(t, s.Due(at(1000)))
	assert.True(t, s.Due(at(1250)), "stays due until a reload happens")

	s.Reloaded()
	assert.False(t, s.Due(at(1500)))
}

func TestScheduler_AnyReloadSatisfiesInitial(t *testing.T) {
	s := NewScheduler(500 * time.Millisecond)
	s.Start(at(0), time.Second)
	s.RequestReload()
	s.Reloaded()

	assert.False(t, s.Due(at(1000)))
}

func TestScheduler_ReloadedClearsEdit(t *testing.T) {
	s := NewScheduler(500 * time.Millisecond)
	s.SetEdited(at(0))
	assert.True(t, s.Due(at(600)))

	s.Reloaded()
	assert.False(t, s.Due(at(5000)))
}

func TestScheduler_Reset(t *testing.T) {
	s := NewScheduler(500 * time.Millisecond)
	s.Start(at(0), time.Second)
	s.SetEdited(at(0))
	s.RequestReload()

	s.Reset()
	assert.False(t, s.Due(at(5000)))

	// The quiet period survives a reset.
	s.SetEdited(at(5000))
	assert.False(t, s.Due(at(5500)))
	assert.True(t, s.Due(at(5501)))
}
