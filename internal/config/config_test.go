package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("INKLIVE_TICK_INTERVAL", "100ms")
	t.Setenv("INKLIVE_QUIET_PERIOD", "2s")
	t.Setenv("INKLIVE_REPLAY_PACING", "sink")
	t.Setenv("INKLIVE_LANG", "fr")
	t.Setenv("INKLIVE_SUPERVISOR", "inkjs-supervisor --stdio")
	t.Setenv("INKLIVE_JOURNAL", "/tmp/journal.db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 100*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, 2*time.Second, cfg.QuietPeriod)
	assert.Equal(t, time.Second, cfg.InitialDelay)
	assert.Equal(t, PacingSink, cfg.ReplayPacing)
	assert.Equal(t, "fr", cfg.Lang)
	assert.Equal(t, "inkjs-supervisor --stdio", cfg.Supervisor)
	assert.Equal(t, "/tmp/journal.db", cfg.Journal)
}

func TestLoad_BadDuration(t *testing.T) {
	t.Setenv("INKLIVE_QUIET_PERIOD", "soon")
	_, err := Load()
	assert.ErrorContains(t, err, "parse env")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.TickInterval = 0
	cfg.QuietPeriod = -time.Second
	cfg.InitialDelay = -1
	cfg.ReplayPacing = "manual"

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "tick interval")
	assert.ErrorContains(t, err, "quiet period")
	assert.ErrorContains(t, err, "initial delay")
	assert.ErrorContains(t, err, `"manual"`)

	assert.NoError(t, Default().Validate())
}
