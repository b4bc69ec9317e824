// Package config loads inklive runtime settings.
//
// Settings come from INKLIVE_* environment variables with built-in
// defaults; the CLI then overrides individual fields from flags.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Replay pacing modes.
const (
	// PacingAuto: the live compiler submits recorded choices itself.
	PacingAuto = "auto"
	// PacingSink: the UI is prompted on replay turns and resumes them.
	PacingSink = "sink"
)

// Config controls timing, replay, and the wiring of the run command.
type Config struct {
	// TickInterval is how often the debounce scheduler checks for work.
	TickInterval time.Duration `env:"INKLIVE_TICK_INTERVAL" envDefault:"250ms"`
	// QuietPeriod is how long editing must pause before a recompile.
	QuietPeriod time.Duration `env:"INKLIVE_QUIET_PERIOD" envDefault:"500ms"`
	// InitialDelay schedules the first compile after startup.
	InitialDelay time.Duration `env:"INKLIVE_INITIAL_DELAY" envDefault:"1s"`
	ReplayPacing string        `env:"INKLIVE_REPLAY_PACING" envDefault:"auto"`
	Lang         string        `env:"INKLIVE_LANG" envDefault:"en"`
	// Supervisor is the command line of the compiler supervisor.
	Supervisor string `env:"INKLIVE_SUPERVISOR"`
	// Journal is the optional SQLite journal path.
	Journal string `env:"INKLIVE_JOURNAL"`
}

// Default returns the built-in configuration, ignoring the environment.
func Default() Config {
	return Config{
		TickInterval: 250 * time.Millisecond,
		QuietPeriod:  500 * time.Millisecond,
		InitialDelay: time.Second,
		ReplayPacing: PacingAuto,
		Lang:         "en",
	}
}

// Load parses the environment on top of the defaults and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the live compiler cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("tick interval must be positive, got %s", c.TickInterval))
	}
	if c.QuietPeriod <= 0 {
		errs = append(errs, fmt.Errorf("quiet period must be positive, got %s", c.QuietPeriod))
	}
	if c.InitialDelay < 0 {
		errs = append(errs, fmt.Errorf("initial delay must not be negative, got %s", c.InitialDelay))
	}
	if c.ReplayPacing != PacingAuto && c.ReplayPacing != PacingSink {
		errs = append(errs, fmt.Errorf("replay pacing must be %q or %q, got %q", PacingAuto, PacingSink, c.ReplayPacing))
	}
	return errors.Join(errs...)
}
