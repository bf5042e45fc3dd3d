// Package config reads evrule process settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds process-wide settings. CLI flags override these.
type Config struct {
	// DB is the firing log path. Empty disables recording.
	DB string `env:"EVRULE_DB"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"EVRULE_LOG_LEVEL" envDefault:"warn"`
	// MaxChainSteps bounds the firings of one root Fire.
	MaxChainSteps int `env:"EVRULE_MAX_CHAIN_STEPS" envDefault:"64"`
	// Metrics is a path the Prometheus text exposition is written to after
	// a run. Empty disables metrics.
	Metrics string `env:"EVRULE_METRICS"`
	// Scripts enables Lua Script effects.
	Scripts bool `env:"EVRULE_SCRIPTS" envDefault:"true"`
}

// Load parses Config from the environment and validates it.
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

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.MaxChainSteps < 1 {
		return fmt.Errorf("EVRULE_MAX_CHAIN_STEPS must be positive, got %d", c.MaxChainSteps)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelWarn, fmt.Errorf("EVRULE_LOG_LEVEL: %w", err)
	}
	return lvl, nil
}
