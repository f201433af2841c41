// Package config loads process settings for the shuffle binaries from the
// environment. Command-line flags override these values.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
)

type Env struct {
	// Home is the directory holding .shuffle. Empty means the user's home.
	Home           string        `env:"SHUFFLE_HOME"`
	Network        string        `env:"SHUFFLE_NETWORK" envDefault:"127.0.0.1:7777"`
	ConfirmTimeout time.Duration `env:"SHUFFLE_CONFIRM_TIMEOUT" envDefault:"60s"`
	PollInterval   time.Duration `env:"SHUFFLE_POLL_INTERVAL" envDefault:"500ms"`
	LogLevel       string        `env:"SHUFFLE_LOG_LEVEL" envDefault:"warn"`
	LogFormat      string        `env:"SHUFFLE_LOG_FORMAT" envDefault:"console"`
}

// Load parses Env from the process environment.
func Load() (Env, error) {
	var cfg Env
	if err := env.Parse(&cfg); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// HomeDir returns Home, or the current user's home directory when unset.
func (e Env) HomeDir() (string, error) {
	if e.Home != "" {
		return e.Home, nil
	}
	dir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return dir, nil
}
