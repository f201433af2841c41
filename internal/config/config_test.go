package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ConfirmTimeout != 60*time.Second {
		t.Fatalf("expected 60s confirm timeout, got %s", cfg.ConfirmTimeout)
	}
	if cfg.PollInterval != 500*time.Millisecond {
		t.Fatalf("expected 500ms poll interval, got %s", cfg.PollInterval)
	}
	if cfg.Network != "127.0.0.1:7777" {
		t.Fatalf("unexpected default network %q", cfg.Network)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SHUFFLE_HOME", "/srv/shuffle")
	t.Setenv("SHUFFLE_CONFIRM_TIMEOUT", "5s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ConfirmTimeout != 5*time.Second {
		t.Fatalf("expected 5s, got %s", cfg.ConfirmTimeout)
	}
	home, err := cfg.HomeDir()
	if err != nil || home != "/srv/shuffle" {
		t.Fatalf("HomeDir = %q, %v", home, err)
	}
}

func TestLoadError(t *testing.T) {
	t.Setenv("SHUFFLE_POLL_INTERVAL", "soon")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}
