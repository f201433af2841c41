// Package nodeconfig reads and writes the local development node's
// node.yaml.
package nodeconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultChainID        uint8 = 4
	DefaultGRPCListen           = "127.0.0.1:7777"
	DefaultConfirmDelay         = time.Second
	DefaultInitialBalance       = 1_000_000_000
)

type Config struct {
	ChainID        uint8         `yaml:"chain-id"`
	GRPCListen     string        `yaml:"grpc-listen"`
	ConfirmDelay   time.Duration `yaml:"confirm-delay"`
	InitialBalance uint64        `yaml:"initial-balance"`
	// CASDir persists admitted transactions; empty keeps them in memory.
	CASDir string `yaml:"cas-dir,omitempty"`
}

func Default() Config {
	return Config{
		ChainID:        DefaultChainID,
		GRPCListen:     DefaultGRPCListen,
		ConfirmDelay:   DefaultConfirmDelay,
		InitialBalance: DefaultInitialBalance,
	}
}

// Load reads path, filling missing fields from Default.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return Config{}, fmt.Errorf("nodeconfig: parse %s: %w", path, err)
	}
	cfg := Default()
	merge(&cfg, parsed)
	return cfg, cfg.Validate()
}

func merge(dst *Config, src Config) {
	if src.ChainID != 0 {
		dst.ChainID = src.ChainID
	}
	if src.GRPCListen != "" {
		dst.GRPCListen = src.GRPCListen
	}
	if src.ConfirmDelay != 0 {
		dst.ConfirmDelay = src.ConfirmDelay
	}
	if src.InitialBalance != 0 {
		dst.InitialBalance = src.InitialBalance
	}
	if src.CASDir != "" {
		dst.CASDir = src.CASDir
	}
}

func (c Config) Validate() error {
	if c.ConfirmDelay < 0 {
		return errors.New("nodeconfig: confirm-delay must not be negative")
	}
	if c.GRPCListen == "" {
		return errors.New("nodeconfig: grpc-listen is required")
	}
	return nil
}

// Write stores cfg at path, creating parent directories.
func Write(path string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
