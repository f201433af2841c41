// Package project locates a Shuffle project on disk and reads its manifest.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// ManifestName marks a project's root directory.
const ManifestName = "Shuffle.toml"

var (
	ErrNotFound          = errors.New("unable to find Shuffle.toml; are you in a Shuffle project?")
	ErrMissingBlockchain = errors.New("project: Shuffle.toml has no blockchain")
)

// FindRoot returns the nearest directory at or above start that contains a
// Shuffle.toml file.
func FindRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for {
		info, err := os.Stat(filepath.Join(dir, ManifestName))
		switch {
		case err == nil && info.Mode().IsRegular():
			return dir, nil
		case err != nil && !errors.Is(err, os.ErrNotExist):
			return "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNotFound
		}
		dir = parent
	}
}

// Config is the content of Shuffle.toml.
type Config struct {
	// Blockchain names the target chain of the project.
	Blockchain string `mapstructure:"blockchain"`
	// Network overrides the node endpoint for this project.
	Network string `mapstructure:"network"`
}

// LoadConfig reads root/Shuffle.toml. Unknown keys are ignored.
func LoadConfig(root string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(filepath.Join(root, ManifestName))
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("project: read %s: %w", ManifestName, err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("project: decode %s: %w", ManifestName, err)
	}
	if cfg.Blockchain == "" {
		return Config{}, ErrMissingBlockchain
	}
	return cfg, nil
}

// Discover finds the project containing start and loads its config.
func Discover(start string) (string, Config, error) {
	root, err := FindRoot(start)
	if err != nil {
		return "", Config{}, err
	}
	cfg, err := LoadConfig(root)
	return root, cfg, err
}
