// Package config loads optional user configuration. A missing file is not an
// error: everything has a built-in default and the config only overrides it.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration.
type Config struct {
	// Interval overrides the default sampling interval, in seconds.
	Interval float64 `yaml:"interval"`
	// Prefix overrides the default stats prefix glyph.
	Prefix string `yaml:"prefix"`
	// Interactive lists extra command names to force onto the PTY path.
	Interactive []string `yaml:"interactive"`
	// NonInteractive lists extra command names to force onto the direct path.
	NonInteractive []string `yaml:"non_interactive"`
}

// Path returns the config file location: $SHELLBACK_CONFIG if set, otherwise
// ~/.config/shellback/config.yaml.
func Path() string {
	if p := os.Getenv("SHELLBACK_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "shellback", "config.yaml")
}

// Load reads the config from Path. See LoadFrom.
func Load() (*Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads a config file. A missing or empty path yields a zero-value
// config; a malformed file is an error.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Interval < 0 {
		return nil, fmt.Errorf("config %s: interval must be positive", path)
	}
	return cfg, nil
}
