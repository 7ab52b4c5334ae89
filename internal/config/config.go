// Package config holds the comet configuration, loaded from
// .comet/config.yaml in the workspace.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all comet configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Rule file loading
	Rules RulesConfig `yaml:"rules"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// RulesConfig configures shortcut rule file loading.
type RulesConfig struct {
	// Paths lists rule files or directories to load at startup.
	Paths []string `yaml:"paths"`

	// Watch enables the fsnotify reload watcher.
	Watch bool `yaml:"watch"`

	// DebounceMs is the watcher debounce window in milliseconds.
	DebounceMs int `yaml:"debounce_ms"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "comet",
		Version: "1.0.0",

		Rules: RulesConfig{
			Paths:      []string{".comet/rules"},
			Watch:      false,
			DebounceMs: 500,
		},

		Logging: LoggingConfig{
			Level:     "info",
			Format:    "text",
			DebugMode: false,
		},
	}
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	return filepath.Join(workspace, ".comet", "config.yaml")
}

// Load reads the config from the workspace, falling back to defaults
// when no config file exists.
func Load(workspace string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Rules.DebounceMs <= 0 {
		cfg.Rules.DebounceMs = 500
	}

	return cfg, nil
}

// Save writes the config to the workspace, creating .comet/ if needed.
func (c *Config) Save(workspace string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := Path(workspace)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
