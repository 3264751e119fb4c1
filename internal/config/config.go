// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package config loads decaxis CLI configuration from TOML.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds the complete CLI configuration.
type Config struct {
	Parser ParserConfig `toml:"parser"`
	Store  StoreConfig  `toml:"store"`
	Log    LogConfig    `toml:"log"`
	CLI    CLIConfig    `toml:"cli"`
}

// ParserConfig holds parse options.
type ParserConfig struct {
	MaxDepth      int  `toml:"max_depth"`
	IgnoreUnknown bool `toml:"ignore_unknown"`
}

// StoreConfig holds persistence settings. An empty Path means no persistence.
type StoreConfig struct {
	Path string `toml:"path"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// CLIConfig holds output and batch settings.
type CLIConfig struct {
	Format        string   `toml:"format"`
	Concurrency   int      `toml:"concurrency"`
	WatchDebounce Duration `toml:"watch_debounce"`
}

// Duration wraps time.Duration for TOML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Parser: ParserConfig{MaxDepth: 10000},
		Log:    LogConfig{Level: "warn"},
		CLI: CLIConfig{
			Format:        "debug",
			Concurrency:   4,
			WatchDebounce: Duration{100 * time.Millisecond},
		},
	}
}

// Load reads a TOML file over the defaults.
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if _, err := toml.Decode(string(content), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.Store.Path = os.ExpandEnv(cfg.Store.Path)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Parser.MaxDepth < 0 {
		return fmt.Errorf("parser.max_depth must be >= 0, got %d", c.Parser.MaxDepth)
	}
	if c.CLI.Concurrency < 1 {
		return fmt.Errorf("cli.concurrency must be >= 1, got %d", c.CLI.Concurrency)
	}
	switch c.CLI.Format {
	case "debug", "source", "json":
	default:
		return fmt.Errorf("cli.format must be debug, source or json, got %q", c.CLI.Format)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}
