// Package config provides centralized configuration for the gitlanes server.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	DefaultAddr         = ":8080"
	DefaultHistoryLimit = 500
	DefaultPaletteSize  = 8
)

// Config holds application-wide configuration.
type Config struct {
	// RepoPath is the repository to serve; any directory inside a worktree works.
	RepoPath string `yaml:"repo"`
	// Addr is the HTTP listen address.
	Addr string `yaml:"addr"`
	// HistoryLimit caps how many commits a single graph request walks.
	HistoryLimit int `yaml:"history_limit"`
	// PaletteSize is the number of lane colors before they repeat.
	PaletteSize int `yaml:"palette_size"`
}

// DefaultConfig returns the default configuration, reading from environment variables.
func DefaultConfig() *Config {
	cfg := &Config{
		RepoPath:     ".",
		Addr:         DefaultAddr,
		HistoryLimit: DefaultHistoryLimit,
		PaletteSize:  DefaultPaletteSize,
	}
	if v := os.Getenv("GITLANES_REPO"); v != "" {
		cfg.RepoPath = v
	}
	if v := os.Getenv("GITLANES_ADDR"); v != "" {
		cfg.Addr = v
	}
	if n, err := strconv.Atoi(os.Getenv("GITLANES_HISTORY_LIMIT")); err == nil {
		cfg.HistoryLimit = n
	}
	if n, err := strconv.Atoi(os.Getenv("GITLANES_PALETTE_SIZE")); err == nil {
		cfg.PaletteSize = n
	}
	return cfg
}

// Load returns DefaultConfig overlaid with the YAML file at path.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects values the server cannot run with.
func (c *Config) Validate() error {
	if c.RepoPath == "" {
		return fmt.Errorf("repo path is required")
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("history_limit must be positive, got %d", c.HistoryLimit)
	}
	if c.PaletteSize <= 0 {
		return fmt.Errorf("palette_size must be positive, got %d", c.PaletteSize)
	}
	return nil
}
