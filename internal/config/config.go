// Package config loads the daemon configuration from YAML, with
// environment overrides for the secrets.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the application configuration.
type Config struct {
	Listen   string         `yaml:"listen"`
	BaseURL  string         `yaml:"base_url"`
	Database DatabaseConfig `yaml:"database"`
	Feed     FeedConfig     `yaml:"feed"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DatabaseConfig selects the storage backend. An empty DSN falls back to
// the in-memory store.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// FeedConfig controls the public calendar feed.
type FeedConfig struct {
	Name        string `yaml:"name"`
	Path        string `yaml:"path"`
	HorizonDays int    `yaml:"horizon_days"`
	RefreshCron string `yaml:"refresh_cron"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Listen:  ":8080",
		BaseURL: "http://localhost:8080",
		Feed: FeedConfig{
			Name:        "Community events",
			HorizonDays: 365,
			RefreshCron: "*/15 * * * *",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads the configuration file at path, layered over the defaults.
// An empty path returns the defaults; DATABASE_DSN in the environment
// overrides the configured DSN.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		cfg.Database.DSN = dsn
	}

	return cfg, nil
}
