// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config provides daemon configuration, loaded from a YAML file with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when configuration validation fails.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Backend types supported by the store.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Config represents the complete daemon configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Backend BackendConfig `yaml:"backend"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	// Addr is the address to listen on (default "127.0.0.1:7410").
	Addr string `yaml:"addr"`
}

// BackendConfig configures the store backend.
type BackendConfig struct {
	// Type is the backend type: memory or sqlite (default memory).
	Type string `yaml:"type"`

	// SQLite contains sqlite-specific settings.
	SQLite SQLiteConfig `yaml:"sqlite"`
}

// SQLiteConfig contains SQLite connection settings.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string `yaml:"path"`

	// WAL enables Write-Ahead Logging mode.
	WAL bool `yaml:"wal"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Server:  ServerConfig{Addr: "127.0.0.1:7410"},
		Backend: BackendConfig{Type: BackendMemory},
		Log:     LogConfig{Level: "info", Format: "json"},
	}
}

// Load reads configuration from the given path, applies environment
// overrides, and validates the result. An empty path loads defaults plus
// environment overrides; a missing file at an explicit path is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv applies FIELDBIND_* environment variable overrides.
func applyEnv(cfg *Config) {
	if v := os.Getenv("FIELDBIND_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("FIELDBIND_BACKEND"); v != "" {
		cfg.Backend.Type = v
	}
	if v := os.Getenv("FIELDBIND_SQLITE_PATH"); v != "" {
		cfg.Backend.SQLite.Path = v
	}
	if v := os.Getenv("FIELDBIND_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("FIELDBIND_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	switch c.Backend.Type {
	case BackendMemory:
	case BackendSQLite:
		if c.Backend.SQLite.Path == "" {
			return fmt.Errorf("%w: backend.sqlite.path is required for the sqlite backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown backend type %q", ErrInvalidConfig, c.Backend.Type)
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("%w: server.addr is required", ErrInvalidConfig)
	}
	return nil
}
