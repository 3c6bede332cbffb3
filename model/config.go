package model

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Store backends
const (
	BackendPostgres = "postgres"
	BackendBadger   = "badger"
)

// Config is the complete application configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Store   StoreConfig   `yaml:"store"`
	Resolve ResolveConfig `yaml:"resolve"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig configures the HTTP server
type ServerConfig struct {
	// Addr is the listen address (default: ":8080")
	Addr string `yaml:"addr"`
	// ReadTimeout bounds reading a request including its body
	ReadTimeout time.Duration `yaml:"read_timeout"`
	// WriteTimeout bounds handling a request and writing its response
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// StoreConfig selects and configures the entity store
type StoreConfig struct {
	// Backend is "postgres" (DB_* environment) or "badger"
	Backend string `yaml:"backend"`
	// BadgerDir is the badger data directory
	BadgerDir string `yaml:"badger_dir"`
	// InMemory runs badger without persistence
	InMemory bool `yaml:"in_memory"`
	// ForceLoadSQL reloads the SQL functions on startup
	ForceLoadSQL bool `yaml:"force_load_sql"`
}

// ResolveConfig configures relationship resolution
type ResolveConfig struct {
	// MaxConcurrency limits concurrent participant lookups per relationship (0 = unlimited)
	MaxConcurrency int `yaml:"max_concurrency"`
}

// LogConfig configures logging
type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string `yaml:"level"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Store: StoreConfig{
			Backend:   BackendPostgres,
			BadgerDir: "./data",
		},
		Resolve: ResolveConfig{
			MaxConcurrency: 0,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if len(c.Server.Addr) == 0 {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 {
		return fmt.Errorf("server timeouts must not be negative")
	}
	switch c.Store.Backend {
	case BackendPostgres:
	case BackendBadger:
		if !c.Store.InMemory && len(c.Store.BadgerDir) == 0 {
			return fmt.Errorf("store.badger_dir is required unless store.in_memory is set")
		}
	default:
		return fmt.Errorf("store.backend must be %q or %q, got %q", BackendPostgres, BackendBadger, c.Store.Backend)
	}
	if c.Resolve.MaxConcurrency < 0 {
		return fmt.Errorf("resolve.max_concurrency must not be negative")
	}
	return nil
}

// LoadConfig reads a YAML file on top of DefaultConfig.
// An empty path returns the defaults.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()
	if len(path) == 0 {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return config, nil
}
