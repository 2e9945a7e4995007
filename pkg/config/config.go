// Package config loads the service configuration from YAML and the
// environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ammar0144/recordsapi/pkg/cache"
	"github.com/ammar0144/recordsapi/pkg/db"
	"github.com/ammar0144/recordsapi/pkg/logging"
)

// Config holds the complete service configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database db.Config      `yaml:"database"`
	Cache    cache.Config   `yaml:"cache"`
	Logging  logging.Config `yaml:"logging"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Address         string        `yaml:"address"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// CacheTTL is how long list and detail responses stay cached
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address:         ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CacheTTL:        60 * time.Second,
		},
		Database: *db.DefaultConfig(),
		Cache:    *cache.DefaultConfig(),
		Logging: logging.Config{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from a file and applies environment variable
// overrides. An empty path yields the defaults plus overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if val := os.Getenv("RECORDS_ADDR"); val != "" {
		cfg.Server.Address = val
	}
	if val := os.Getenv("RECORDS_DB_HOST"); val != "" {
		cfg.Database.Host = val
	}
	if val := os.Getenv("RECORDS_DB_PORT"); val != "" {
		port, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("RECORDS_DB_PORT: %w", err)
		}
		cfg.Database.Port = port
	}
	if val := os.Getenv("RECORDS_DB_NAME"); val != "" {
		cfg.Database.Database = val
	}
	if val := os.Getenv("RECORDS_DB_USER"); val != "" {
		cfg.Database.Username = val
	}
	if val := os.Getenv("RECORDS_DB_PASSWORD"); val != "" {
		cfg.Database.Password = val
	}
	if val := os.Getenv("RECORDS_CACHE_BACKEND"); val != "" {
		cfg.Cache.Backend = cache.Backend(val)
	}
	if val := os.Getenv("RECORDS_REDIS_PASSWORD"); val != "" {
		cfg.Cache.Redis.Password = val
	}
	if val := os.Getenv("RECORDS_LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	return nil
}

// Validate checks every section of the configuration
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("server: address is required")
	}
	if c.Server.CacheTTL < 0 {
		return fmt.Errorf("server: cache_ttl cannot be negative")
	}
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	return nil
}
