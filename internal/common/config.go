package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Carteira
type Config struct {
	Environment     string        `toml:"environment"`
	DisplayCurrency string        `toml:"display_currency"` // Display currency for portfolio totals (currently "BRL" only)
	Server          ServerConfig  `toml:"server"`
	Storage         StorageConfig `toml:"storage"`
	Clients         ClientsConfig `toml:"clients"`
	Logging         LoggingConfig `toml:"logging"`
	Engine          EngineConfig  `toml:"engine"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig selects and configures the record store backend.
type StorageConfig struct {
	Driver  string        `toml:"driver"` // "memory", "file" or "surreal"
	Path    string        `toml:"path"`   // base directory for the file driver
	Surreal SurrealConfig `toml:"surreal"`
}

// SurrealConfig holds SurrealDB connection settings.
type SurrealConfig struct {
	Endpoint  string `toml:"endpoint"`
	Namespace string `toml:"namespace"`
	Database  string `toml:"database"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	Brapi BrapiConfig `toml:"brapi"`
	FX    FXConfig    `toml:"fx"`
}

// BrapiConfig holds brapi.dev API configuration
type BrapiConfig struct {
	BaseURL   string `toml:"base_url"`
	Token     string `toml:"token"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *BrapiConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// FXConfig holds exchange-rate API configuration
type FXConfig struct {
	BaseURL string `toml:"base_url"`
	Timeout string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *FXConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// EngineConfig holds valuation engine policy switches.
type EngineConfig struct {
	// StrictSell rejects sells exceeding the held quantity. Default false:
	// an over-sell simply empties the position, matching historical data
	// where partial records were lost.
	StrictSell bool `toml:"strict_sell"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment:     "development",
		DisplayCurrency: "BRL",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Driver: "file",
			Path:   "data",
			Surreal: SurrealConfig{
				Endpoint:  "ws://localhost:8000",
				Namespace: "carteira",
				Database:  "carteira",
			},
		},
		Clients: ClientsConfig{
			Brapi: BrapiConfig{
				BaseURL:   "https://brapi.dev/api",
				RateLimit: 5,
				Timeout:   "30s",
			},
			FX: FXConfig{
				BaseURL: "https://economia.awesomeapi.com.br",
				Timeout: "10s",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)
	validateDisplayCurrency(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("CARTEIRA_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("CARTEIRA_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("CARTEIRA_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("CARTEIRA_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if driver := os.Getenv("CARTEIRA_STORAGE_DRIVER"); driver != "" {
		config.Storage.Driver = driver
	}

	if path := os.Getenv("CARTEIRA_DATA_PATH"); path != "" {
		config.Storage.Path = path
	}

	if v := os.Getenv("CARTEIRA_BRAPI_TOKEN"); v != "" {
		config.Clients.Brapi.Token = v
	}

	if v := os.Getenv("CARTEIRA_SURREAL_ENDPOINT"); v != "" {
		config.Storage.Surreal.Endpoint = v
	}
	if v := os.Getenv("CARTEIRA_SURREAL_USERNAME"); v != "" {
		config.Storage.Surreal.Username = v
	}
	if v := os.Getenv("CARTEIRA_SURREAL_PASSWORD"); v != "" {
		config.Storage.Surreal.Password = v
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// validateDisplayCurrency ensures DisplayCurrency is supported, defaulting to "BRL".
func validateDisplayCurrency(config *Config) {
	dc := strings.ToUpper(config.DisplayCurrency)
	if dc != "BRL" {
		dc = "BRL"
	}
	config.DisplayCurrency = dc
}
