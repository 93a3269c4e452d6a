// Package config loads the YAML application configuration and applies
// environment variable overrides.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the rotor service.
type Config struct {
	Storage  Storage        `yaml:"storage"`
	Server   Server         `yaml:"server"`
	Provider Provider       `yaml:"provider"`
	Logging  Logging        `yaml:"logging"`
	Strategy StrategyConfig `yaml:"strategy"`
	Fetch    FetchConfig    `yaml:"fetch"`
}

// Storage holds paths for data persistence.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Server holds network listener configuration.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Provider selects and configures the quote source.
type Provider struct {
	Source string `yaml:"source"` // "eastmoney" or "alpaca"
	Alpaca Alpaca `yaml:"alpaca"`
}

// Alpaca holds credentials and endpoints for the Alpaca market-data API.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	DataURL   string `yaml:"data_url"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// StrategyConfig holds the default rotation parameters. Requests may
// override them per call.
type StrategyConfig struct {
	MomentumLookback int   `yaml:"momentum_lookback"`
	MAWindow         int   `yaml:"ma_window"`
	MaxPositions     int   `yaml:"max_positions"`
	BiasPeriods      []int `yaml:"bias_periods"`
}

// FetchConfig controls the bulk prefetch command.
type FetchConfig struct {
	RateLimitPerMin int `yaml:"rate_limit_per_min"`
	MaxAttempts     int `yaml:"max_attempts"`
}

// Default returns the built-in configuration used when no file is given.
func Default() *Config {
	return &Config{
		Storage: Storage{
			DataDir:    "data",
			SQLitePath: "data/cache.db",
		},
		Server: Server{
			Host: "0.0.0.0",
			Port: 8085,
		},
		Provider: Provider{Source: "eastmoney"},
		Logging:  Logging{Level: "info", Format: "json"},
		Strategy: StrategyConfig{
			MomentumLookback: 20,
			MAWindow:         28,
			MaxPositions:     2,
			BiasPeriods:      []int{6, 12, 24},
		},
		Fetch: FetchConfig{RateLimitPerMin: 60, MaxAttempts: 3},
	}
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path over the built-in
// defaults and then applies environment variable overrides. An empty path
// yields defaults plus overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Canonical Alpaca SDK variable names take priority over the file.
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Provider.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Provider.Alpaca.APISecret = v
	}
}
