// Package common provides shared utilities for Folio
package common

import (
	"fmt"
	"os"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Folio
type Config struct {
	BaseCurrency string        `toml:"base_currency"` // target currency for all portfolio totals (default "USD")
	Clients      ClientsConfig `toml:"clients"`
	Logging      LoggingConfig `toml:"logging"`
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	EODHD   EODHDConfig   `toml:"eodhd"`
	FXRates FXRatesConfig `toml:"fxrates"`
}

// EODHDConfig holds EODHD API configuration
type EODHDConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *EODHDConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// FXRatesConfig holds exchange rate API configuration
type FXRatesConfig struct {
	BaseURL   string `toml:"base_url"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *FXRatesConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `toml:"level"`
}

// LoadConfig reads and parses a TOML config file, applying defaults.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(config)

	return config, nil
}

// DefaultConfig returns a config with all defaults applied.
func DefaultConfig() *Config {
	config := &Config{}
	applyDefaults(config)
	return config
}

func applyDefaults(config *Config) {
	if config.BaseCurrency == "" {
		config.BaseCurrency = "USD"
	}
	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}
	if config.Clients.EODHD.RateLimit <= 0 {
		config.Clients.EODHD.RateLimit = 10
	}
	if config.Clients.FXRates.RateLimit <= 0 {
		config.Clients.FXRates.RateLimit = 10
	}
}
