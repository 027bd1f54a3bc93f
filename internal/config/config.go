package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Catalog CatalogConfig `yaml:"catalog"`
	Bars    BarsConfig    `yaml:"bars"`
	Log     LogConfig     `yaml:"log"`
}

// CatalogConfig locates the workflow catalog
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// BarsConfig holds the price-bar source settings
type BarsConfig struct {
	Path      string `yaml:"path"`
	RateLimit int    `yaml:"rate_limit"` // bar fetches per minute
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			Path: "workflows.yml",
		},
		Bars: BarsConfig{
			Path:      "bars.json",
			RateLimit: 120,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Use defaults if file doesn't exist
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Override with environment variables if set
	if p := os.Getenv("MARKETFLOW_CATALOG"); p != "" {
		cfg.Catalog.Path = p
	}
	if p := os.Getenv("MARKETFLOW_BARS"); p != "" {
		cfg.Bars.Path = p
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Catalog.Path == "" {
		return fmt.Errorf("catalog path is required")
	}
	if c.Bars.Path == "" {
		return fmt.Errorf("bars path is required")
	}
	if c.Bars.RateLimit < 1 {
		return fmt.Errorf("rate_limit must be at least 1")
	}
	return nil
}
