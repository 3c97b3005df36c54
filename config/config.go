package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rustyeddy/perpbt/sim"
	"gopkg.in/yaml.v3"
)

// Config represents the complete backtest configuration
type Config struct {
	Data    DataConfig       `json:"data" yaml:"data"`
	Single  sim.SingleConfig `json:"single" yaml:"single"`
	Dual    sim.DualConfig   `json:"dual" yaml:"dual"`
	Metrics MetricsConfig    `json:"metrics" yaml:"metrics"`
	Sweep   SweepConfig      `json:"sweep" yaml:"sweep"`
	Journal JournalConfig    `json:"journal" yaml:"journal"`
}

// DataConfig describes where bars come from
type DataConfig struct {
	Exchange          string  `json:"exchange" yaml:"exchange"`
	Market            string  `json:"market" yaml:"market"`
	LongMarket        string  `json:"long_market,omitempty" yaml:"long_market,omitempty"`
	ShortMarket       string  `json:"short_market,omitempty" yaml:"short_market,omitempty"`
	CacheDir          string  `json:"cache_dir" yaml:"cache_dir"`
	BaseURL           string  `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`
}

// MetricsConfig contains performance metric parameters
type MetricsConfig struct {
	RiskFreeRate float64 `json:"risk_free_rate" yaml:"risk_free_rate"`
}

// SweepConfig lists the leverages tried by a parameter sweep
type SweepConfig struct {
	Leverages []float64 `json:"leverages" yaml:"leverages"`
	Workers   int       `json:"workers" yaml:"workers"`
}

// JournalConfig contains run persistence parameters
type JournalConfig struct {
	Type   string `json:"type" yaml:"type"` // "sqlite", "csv" or "none"
	DBPath string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	CSVDir string `json:"csv_dir,omitempty" yaml:"csv_dir,omitempty"`
}

// LoadFromFile loads configuration from a file (YAML, falling back to JSON)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Data.Exchange == "" {
		return fmt.Errorf("data.exchange is required")
	}
	if c.Data.CacheDir == "" {
		return fmt.Errorf("data.cache_dir is required")
	}
	if c.Data.RequestsPerSecond < 0 {
		return fmt.Errorf("data.requests_per_second must be non-negative")
	}
	if err := c.Single.Validate(); err != nil {
		return fmt.Errorf("single: %w", err)
	}
	if err := c.Dual.Validate(); err != nil {
		return fmt.Errorf("dual: %w", err)
	}
	for _, l := range c.Sweep.Leverages {
		if l < 0 {
			return fmt.Errorf("sweep.leverages must be non-negative")
		}
	}
	if c.Sweep.Workers < 0 {
		return fmt.Errorf("sweep.workers must be non-negative")
	}
	switch c.Journal.Type {
	case "none":
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	case "csv":
		if c.Journal.CSVDir == "" {
			return fmt.Errorf("journal csv_dir required for CSV type")
		}
	default:
		return fmt.Errorf("journal.type must be 'sqlite', 'csv' or 'none'")
	}
	return nil
}

// Default returns a configuration with the documented defaults
func Default() *Config {
	return &Config{
		Data: DataConfig{
			Exchange:          "drift",
			Market:            "SOL-PERP",
			LongMarket:        "SOL-PERP",
			ShortMarket:       "SOL-PERP",
			CacheDir:          "./data",
			RequestsPerSecond: 5,
		},
		Single: sim.DefaultSingleConfig(5),
		Dual:   sim.DefaultDualConfig(5),
		Sweep: SweepConfig{
			Leverages: []float64{1, 2, 3, 5, 10, 20},
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./perpbt.sqlite",
		},
	}
}
