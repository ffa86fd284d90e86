// Package config loads the nsesync YAML configuration and applies
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"nsesync/internal/dates"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the nsesync pipeline.
type Config struct {
	Storage Storage `yaml:"storage"`
	Catalog Catalog `yaml:"catalog"`
	Sync    Sync    `yaml:"sync"`
	NSE     NSE     `yaml:"nse"`
	Server  Server  `yaml:"server"`
	Logging Logging `yaml:"logging"`
}

// Storage holds paths and formats for data persistence.
type Storage struct {
	DataDir       string `yaml:"data_dir"`
	SQLitePath    string `yaml:"sqlite_path"`
	StagingFormat string `yaml:"staging_format"` // "csv" (default) or "parquet"
}

// Catalog holds the universe definition files used to seed the instrument
// catalog.
type Catalog struct {
	StocksCSV  string `yaml:"stocks_csv"`
	IndexesCSV string `yaml:"indexes_csv"`
	Venue      string `yaml:"venue"`
}

// Sync holds the parameters of a synchronization run.
type Sync struct {
	StartDate      string `yaml:"start_date"` // requested window start, YYYY-MM-DD
	EndDate        string `yaml:"end_date"`   // empty → today
	ChunkDays      int    `yaml:"chunk_days"`
	DelaySeconds   int    `yaml:"delay_seconds"` // courtesy gap between upstream requests
	MaxRetries     int    `yaml:"max_retries"`
	RetryBackoffMS int    `yaml:"retry_backoff_ms"`
}

// NSE holds upstream source settings.
type NSE struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Server holds the read-only API listener configuration.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, applies environment variable overrides, and fills defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}
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
	if v := os.Getenv("STAGING_FORMAT"); v != "" {
		cfg.Storage.StagingFormat = v
	}
	if v := os.Getenv("NSE_BASE_URL"); v != "" {
		cfg.NSE.BaseURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SYNC_DELAY_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Sync.DelaySeconds = n
		}
	}
}

// Defaults match the original pipeline: history from 2020, 60-day upstream
// chunks, a 2-second courtesy delay, three attempts per chunk.
func applyDefaults(cfg *Config) {
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "data"
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "data/db/stock.db"
	}
	if cfg.Storage.StagingFormat == "" {
		cfg.Storage.StagingFormat = "csv"
	}
	if cfg.Catalog.StocksCSV == "" {
		cfg.Catalog.StocksCSV = "config/stocks.csv"
	}
	if cfg.Catalog.IndexesCSV == "" {
		cfg.Catalog.IndexesCSV = "config/indexes.csv"
	}
	if cfg.Catalog.Venue == "" {
		cfg.Catalog.Venue = "NSE"
	}
	if cfg.Sync.StartDate == "" {
		cfg.Sync.StartDate = "2020-01-01"
	}
	if cfg.Sync.ChunkDays <= 0 {
		cfg.Sync.ChunkDays = 60
	}
	if cfg.Sync.DelaySeconds <= 0 {
		cfg.Sync.DelaySeconds = 2
	}
	if cfg.Sync.MaxRetries <= 0 {
		cfg.Sync.MaxRetries = 3
	}
	if cfg.Sync.RetryBackoffMS <= 0 {
		cfg.Sync.RetryBackoffMS = 1000
	}
	if cfg.NSE.BaseURL == "" {
		cfg.NSE.BaseURL = "https://www.nseindia.com"
	}
	if cfg.NSE.TimeoutSeconds <= 0 {
		cfg.NSE.TimeoutSeconds = 20
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func validate(cfg *Config) error {
	if _, err := dates.Parse(cfg.Sync.StartDate); err != nil {
		return fmt.Errorf("sync.start_date: %w", err)
	}
	if cfg.Sync.EndDate != "" {
		if _, err := dates.Parse(cfg.Sync.EndDate); err != nil {
			return fmt.Errorf("sync.end_date: %w", err)
		}
	}
	switch cfg.Storage.StagingFormat {
	case "csv", "parquet":
	default:
		return fmt.Errorf("storage.staging_format: unknown format %q", cfg.Storage.StagingFormat)
	}
	return nil
}

// Window returns the requested synchronization window. An empty end date
// resolves to today.
func (c *Config) Window() (from, to dates.Date) {
	from, _ = dates.Parse(c.Sync.StartDate)
	if c.Sync.EndDate == "" {
		return from, dates.Today()
	}
	to, _ = dates.Parse(c.Sync.EndDate)
	return from, to
}

// Delay returns the configured inter-request delay.
func (c *Config) Delay() time.Duration {
	return time.Duration(c.Sync.DelaySeconds) * time.Second
}

// RetryBackoff returns the base backoff between retry attempts.
func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.Sync.RetryBackoffMS) * time.Millisecond
}
