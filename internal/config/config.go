package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Universe struct {
		Source        string        `yaml:"source"` // auto, composite, tsx60, csv, static
		CSVPath       string        `yaml:"csv_path"`
		CompositeURLs []string      `yaml:"composite_urls"`
		TSX60URL      string        `yaml:"tsx60_url"`
		Fallback      []string      `yaml:"fallback"`
		Limit         int           `yaml:"limit"`
		Normalization Normalization `yaml:"normalization"`
		CacheTTL      time.Duration `yaml:"cache_ttl"`
	} `yaml:"universe"`
	DataSource struct {
		Provider string        `yaml:"provider"` // yahoo, financego, rest, mock
		BaseURL  string        `yaml:"base_url"`
		APIKey   string        `yaml:"api_key"`
		Period   string        `yaml:"period"`
		Cooldown time.Duration `yaml:"cooldown"`
		Workers  int           `yaml:"workers"`
		Retries  int           `yaml:"retries"`
		CacheTTL time.Duration `yaml:"cache_ttl"`
	} `yaml:"data_source"`
	Strategy struct {
		ConfirmHigherClose bool `yaml:"confirm_higher_close"`
	} `yaml:"strategy"`
	Schedule struct {
		ScanCron string `yaml:"scan_cron"`
		Timezone string `yaml:"timezone"`
	} `yaml:"schedule"`
	Cache struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"cache"`
	Web struct {
		Addr string `yaml:"addr"`
	} `yaml:"web"`
	Log struct {
		Level    string `yaml:"level"`
		FilePath string `yaml:"file_path"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Normalization is the versioned symbol rewrite table.
type Normalization struct {
	Version        string       `yaml:"version"`
	Rules          []SuffixRule `yaml:"rules"`
	ExchangeSuffix string       `yaml:"exchange_suffix"`
	Pattern        string       `yaml:"pattern"`
}

// SuffixRule rewrites a raw ticker suffix.
type SuffixRule struct {
	Suffix  string `yaml:"suffix"`
	Replace string `yaml:"replace"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.Universe.Limit = 250
	cfg.Universe.CacheTTL = 24 * time.Hour
	cfg.DataSource.Cooldown = 100 * time.Millisecond
	cfg.DataSource.Retries = 2
	cfg.DataSource.CacheTTL = 6 * time.Hour
	applyDefaults(cfg)
	return cfg
}

// Load reads config from a YAML file, then applies .env and environment variable overrides.
// A missing file is not an error. Numeric fields keep an explicit zero, so
// defaults are laid down before the file is decoded.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	_ = godotenv.Load()

	// Environment variable overrides
	if v := os.Getenv("SENTINEL_SOURCE"); v != "" {
		cfg.Universe.Source = v
	}
	if v := os.Getenv("SENTINEL_CSV_PATH"); v != "" {
		cfg.Universe.CSVPath = v
	}
	if v := os.Getenv("SENTINEL_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("SENTINEL_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("SENTINEL_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("SENTINEL_PERIOD"); v != "" {
		cfg.DataSource.Period = v
	}
	if v, ok := os.LookupEnv("SENTINEL_LIMIT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("SENTINEL_LIMIT: %w", err)
		}
		cfg.Universe.Limit = n
	}
	if v, ok := os.LookupEnv("SENTINEL_COOLDOWN"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("SENTINEL_COOLDOWN: %w", err)
		}
		cfg.DataSource.Cooldown = d
	}
	if v, ok := os.LookupEnv("SENTINEL_RETRIES"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("SENTINEL_RETRIES: %w", err)
		}
		cfg.DataSource.Retries = n
	}
	if v := os.Getenv("SENTINEL_SCAN_CRON"); v != "" {
		cfg.Schedule.ScanCron = v
	}
	if v := os.Getenv("SENTINEL_SQLITE_PATH"); v != "" {
		cfg.Cache.SQLitePath = v
	}
	if v := os.Getenv("SENTINEL_ADDR"); v != "" {
		cfg.Web.Addr = v
	}
	if v := os.Getenv("SENTINEL_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	applyDefaults(cfg)
	return cfg, nil
}

// applyDefaults fills blank text and list fields. Limits, durations and
// retries are set by Default only, since zero is a valid choice for them.
func applyDefaults(cfg *Config) {
	u := &cfg.Universe
	if u.Source == "" {
		u.Source = "auto"
	}
	if len(u.CompositeURLs) == 0 {
		u.CompositeURLs = []string{
			"https://en.wikipedia.org/wiki/S%26P/TSX_Composite_Index",
			"https://fr.wikipedia.org/wiki/Indice_compos%C3%A9_S%26P/TSX",
		}
	}
	if u.TSX60URL == "" {
		u.TSX60URL = "https://en.wikipedia.org/wiki/S%26P/TSX_60"
	}
	if len(u.Fallback) == 0 {
		u.Fallback = []string{"RY.TO", "TD.TO", "BNS.TO", "ENB.TO", "CNQ.TO", "SU.TO", "SHOP.TO", "BCE.TO"}
	}
	n := &u.Normalization
	if n.Version == "" && len(n.Rules) == 0 {
		n.Version = "tsx-1"
		n.Rules = []SuffixRule{
			{Suffix: ".UN", Replace: "-UN"},
			{Suffix: ".U", Replace: "-U"},
		}
	}
	if n.ExchangeSuffix == "" {
		n.ExchangeSuffix = ".TO"
	}
	if n.Pattern == "" {
		n.Pattern = `^[A-Z0-9\-\.]{1,12}\.TO$`
	}

	d := &cfg.DataSource
	if d.Provider == "" {
		d.Provider = "yahoo"
	}
	if d.Period == "" {
		d.Period = "3mo"
	}
	if d.Workers == 0 {
		d.Workers = 4
	}

	if cfg.Schedule.ScanCron == "" {
		cfg.Schedule.ScanCron = "0 30 17 * * 1-5"
	}
	if cfg.Schedule.Timezone == "" {
		cfg.Schedule.Timezone = "America/Toronto"
	}
	if cfg.Web.Addr == "" {
		cfg.Web.Addr = ":8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	switch c.Universe.Source {
	case "auto", "composite", "tsx60", "static":
	case "csv":
		if c.Universe.CSVPath == "" {
			return fmt.Errorf("universe.csv_path is required when universe.source is csv")
		}
	default:
		return fmt.Errorf("universe.source %q is not one of auto, composite, tsx60, csv, static", c.Universe.Source)
	}
	if c.Universe.Limit < 0 {
		return fmt.Errorf("universe.limit must not be negative")
	}
	if len(c.Universe.Normalization.Rules) == 0 && c.Universe.Normalization.Version == "" {
		return fmt.Errorf("universe.normalization needs a version or rules")
	}

	switch c.DataSource.Provider {
	case "yahoo", "financego", "mock":
	case "rest":
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for the rest provider")
		}
	default:
		return fmt.Errorf("data_source.provider %q is not one of yahoo, financego, rest, mock", c.DataSource.Provider)
	}
	switch c.DataSource.Period {
	case "1mo", "2mo", "3mo", "6mo":
	default:
		return fmt.Errorf("data_source.period %q is not one of 1mo, 2mo, 3mo, 6mo", c.DataSource.Period)
	}
	if c.DataSource.Cooldown < 0 || c.DataSource.Cooldown > 5*time.Second {
		return fmt.Errorf("data_source.cooldown must be between 0 and 5s")
	}
	if c.DataSource.Retries < 0 {
		return fmt.Errorf("data_source.retries must not be negative")
	}
	if c.DataSource.Workers < 1 {
		return fmt.Errorf("data_source.workers must be positive")
	}
	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		return fmt.Errorf("schedule.timezone: %w", err)
	}
	return nil
}
