package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is read when no --config flag is given
const DefaultConfigPath = "config/gridrun.yaml"

// Config is the complete gridrun configuration
type Config struct {
	Screening ScreeningConfig `yaml:"screening"`
	Pairs     []string        `yaml:"pairs"` // Pair universe; empty means every pair the source returns
	Source    SourceConfig    `yaml:"source"`
	Cache     CacheConfig     `yaml:"cache"`
	Database  DatabaseConfig  `yaml:"database"`
	HTTP      HTTPConfig      `yaml:"http"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	Output    OutputConfig    `yaml:"output"`
}

// SourceConfig selects and configures the pair data source
type SourceConfig struct {
	Kind string     `yaml:"kind"` // mock|file|dune
	File string     `yaml:"file"` // Snapshot path for kind=file
	Mock MockConfig `yaml:"mock"`
	Dune DuneConfig `yaml:"dune"`
}

// MockConfig configures the synthetic data generator
type MockConfig struct {
	Seed       int64   `yaml:"seed"`
	Days       int     `yaml:"days"`
	Volatility float64 `yaml:"volatility"` // Per-step lognormal sigma
}

// DuneConfig configures the Dune results client
type DuneConfig struct {
	BaseURL          string        `yaml:"base_url"`
	QueryID          int           `yaml:"query_id"`
	APIKey           string        `yaml:"-"` // DUNE_API_KEY only, never from file
	Timeout          time.Duration `yaml:"timeout"`
	RPS              float64       `yaml:"rps"`               // Requests per second
	Burst            int           `yaml:"burst"`             // Burst capacity
	FailureThreshold uint32        `yaml:"failure_threshold"` // Consecutive failures to open the breaker
	OpenTimeout      time.Duration `yaml:"open_timeout"`      // Time before the breaker half-opens
}

// CacheConfig configures the fetched-snapshot cache
type CacheConfig struct {
	RedisAddr string        `yaml:"redis_addr"` // Empty uses the in-memory cache
	TTL       time.Duration `yaml:"ttl"`        // Zero disables caching
}

// DatabaseConfig configures run history persistence
type DatabaseConfig struct {
	Enabled         bool          `yaml:"enabled"`
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	QueryTimeout    time.Duration `yaml:"query_timeout"`
}

// HTTPConfig configures the monitor server
type HTTPConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// ScheduleConfig configures periodic screening
type ScheduleConfig struct {
	Cron string `yaml:"cron"`
}

// OutputConfig configures presentation defaults
type OutputConfig struct {
	Top    int    `yaml:"top"`
	Format string `yaml:"format"` // table|json|csv, empty picks by terminal
}

// DefaultPairs is the default trading pair universe
func DefaultPairs() []string {
	return []string{"BTC/USDT", "ETH/USDT", "SOL/USDT", "AVAX/USDT", "MATIC/USDT"}
}

// Default returns a complete configuration that runs offline against mock data
func Default() Config {
	return Config{
		Screening: DefaultScreeningConfig(),
		Pairs:     DefaultPairs(),
		Source: SourceConfig{
			Kind: "mock",
			Mock: MockConfig{Seed: 42, Days: 30, Volatility: 0.02},
			Dune: DuneConfig{
				BaseURL:          "https://api.dune.com",
				Timeout:          30 * time.Second,
				RPS:              1,
				Burst:            2,
				FailureThreshold: 3,
				OpenTimeout:      60 * time.Second,
			},
		},
		Cache: CacheConfig{TTL: 5 * time.Minute},
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			QueryTimeout:    30 * time.Second,
		},
		HTTP: HTTPConfig{
			Host:         "127.0.0.1", // Local-only by default
			Port:         8080,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Schedule: ScheduleConfig{Cron: "@every 15m"},
		Output:   OutputConfig{Top: 5},
	}
}

// Load reads path over Default(), applies environment overrides and validates.
// A missing file at DefaultConfigPath is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// defaults only
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DUNE_API_KEY"); v != "" {
		c.Source.Dune.APIKey = v
	}
	if v := os.Getenv("PG_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.RedisAddr = v
	}
}

// Validate checks every section
func (c *Config) Validate() error {
	if err := c.Screening.Validate(); err != nil {
		return err
	}

	switch strings.ToLower(c.Source.Kind) {
	case "mock":
		if c.Source.Mock.Days <= 0 {
			return &ConfigurationError{Field: "source.mock.days", Reason: "must be positive"}
		}
	case "file":
		if c.Source.File == "" {
			return &ConfigurationError{Field: "source.file", Reason: "is required for kind=file"}
		}
	case "dune":
		if c.Source.Dune.QueryID <= 0 {
			return &ConfigurationError{Field: "source.dune.query_id", Reason: "must be positive"}
		}
		if c.Source.Dune.RPS <= 0 {
			return &ConfigurationError{Field: "source.dune.rps", Reason: "must be positive"}
		}
	default:
		return &ConfigurationError{Field: "source.kind", Reason: fmt.Sprintf("unknown source %q", c.Source.Kind)}
	}

	if c.Database.Enabled && c.Database.DSN == "" {
		return &ConfigurationError{Field: "database.dsn", Reason: "is required when the database is enabled"}
	}
	if c.Output.Top < 0 {
		return &ConfigurationError{Field: "output.top", Reason: "must be non-negative"}
	}
	switch c.Output.Format {
	case "", "table", "json", "csv":
	default:
		return &ConfigurationError{Field: "output.format", Reason: fmt.Sprintf("unknown format %q", c.Output.Format)}
	}

	return nil
}
