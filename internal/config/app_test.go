package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gridrun.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
screening:
  volatility_threshold: 0.03
  grid_levels: 20
pairs: ["BTC/USDT"]
source:
  kind: dune
  dune:
    query_id: 12345
    timeout: 5s
output:
  top: 3
  format: csv
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.03, cfg.Screening.VolatilityThreshold)
	assert.Equal(t, 20, cfg.Screening.GridLevels)
	// untouched keys keep their defaults
	assert.Equal(t, 1_000_000.0, cfg.Screening.LiquidityThreshold)
	assert.Equal(t, 14, cfg.Screening.TrendWindow)
	assert.Equal(t, []string{"BTC/USDT"}, cfg.Pairs)
	assert.Equal(t, "dune", cfg.Source.Kind)
	assert.Equal(t, 12345, cfg.Source.Dune.QueryID)
	assert.Equal(t, 5*time.Second, cfg.Source.Dune.Timeout)
	assert.Equal(t, "https://api.dune.com", cfg.Source.Dune.BaseURL)
	assert.Equal(t, 3, cfg.Output.Top)
	assert.Equal(t, "csv", cfg.Output.Format)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("DUNE_API_KEY", "secret")
	t.Setenv("PG_DSN", "postgres://localhost/gridrun")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load(writeConfig(t, "pairs: []\n"))
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.Source.Dune.APIKey)
	assert.Equal(t, "postgres://localhost/gridrun", cfg.Database.DSN)
	assert.Equal(t, "localhost:6379", cfg.Cache.RedisAddr)
	assert.Empty(t, cfg.Pairs)
}

func TestLoadErrors(t *testing.T) {
	t.Run("explicit_missing_file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})

	t.Run("bad_yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "screening: [not, a, map"))
		assert.Error(t, err)
	})

	t.Run("zero_threshold_is_configuration_error", func(t *testing.T) {
		_, err := Load(writeConfig(t, "screening:\n  liquidity_threshold: 0\n"))
		var cfgErr *ConfigurationError
		require.True(t, errors.As(err, &cfgErr))
		assert.Equal(t, "liquidity_threshold", cfgErr.Field)
	})
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"unknown_source", func(c *Config) { c.Source.Kind = "ftp" }, "source.kind"},
		{"file_without_path", func(c *Config) { c.Source.Kind = "file" }, "source.file"},
		{"dune_without_query", func(c *Config) { c.Source.Kind = "dune" }, "source.dune.query_id"},
		{"mock_without_days", func(c *Config) { c.Source.Mock.Days = 0 }, "source.mock.days"},
		{"db_without_dsn", func(c *Config) { c.Database.Enabled = true }, "database.dsn"},
		{"bad_format", func(c *Config) { c.Output.Format = "xml" }, "output.format"},
		{"negative_top", func(c *Config) { c.Output.Top = -1 }, "output.top"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			var cfgErr *ConfigurationError
			require.True(t, errors.As(cfg.Validate(), &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}

	def := Default()
	assert.NoError(t, def.Validate())
}
