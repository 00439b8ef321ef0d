package config

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultScreeningConfig(t *testing.T) {
	cfg := DefaultScreeningConfig()

	assert.Equal(t, 0.02, cfg.VolatilityThreshold)
	assert.Equal(t, 1_000_000.0, cfg.LiquidityThreshold)
	assert.Equal(t, 25.0, cfg.TrendStrengthThreshold)
	assert.Equal(t, 0.05, cfg.MinPriceRange)
	assert.Equal(t, 0.20, cfg.MaxPriceRange)
	assert.Equal(t, 10, cfg.GridLevels)
	assert.Equal(t, 0.001, cfg.InvestmentMultiplier)
	assert.Equal(t, 14, cfg.TrendWindow)
	assert.False(t, cfg.EnforceMinPriceRange)
	require.NoError(t, cfg.Validate())
}

func TestScreeningConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ScreeningConfig)
		field  string
	}{
		{"zero_volatility_threshold", func(c *ScreeningConfig) { c.VolatilityThreshold = 0 }, "volatility_threshold"},
		{"zero_liquidity_threshold", func(c *ScreeningConfig) { c.LiquidityThreshold = 0 }, "liquidity_threshold"},
		{"zero_trend_threshold", func(c *ScreeningConfig) { c.TrendStrengthThreshold = 0 }, "trend_strength_threshold"},
		{"negative_min_range", func(c *ScreeningConfig) { c.MinPriceRange = -0.01 }, "min_price_range"},
		{"zero_max_range", func(c *ScreeningConfig) { c.MaxPriceRange = 0 }, "max_price_range"},
		{"negative_grid_levels", func(c *ScreeningConfig) { c.GridLevels = -1 }, "grid_levels"},
		{"negative_multiplier", func(c *ScreeningConfig) { c.InvestmentMultiplier = -0.5 }, "investment_multiplier"},
		{"nan_threshold", func(c *ScreeningConfig) { c.VolatilityThreshold = math.NaN() }, "volatility_threshold"},
		{"tiny_trend_window", func(c *ScreeningConfig) { c.TrendWindow = 1 }, "trend_window"},
		{"negative_trend_window", func(c *ScreeningConfig) { c.TrendWindow = -3 }, "trend_window"},
		{"enforced_min_above_max", func(c *ScreeningConfig) {
			c.EnforceMinPriceRange = true
			c.MinPriceRange = 0.3
		}, "min_price_range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultScreeningConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)

			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}

	t.Run("zero_grid_levels_allowed", func(t *testing.T) {
		cfg := DefaultScreeningConfig()
		cfg.GridLevels = 0
		assert.NoError(t, cfg.Validate())
	})

	t.Run("zero_trend_window_allowed", func(t *testing.T) {
		cfg := DefaultScreeningConfig()
		cfg.TrendWindow = 0
		assert.NoError(t, cfg.Validate())
	})

	t.Run("max_range_above_whole_price_allowed", func(t *testing.T) {
		cfg := DefaultScreeningConfig()
		cfg.MaxPriceRange = 1.5
		assert.NoError(t, cfg.Validate())
	})

	t.Run("unenforced_min_above_max_allowed", func(t *testing.T) {
		cfg := DefaultScreeningConfig()
		cfg.MinPriceRange = 0.5
		assert.NoError(t, cfg.Validate())
	})
}
