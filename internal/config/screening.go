package config

import (
	"fmt"
	"math"
)

// ConfigurationError reports an invalid configuration field. It is always fatal.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}

// ScreeningConfig holds the immutable screening thresholds and grid parameters
type ScreeningConfig struct {
	VolatilityThreshold    float64 `yaml:"volatility_threshold" json:"volatility_threshold"`         // Minimum volatility (fraction)
	LiquidityThreshold     float64 `yaml:"liquidity_threshold" json:"liquidity_threshold"`           // Minimum 24h volume in quote units
	TrendStrengthThreshold float64 `yaml:"trend_strength_threshold" json:"trend_strength_threshold"` // Minimum rolling dispersion
	MinPriceRange          float64 `yaml:"min_price_range" json:"min_price_range"`                   // Range floor, only with EnforceMinPriceRange
	MaxPriceRange          float64 `yaml:"max_price_range" json:"max_price_range"`                   // Hard range ceiling
	GridLevels             int     `yaml:"grid_levels" json:"grid_levels"`                           // Baseline grid level count
	InvestmentMultiplier   float64 `yaml:"investment_multiplier" json:"investment_multiplier"`       // Fraction of 24h volume to allocate

	TrendWindow          int  `yaml:"trend_window" json:"trend_window"`                       // Rolling window for trend strength (14)
	EnforceMinPriceRange bool `yaml:"enforce_min_price_range" json:"enforce_min_price_range"` // Floor the range at MinPriceRange
}

// DefaultScreeningConfig returns the production screening parameters
func DefaultScreeningConfig() ScreeningConfig {
	return ScreeningConfig{
		VolatilityThreshold:    0.02,      // 2% minimum volatility
		LiquidityThreshold:     1_000_000, // $1M daily volume
		TrendStrengthThreshold: 25,
		MinPriceRange:          0.05,
		MaxPriceRange:          0.20,
		GridLevels:             10,
		InvestmentMultiplier:   0.001, // 0.1% of daily volume
		TrendWindow:            14,
	}
}

// Validate fails fast on anything that would break evaluation later:
// negative or non-finite values, zero divisor thresholds, a non-positive range
// ceiling and a one-point trend window.
func (c ScreeningConfig) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"volatility_threshold", c.VolatilityThreshold},
		{"liquidity_threshold", c.LiquidityThreshold},
		{"trend_strength_threshold", c.TrendStrengthThreshold},
		{"min_price_range", c.MinPriceRange},
		{"max_price_range", c.MaxPriceRange},
		{"grid_levels", float64(c.GridLevels)},
		{"investment_multiplier", c.InvestmentMultiplier},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return &ConfigurationError{Field: f.name, Reason: "must be finite"}
		}
		if f.value < 0 {
			return &ConfigurationError{Field: f.name, Reason: fmt.Sprintf("must be non-negative, got %v", f.value)}
		}
	}

	// used as score divisors
	for _, f := range fields[:3] {
		if f.value == 0 {
			return &ConfigurationError{Field: f.name, Reason: "must be greater than zero"}
		}
	}

	if c.MaxPriceRange <= 0 {
		return &ConfigurationError{Field: "max_price_range", Reason: "must be greater than zero"}
	}
	// A ceiling of 1 or more is accepted; the grid's lower bound is then zero or negative.
	// Zero trend_window selects the default window.
	if c.TrendWindow < 0 || c.TrendWindow == 1 {
		return &ConfigurationError{Field: "trend_window", Reason: fmt.Sprintf("must be 0 (default) or at least 2, got %d", c.TrendWindow)}
	}
	if c.EnforceMinPriceRange && c.MinPriceRange > c.MaxPriceRange {
		return &ConfigurationError{Field: "min_price_range", Reason: "must not exceed max_price_range when enforced"}
	}

	return nil
}
