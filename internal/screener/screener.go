package screener

import (
	"fmt"
	"math"

	"github.com/sawpanic/gridrun/internal/config"
	"github.com/sawpanic/gridrun/internal/gates"
	"github.com/sawpanic/gridrun/internal/metrics"
	"github.com/sawpanic/gridrun/internal/models"
)

// Score weights
const (
	WeightVolatility    = 0.4
	WeightLiquidity     = 0.4
	WeightTrendStrength = 0.2
)

// Screener evaluates pair records against immutable thresholds and synthesises
// grid recommendations. It holds no state beyond its configuration and is safe
// for concurrent use.
type Screener struct {
	cfg     config.ScreeningConfig
	engine  metrics.Engine
	gate    *gates.ThresholdGate
	workers int
}

// Option customises a Screener
type Option func(*Screener)

// WithWorkers evaluates pairs across n goroutines; n <= 1 evaluates sequentially
func WithWorkers(n int) Option {
	return func(s *Screener) {
		s.workers = n
	}
}

// New validates cfg and creates a screener
func New(cfg config.ScreeningConfig, opts ...Option) (*Screener, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.TrendWindow == 0 {
		cfg.TrendWindow = metrics.DefaultTrendWindow
	}

	s := &Screener{
		cfg:     cfg,
		engine:  metrics.NewEngine(cfg.TrendWindow),
		gate:    gates.NewThresholdGate(cfg),
		workers: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Config returns the screening configuration
func (s *Screener) Config() config.ScreeningConfig {
	return s.cfg
}

// Score is the weighted sum of each metric relative to its threshold
func (s *Screener) Score(volatility, liquidity, trendStrength float64) float64 {
	return WeightVolatility*(volatility/s.cfg.VolatilityThreshold) +
		WeightLiquidity*(liquidity/s.cfg.LiquidityThreshold) +
		WeightTrendStrength*(trendStrength/s.cfg.TrendStrengthThreshold)
}

// RangePercentage is twice the volatility, capped at max_price_range and,
// when enforced, floored at min_price_range
func (s *Screener) RangePercentage(volatility float64) float64 {
	pct := math.Min(volatility*2, s.cfg.MaxPriceRange)
	if s.cfg.EnforceMinPriceRange {
		pct = math.Max(pct, s.cfg.MinPriceRange)
	}
	return pct
}

// GridRange is the price band around currentPrice shared by the analysis and
// recommendation stages
func (s *Screener) GridRange(currentPrice, volatility float64) models.PriceRange {
	pct := s.RangePercentage(volatility)
	return models.PriceRange{
		Low:  currentPrice * (1 - pct),
		High: currentPrice * (1 + pct),
	}
}

// Evaluate computes metrics for one record and returns its analysis when all
// thresholds pass. A rejected pair yields a nil analysis, the gate result, and
// no error; data problems yield an error.
func (s *Screener) Evaluate(record models.PairRecord) (*models.PairAnalysis, *gates.GateResult, error) {
	if record.Volume24h < 0 || math.IsNaN(record.Volume24h) || math.IsInf(record.Volume24h, 0) {
		return nil, nil, fmt.Errorf("%s: volume %v: %w", record.PairName, record.Volume24h, ErrInvalidVolume)
	}
	if record.CurrentPrice < 0 || math.IsNaN(record.CurrentPrice) || math.IsInf(record.CurrentPrice, 0) {
		return nil, nil, fmt.Errorf("%s: current price %v: %w", record.PairName, record.CurrentPrice, metrics.ErrInvalidPrice)
	}

	snap, err := s.engine.Compute(record.PriceHistory)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", record.PairName, err)
	}

	currentPrice := snap.LastPrice
	if record.CurrentPrice > 0 {
		currentPrice = record.CurrentPrice
	}
	liquidity := record.Volume24h

	score := s.Score(snap.Volatility, liquidity, snap.TrendStrength)

	result := s.gate.Evaluate(gates.Inputs{
		Volatility:    snap.Volatility,
		Liquidity:     liquidity,
		TrendStrength: snap.TrendStrength,
	})
	if !result.Passed {
		return nil, result, nil
	}

	return &models.PairAnalysis{
		PairName:           record.PairName,
		Volatility:         snap.Volatility,
		Liquidity:          liquidity,
		TrendStrength:      snap.TrendStrength,
		CurrentPrice:       currentPrice,
		SuggestedGridRange: s.GridRange(currentPrice, snap.Volatility),
		SuggestedInvest:    liquidity * s.cfg.InvestmentMultiplier,
		SuggestedGridSize:  s.cfg.GridLevels,
		Score:              score,
	}, result, nil
}
