package metrics

import (
	"fmt"
	"math"

	"github.com/sawpanic/gridrun/internal/models"
)

// Snapshot holds the metrics computed for one price history
type Snapshot struct {
	Volatility    float64 `json:"volatility"`
	TrendStrength float64 `json:"trend_strength"`
	LastPrice     float64 `json:"last_price"`
	Points        int     `json:"points"`
}

// Engine computes volatility and trend strength with a fixed trend window
type Engine struct {
	TrendWindow int
}

// NewEngine creates an engine; a non-positive window falls back to DefaultTrendWindow
func NewEngine(trendWindow int) Engine {
	if trendWindow <= 0 {
		trendWindow = DefaultTrendWindow
	}
	return Engine{TrendWindow: trendWindow}
}

// Compute normalises history to canonical order and computes every metric.
// Volatility is checked first so a one-point history reports the volatility requirement.
func (e Engine) Compute(history []models.PricePoint) (Snapshot, error) {
	ordered := SortHistory(history)

	vol, err := ComputeVolatility(ordered)
	if err != nil {
		return Snapshot{}, err
	}

	trend, err := ComputeTrendStrength(ordered, e.TrendWindow)
	if err != nil {
		return Snapshot{}, err
	}

	last, err := LastPrice(ordered)
	if err != nil {
		return Snapshot{}, err
	}

	if !finite(vol) || !finite(trend) {
		return Snapshot{}, fmt.Errorf("volatility %v, trend strength %v: %w", vol, trend, ErrInvalidPrice)
	}

	return Snapshot{
		Volatility:    vol,
		TrendStrength: trend,
		LastPrice:     last,
		Points:        len(ordered),
	}, nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
