package metrics

import (
	"fmt"
	"math"

	"github.com/sawpanic/gridrun/internal/models"
)

// DefaultTrendWindow is the rolling window used for trend strength
const DefaultTrendWindow = 14

// ComputeTrendStrength returns the rolling sample standard deviation of raw
// prices over the last window points, i.e. the rolling statistic evaluated at
// the most recent point. It is a dispersion proxy measured in price units, not
// a directional indicator.
func ComputeTrendStrength(history []models.PricePoint, window int) (float64, error) {
	if window < 2 {
		return 0, fmt.Errorf("trend window must be at least 2, got %d", window)
	}
	if len(history) < window {
		return 0, fmt.Errorf("trend strength needs %d points, got %d: %w",
			window, len(history), ErrInsufficientData)
	}

	tail := history[len(history)-window:]
	prices := make([]float64, window)
	for i, p := range tail {
		if p.Price <= 0 || math.IsNaN(p.Price) || math.IsInf(p.Price, 0) {
			return 0, fmt.Errorf("price %v in trend window: %w", p.Price, ErrInvalidPrice)
		}
		prices[i] = p.Price
	}

	return sampleStdDev(prices), nil
}
