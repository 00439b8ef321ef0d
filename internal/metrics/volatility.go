package metrics

import (
	"fmt"
	"math"

	"github.com/sawpanic/gridrun/internal/models"
)

// MinVolatilityPoints is the minimum history length for ComputeVolatility
const MinVolatilityPoints = 2

// ComputeVolatility returns the population standard deviation of log-returns
// scaled by sqrt(number of returns). History must be in canonical order; the
// magnitude does not depend on direction, only the sign of each return does.
func ComputeVolatility(history []models.PricePoint) (float64, error) {
	if len(history) < MinVolatilityPoints {
		return 0, fmt.Errorf("volatility needs %d points, got %d: %w",
			MinVolatilityPoints, len(history), ErrInsufficientData)
	}

	logPrices := make([]float64, len(history))
	for i, p := range history {
		if p.Price <= 0 || math.IsNaN(p.Price) || math.IsInf(p.Price, 0) {
			return 0, fmt.Errorf("price %v at index %d: %w", p.Price, i, ErrInvalidPrice)
		}
		logPrices[i] = math.Log(p.Price)
	}

	returns := make([]float64, len(logPrices)-1)
	for i := 1; i < len(logPrices); i++ {
		returns[i-1] = logPrices[i] - logPrices[i-1]
	}

	return populationStdDev(returns) * math.Sqrt(float64(len(returns))), nil
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func populationStdDev(xs []float64) float64 {
	return stdDev(xs, len(xs))
}

// sampleStdDev uses the n-1 denominator; callers guarantee len(xs) >= 2
func sampleStdDev(xs []float64) float64 {
	return stdDev(xs, len(xs)-1)
}

// stdDev works on xs divided by their largest magnitude so squared deviations
// cannot overflow for prices near the float64 limit
func stdDev(xs []float64, denom int) float64 {
	scale := 0.0
	for _, x := range xs {
		scale = math.Max(scale, math.Abs(x))
	}
	if scale == 0 {
		return 0
	}

	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = x / scale
	}

	m := mean(ys)
	ss := 0.0
	for _, y := range ys {
		d := y - m
		ss += d * d
	}
	return scale * math.Sqrt(ss/float64(denom))
}
