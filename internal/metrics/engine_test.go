package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/gridrun/internal/models"
)

var t0 = time.Date(2025, 9, 7, 0, 0, 0, 0, time.UTC)

func series(prices ...float64) []models.PricePoint {
	out := make([]models.PricePoint, len(prices))
	for i, p := range prices {
		out[i] = models.PricePoint{Price: p, Timestamp: t0.Add(time.Duration(i) * time.Hour)}
	}
	return out
}

func ramp(from, to int) []models.PricePoint {
	prices := make([]float64, 0, to-from+1)
	for i := from; i <= to; i++ {
		prices = append(prices, float64(i))
	}
	return series(prices...)
}

func TestComputeVolatility(t *testing.T) {
	t.Run("three_points", func(t *testing.T) {
		r1 := math.Log(110.0 / 100.0)
		r2 := math.Log(99.0 / 110.0)
		m := (r1 + r2) / 2
		want := math.Sqrt(((r1-m)*(r1-m)+(r2-m)*(r2-m))/2) * math.Sqrt(2)

		got, err := ComputeVolatility(series(100, 110, 99))
		require.NoError(t, err)
		assert.InDelta(t, want, got, 1e-12)
	})

	t.Run("flat_prices", func(t *testing.T) {
		got, err := ComputeVolatility(series(50, 50, 50, 50))
		require.NoError(t, err)
		assert.Equal(t, 0.0, got)
	})

	t.Run("constant_growth_has_no_dispersion", func(t *testing.T) {
		prices := make([]float64, 30)
		for i := range prices {
			prices[i] = 100 * math.Pow(1.01, float64(i))
		}
		got, err := ComputeVolatility(series(prices...))
		require.NoError(t, err)
		assert.InDelta(t, 0.0, got, 1e-9)
	})

	t.Run("direction_does_not_change_magnitude", func(t *testing.T) {
		asc := []float64{100, 104, 97, 101, 110, 108}
		desc := make([]float64, len(asc))
		for i := range asc {
			desc[i] = asc[len(asc)-1-i]
		}
		a, err := ComputeVolatility(series(asc...))
		require.NoError(t, err)
		d, err := ComputeVolatility(series(desc...))
		require.NoError(t, err)
		assert.InDelta(t, a, d, 1e-12)
	})

	t.Run("single_point", func(t *testing.T) {
		_, err := ComputeVolatility(series(100))
		assert.ErrorIs(t, err, ErrInsufficientData)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := ComputeVolatility(nil)
		assert.ErrorIs(t, err, ErrInsufficientData)
	})

	for name, bad := range map[string]float64{"zero": 0, "negative": -3, "nan": math.NaN()} {
		t.Run("invalid_price_"+name, func(t *testing.T) {
			_, err := ComputeVolatility(series(100, bad, 101))
			assert.ErrorIs(t, err, ErrInvalidPrice)
		})
	}
}

func TestComputeTrendStrength(t *testing.T) {
	// sample std of 14 consecutive integers is sqrt(14*15/12)
	want := math.Sqrt(17.5)

	t.Run("exact_window", func(t *testing.T) {
		got, err := ComputeTrendStrength(ramp(1, 14), DefaultTrendWindow)
		require.NoError(t, err)
		assert.InDelta(t, want, got, 1e-12)
	})

	t.Run("uses_most_recent_window", func(t *testing.T) {
		history := append(series(1000, 1, 5000), ramp(7, 20)...)
		got, err := ComputeTrendStrength(history, DefaultTrendWindow)
		require.NoError(t, err)
		assert.InDelta(t, want, got, 1e-12)
	})

	t.Run("alternating_prices", func(t *testing.T) {
		prices := make([]float64, 14)
		for i := range prices {
			prices[i] = 1000 + 50*math.Pow(-1, float64(i))
		}
		got, err := ComputeTrendStrength(series(prices...), 14)
		require.NoError(t, err)
		assert.InDelta(t, 50*math.Sqrt(14.0/13.0), got, 1e-9)
	})

	t.Run("short_history_fails", func(t *testing.T) {
		_, err := ComputeTrendStrength(ramp(1, 13), DefaultTrendWindow)
		assert.ErrorIs(t, err, ErrInsufficientData)
	})

	t.Run("custom_window", func(t *testing.T) {
		got, err := ComputeTrendStrength(series(10, 20, 30), 3)
		require.NoError(t, err)
		assert.InDelta(t, 10.0, got, 1e-12)
	})

	t.Run("prices_near_float_limit_stay_finite", func(t *testing.T) {
		prices := make([]float64, 14)
		for i := range prices {
			prices[i] = 1e300 + 5e299*math.Pow(-1, float64(i))
		}
		got, err := ComputeTrendStrength(series(prices...), 14)
		require.NoError(t, err)
		assert.False(t, math.IsInf(got, 0))
		assert.InEpsilon(t, 5e299*math.Sqrt(14.0/13.0), got, 1e-9)
	})

	t.Run("window_too_small", func(t *testing.T) {
		_, err := ComputeTrendStrength(ramp(1, 20), 1)
		assert.Error(t, err)
	})
}

func TestSortHistory(t *testing.T) {
	asc := ramp(1, 5)
	desc := make([]models.PricePoint, len(asc))
	for i := range asc {
		desc[i] = asc[len(asc)-1-i]
	}

	sorted := SortHistory(desc)
	assert.Equal(t, Prices(asc), Prices(sorted))
	// input untouched
	assert.Equal(t, 5.0, desc[0].Price)

	t.Run("missing_timestamps_keep_input_order", func(t *testing.T) {
		raw := []models.PricePoint{{Price: 3}, {Price: 1}, {Price: 2}}
		assert.Equal(t, []float64{3, 1, 2}, Prices(SortHistory(raw)))
	})
}

func TestEngineCompute(t *testing.T) {
	engine := NewEngine(0)
	assert.Equal(t, DefaultTrendWindow, engine.TrendWindow)

	history := ramp(1, 20)
	// newest first, as the Dune query delivers it
	reversed := make([]models.PricePoint, len(history))
	for i := range history {
		reversed[i] = history[len(history)-1-i]
	}

	snap, err := engine.Compute(reversed)
	require.NoError(t, err)
	assert.Equal(t, 20.0, snap.LastPrice)
	assert.Equal(t, 20, snap.Points)
	assert.InDelta(t, math.Sqrt(17.5), snap.TrendStrength, 1e-12)

	direct, err := ComputeVolatility(history)
	require.NoError(t, err)
	assert.InDelta(t, direct, snap.Volatility, 1e-12)

	t.Run("one_point_reports_insufficient_data", func(t *testing.T) {
		_, err := engine.Compute(series(10))
		assert.ErrorIs(t, err, ErrInsufficientData)
	})

	t.Run("short_for_trend", func(t *testing.T) {
		_, err := engine.Compute(ramp(1, 10))
		assert.ErrorIs(t, err, ErrInsufficientData)
	})

	t.Run("huge_prices_yield_finite_metrics", func(t *testing.T) {
		prices := make([]float64, 30)
		for i := range prices {
			prices[i] = 1e300 + 5e299*math.Pow(-1, float64(i))
		}
		snap, err := engine.Compute(series(prices...))
		require.NoError(t, err)
		assert.True(t, finite(snap.Volatility))
		assert.True(t, finite(snap.TrendStrength))
	})
}
