package screener

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/gridrun/internal/config"
	"github.com/sawpanic/gridrun/internal/models"
)

func TestScreenSortsByScoreDescending(t *testing.T) {
	// identical histories, so only the liquidity term separates the scores
	records := []models.PairRecord{
		passing("LOW", 1_250_000),
		passing("HIGH", 5_250_000),
		passing("MID", 2_500_000),
	}

	for _, workers := range []int{1, 4} {
		s := newScreener(t, nil, WithWorkers(workers))
		report := s.Screen(records)

		require.Len(t, report.Recommendations, 3)
		assert.Equal(t, []string{"HIGH", "MID", "LOW"}, pairNames(report.Recommendations))
		for i := 1; i < len(report.Recommendations); i++ {
			assert.Greater(t,
				report.Recommendations[i-1].Analysis.Score,
				report.Recommendations[i].Analysis.Score)
		}
	}
}

func TestScreenTiesKeepInputOrder(t *testing.T) {
	records := []models.PairRecord{
		passing("B", 2_000_000),
		passing("A", 2_000_000),
		passing("TOP", 9_000_000),
		passing("C", 2_000_000),
	}

	for _, workers := range []int{1, 3, 16} {
		s := newScreener(t, nil, WithWorkers(workers))
		report := s.Screen(records)
		assert.Equal(t, []string{"TOP", "B", "A", "C"}, pairNames(report.Recommendations))
	}
}

func TestScreenThresholdMonotonicity(t *testing.T) {
	rec := passing("ETH/USDT", 2_000_000)

	s := newScreener(t, nil)
	analysis, _, err := s.Evaluate(rec)
	require.NoError(t, err)
	require.NotNil(t, analysis)

	report := s.Screen([]models.PairRecord{rec})
	require.Equal(t, []string{"ETH/USDT"}, pairNames(report.Recommendations))

	raised := newScreener(t, func(c *config.ScreeningConfig) {
		c.VolatilityThreshold = analysis.Volatility * 1.01
	})
	report = raised.Screen([]models.PairRecord{rec})
	assert.Empty(t, report.Recommendations)
	require.Len(t, report.Rejected, 1)
	assert.Equal(t, []string{"volatility"}, report.Rejected[0].FailedGates)
	assert.Equal(t, 1, report.Evaluated)
}

func TestScreenPartialFailureIsolation(t *testing.T) {
	records := []models.PairRecord{
		passing("BTC/USDT", 5_000_000),
		record("BROKEN/USDT", 5_000_000, oscillating(1000, 50, 1)),
		passing("ETH/USDT", 2_000_000),
		passing("AVAX/USDT", 100_000),
		record("MATIC/USDT", 50_000_000, oscillating(1, 0.05, 30)),
	}

	s := newScreener(t, nil)

	var report Report
	require.NotPanics(t, func() { report = s.Screen(records) })

	assert.Equal(t, 4, report.Evaluated)
	assert.Equal(t, 2, report.Passed())
	assert.Len(t, report.Rejected, 2)
	require.Len(t, report.Skipped, 1)

	skip := report.Skipped[0]
	assert.Equal(t, "BROKEN/USDT", skip.PairName)
	assert.Equal(t, ReasonInsufficientData, skip.Reason)
	assert.NotEmpty(t, skip.Error)
	assert.Equal(t, map[string]int{ReasonInsufficientData: 1}, report.SkipCounts())

	assert.Equal(t, []string{"BTC/USDT", "ETH/USDT"}, pairNames(report.Recommendations))
}

func TestScreenDivisionByZeroIsContained(t *testing.T) {
	s := newScreener(t, func(c *config.ScreeningConfig) {
		c.GridLevels = 0
		c.VolatilityThreshold = 0.001
		c.TrendStrengthThreshold = 0.1
	})

	// ±0.02% swings: volatility just above 0.002, a sub-1% band, zero refined levels
	narrow := record("NARROW", 2_000_000, oscillating(1000, 0.2, 30))
	report := s.Screen([]models.PairRecord{narrow, passing("WIDE", 2_000_000)})

	require.Len(t, report.Skipped, 1)
	assert.Equal(t, ReasonDivisionByZero, report.Skipped[0].Reason)
	assert.Equal(t, []string{"WIDE"}, pairNames(report.Recommendations))
}

func TestScreenIsIdempotent(t *testing.T) {
	records := []models.PairRecord{
		passing("A", 3_000_000),
		record("B", 3_000_000, oscillating(1000, 50, 5)),
		passing("C", 4_000_000),
	}
	s := newScreener(t, nil, WithWorkers(2))

	first := s.Screen(records)
	second := s.Screen(records)

	assert.Equal(t, first.Recommendations, second.Recommendations)
	assert.Equal(t, first.Evaluated, second.Evaluated)
	assert.Equal(t, first.Rejected, second.Rejected)
	assert.Equal(t, len(first.Skipped), len(second.Skipped))
}

func TestScreenEmptyInput(t *testing.T) {
	s := newScreener(t, nil)
	report := s.Screen(nil)

	assert.Empty(t, report.Recommendations)
	assert.NotNil(t, report.Recommendations)
	assert.Zero(t, report.Evaluated)
}

func TestReportTop(t *testing.T) {
	s := newScreener(t, nil)
	report := s.Screen([]models.PairRecord{
		passing("A", 2_000_000),
		passing("B", 3_000_000),
		passing("C", 4_000_000),
	})

	assert.Equal(t, []string{"C", "B"}, pairNames(report.Top(2)))
	assert.Len(t, report.Top(0), 3)
	assert.Len(t, report.Top(10), 3)
}

func TestSkipReason(t *testing.T) {
	assert.Equal(t, ReasonDivisionByZero, SkipReason(ErrDivisionByZero))
	assert.Equal(t, ReasonInvalidVolume, SkipReason(ErrInvalidVolume))
	assert.Equal(t, ReasonInternal, SkipReason(ErrInternal))
}
