package screener

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sawpanic/gridrun/internal/config"
	"github.com/sawpanic/gridrun/internal/models"
)

var t0 = time.Date(2025, 9, 7, 0, 0, 0, 0, time.UTC)

// oscillating returns n hourly points alternating base+amp, base-amp, ...
func oscillating(base, amp float64, n int) []models.PricePoint {
	out := make([]models.PricePoint, n)
	for i := range out {
		out[i] = models.PricePoint{
			Price:     base + amp*math.Pow(-1, float64(i)),
			Timestamp: t0.Add(time.Duration(i) * time.Hour),
		}
	}
	return out
}

func record(name string, volume float64, history []models.PricePoint) models.PairRecord {
	return models.PairRecord{PairName: name, Volume24h: volume, PriceHistory: history}
}

// passing is a record that clears every default threshold
func passing(name string, volume float64) models.PairRecord {
	return record(name, volume, oscillating(1000, 50, 30))
}

func newScreener(t *testing.T, mutate func(*config.ScreeningConfig), opts ...Option) *Screener {
	t.Helper()
	cfg := config.DefaultScreeningConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := New(cfg, opts...)
	require.NoError(t, err)
	return s
}

func pairNames(recs []models.Recommendation) []string {
	names := make([]string, len(recs))
	for i, r := range recs {
		names[i] = r.Pair
	}
	return names
}
