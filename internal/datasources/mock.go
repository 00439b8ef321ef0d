package datasources

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/sawpanic/gridrun/internal/models"
)

// MockPair seeds one synthetic pair
type MockPair struct {
	Name      string
	BasePrice float64
	Volume24h float64
}

// DefaultMockPairs mirrors the default trading universe
func DefaultMockPairs() []MockPair {
	return []MockPair{
		{Name: "BTC/USDT", BasePrice: 30000, Volume24h: 5_000_000_000},
		{Name: "ETH/USDT", BasePrice: 2000, Volume24h: 2_000_000_000},
		{Name: "SOL/USDT", BasePrice: 100, Volume24h: 500_000_000},
		{Name: "AVAX/USDT", BasePrice: 50, Volume24h: 100_000_000},
		{Name: "MATIC/USDT", BasePrice: 1, Volume24h: 50_000_000},
	}
}

// MockSource generates hourly lognormal random walks. The same seed always
// produces the same prices.
type MockSource struct {
	pairs      []MockPair
	seed       int64
	days       int
	volatility float64
	now        func() time.Time
}

// NewMockSource creates a generator over DefaultMockPairs
func NewMockSource(seed int64, days int, volatility float64) *MockSource {
	if days <= 0 {
		days = 30
	}
	if volatility <= 0 {
		volatility = 0.02
	}
	return &MockSource{
		pairs:      DefaultMockPairs(),
		seed:       seed,
		days:       days,
		volatility: volatility,
		now:        time.Now,
	}
}

// WithPairs replaces the generated pair set
func (m *MockSource) WithPairs(pairs []MockPair) *MockSource {
	m.pairs = pairs
	return m
}

// Name implements PairSource
func (m *MockSource) Name() string {
	return KindMock
}

// Fetch implements PairSource
func (m *MockSource) Fetch(ctx context.Context) ([]models.PairRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(m.seed))
	end := m.now().UTC().Truncate(time.Hour)
	n := m.days * 24

	records := make([]models.PairRecord, 0, len(m.pairs))
	for _, p := range m.pairs {
		history := make([]models.PricePoint, n)
		price := p.BasePrice
		for i := 0; i < n; i++ {
			price *= math.Exp(rng.NormFloat64() * m.volatility)
			history[i] = models.PricePoint{
				Price:     price,
				Timestamp: end.Add(-time.Duration(n-1-i) * time.Hour),
			}
		}

		records = append(records, models.PairRecord{
			PairName:     p.Name,
			Volume24h:    p.Volume24h,
			CurrentPrice: p.BasePrice,
			PriceHistory: history,
		})
	}
	return records, nil
}
