package screener

import (
	"fmt"
	"math"

	"github.com/sawpanic/gridrun/internal/models"
)

// stepFraction is the target spacing of a refined grid, as a fraction of price
const stepFraction = 0.01

// RefinedGridSize returns the baseline level count, scaled up so that each
// step is no coarser than roughly 1% of currentPrice
func (s *Screener) RefinedGridSize(currentPrice float64, r models.PriceRange) int {
	byStep := int(math.Floor(r.Width() / (currentPrice * stepFraction)))
	if byStep > s.cfg.GridLevels {
		return byStep
	}
	return s.cfg.GridLevels
}

// BuildRecommendation refines an analysis into a grid setup with scenarios
func (s *Screener) BuildRecommendation(analysis models.PairAnalysis) (models.GridRecommendation, error) {
	price := analysis.CurrentPrice
	if price <= 0 {
		return models.GridRecommendation{}, fmt.Errorf("%s: current price %v: %w",
			analysis.PairName, price, ErrDivisionByZero)
	}

	r := s.GridRange(price, analysis.Volatility)
	gridSize := s.RefinedGridSize(price, r)

	scenarios, err := GenerateScenarios(price, r.Low, r.High, gridSize)
	if err != nil {
		return models.GridRecommendation{}, fmt.Errorf("%s: %w", analysis.PairName, err)
	}

	return models.GridRecommendation{
		GridRange:      r,
		GridSize:       gridSize,
		InvestmentSize: analysis.Liquidity * s.cfg.InvestmentMultiplier,
		Scenarios:      scenarios,
	}, nil
}

// GenerateScenarios returns closed-form uptrend, downtrend and sideways
// projections for a grid. Trade counts are floored.
func GenerateScenarios(currentPrice, lower, upper float64, gridSize int) (map[string]models.ScenarioResult, error) {
	if gridSize <= 0 {
		return nil, fmt.Errorf("grid size %d: %w", gridSize, ErrDivisionByZero)
	}
	if currentPrice == 0 {
		return nil, fmt.Errorf("current price is zero: %w", ErrDivisionByZero)
	}

	interval := (upper - lower) / float64(gridSize)
	if interval == 0 {
		return nil, fmt.Errorf("grid interval is zero: %w", ErrDivisionByZero)
	}

	return map[string]models.ScenarioResult{
		models.ScenarioUptrend: {
			Description:        "Price moves from current to upper range",
			PotentialProfitPct: (upper - currentPrice) / currentPrice * 100,
			ExpectedTradeCount: floorInt((upper - currentPrice) / interval),
		},
		models.ScenarioDowntrend: {
			Description:        "Price moves from current to lower range",
			PotentialProfitPct: (currentPrice - lower) / currentPrice * 100,
			ExpectedTradeCount: floorInt((currentPrice - lower) / interval),
		},
		models.ScenarioSideways: {
			Description:        "Price oscillates within 25% of the range",
			PotentialProfitPct: (interval / currentPrice) * 100 * float64(gridSize/4),
			ExpectedTradeCount: gridSize / 2,
		},
	}, nil
}

func floorInt(x float64) int {
	return int(math.Floor(x))
}
