package models

import "time"

// Scenario names produced for every grid recommendation
const (
	ScenarioUptrend   = "uptrend"
	ScenarioDowntrend = "downtrend"
	ScenarioSideways  = "sideways"
)

// PricePoint is one observed trade or quote
type PricePoint struct {
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// PairRecord is the per-pair input handed over by a data source.
// CurrentPrice is optional; zero means the source did not supply one.
type PairRecord struct {
	PairName     string       `json:"pair_name"`
	Volume24h    float64      `json:"volume_24h"`
	CurrentPrice float64      `json:"current_price,omitempty"`
	PriceHistory []PricePoint `json:"price_history"`
}

// PriceRange is a (low, high) price band
type PriceRange struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Width returns High - Low
func (r PriceRange) Width() float64 {
	return r.High - r.Low
}

// PairAnalysis is created for every pair that passes the threshold gates
type PairAnalysis struct {
	PairName           string     `json:"pair_name"`
	Volatility         float64    `json:"volatility"`
	Liquidity          float64    `json:"liquidity"`
	TrendStrength      float64    `json:"trend_strength"`
	CurrentPrice       float64    `json:"current_price"`
	SuggestedGridRange PriceRange `json:"suggested_grid_range"`
	SuggestedInvest    float64    `json:"suggested_investment"`
	SuggestedGridSize  int        `json:"suggested_grid_size"`
	Score              float64    `json:"score"`
}

// ScenarioResult is a closed-form projection for one market scenario
type ScenarioResult struct {
	Description        string  `json:"description"`
	PotentialProfitPct float64 `json:"potential_profit_pct"`
	ExpectedTradeCount int     `json:"expected_trade_count"`
}

// GridRecommendation is the refined grid setup derived from a PairAnalysis
type GridRecommendation struct {
	GridRange      PriceRange                `json:"grid_range"`
	GridSize       int                       `json:"grid_size"`
	InvestmentSize float64                   `json:"investment_size"`
	Scenarios      map[string]ScenarioResult `json:"scenarios"`
}

// AnalysisSummary is the outbound view of a PairAnalysis
type AnalysisSummary struct {
	Volatility    float64 `json:"volatility"`
	Liquidity     float64 `json:"liquidity"`
	TrendStrength float64 `json:"trend_strength"`
	Score         float64 `json:"score"`
	CurrentPrice  float64 `json:"current_price"`
}

// Recommendation is one ranked entry of a screening run
type Recommendation struct {
	Pair           string             `json:"pair"`
	Analysis       AnalysisSummary    `json:"analysis"`
	Recommendation GridRecommendation `json:"recommendations"`
}

// ScenarioOrder lists scenario names in presentation order
func ScenarioOrder() []string {
	return []string{ScenarioUptrend, ScenarioDowntrend, ScenarioSideways}
}
