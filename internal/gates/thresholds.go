package gates

import (
	"fmt"

	"github.com/sawpanic/gridrun/internal/config"
)

// Gate names
const (
	GateVolatility    = "volatility"
	GateLiquidity     = "liquidity"
	GateTrendStrength = "trend_strength"
)

// Inputs are the measured values a pair is gated on
type Inputs struct {
	Volatility    float64 `json:"volatility"`
	Liquidity     float64 `json:"liquidity"`
	TrendStrength float64 `json:"trend_strength"`
}

// GateCheck represents the result of a single gate evaluation
type GateCheck struct {
	Name        string  `json:"name"`
	Passed      bool    `json:"passed"`
	Value       float64 `json:"value"`       // Actual measured value
	Threshold   float64 `json:"threshold"`   // Required minimum
	Description string  `json:"description"` // Human-readable description
}

// GateResult contains every check in evaluation order
type GateResult struct {
	Passed bool        `json:"passed"`
	Checks []GateCheck `json:"checks"`
}

// FailureReasons lists the descriptions of failed checks
func (r *GateResult) FailureReasons() []string {
	var reasons []string
	for _, c := range r.Checks {
		if !c.Passed {
			reasons = append(reasons, c.Description)
		}
	}
	return reasons
}

// FailedGates lists the names of failed checks
func (r *GateResult) FailedGates() []string {
	var names []string
	for _, c := range r.Checks {
		if !c.Passed {
			names = append(names, c.Name)
		}
	}
	return names
}

// ThresholdGate enforces the three minimum thresholds. All of them are hard
// requirements: a pair strong in two dimensions but weak in the third is rejected.
type ThresholdGate struct {
	volatility    float64
	liquidity     float64
	trendStrength float64
}

// NewThresholdGate creates a gate from screening thresholds
func NewThresholdGate(cfg config.ScreeningConfig) *ThresholdGate {
	return &ThresholdGate{
		volatility:    cfg.VolatilityThreshold,
		liquidity:     cfg.LiquidityThreshold,
		trendStrength: cfg.TrendStrengthThreshold,
	}
}

// Evaluate runs every check; it never short-circuits so callers see all failures
func (g *ThresholdGate) Evaluate(in Inputs) *GateResult {
	result := &GateResult{
		Checks: []GateCheck{
			check(GateVolatility, in.Volatility, g.volatility, "Volatility %.4f ≥ %.4f"),
			check(GateLiquidity, in.Liquidity, g.liquidity, "Liquidity %.0f ≥ %.0f"),
			check(GateTrendStrength, in.TrendStrength, g.trendStrength, "Trend strength %.2f ≥ %.2f"),
		},
	}

	result.Passed = true
	for _, c := range result.Checks {
		result.Passed = result.Passed && c.Passed
	}
	return result
}

func check(name string, value, threshold float64, format string) GateCheck {
	return GateCheck{
		Name:        name,
		Passed:      value >= threshold,
		Value:       value,
		Threshold:   threshold,
		Description: fmt.Sprintf(format, value, threshold),
	}
}
