package gates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/gridrun/internal/config"
)

func TestThresholdGate(t *testing.T) {
	gate := NewThresholdGate(config.DefaultScreeningConfig())

	testCases := []struct {
		name        string
		inputs      Inputs
		passed      bool
		failedGates []string
	}{
		{"all_pass", Inputs{0.04, 2_000_000, 30}, true, nil},
		{"exactly_at_thresholds", Inputs{0.02, 1_000_000, 25}, true, nil},
		{"weak_volatility", Inputs{0.019, 2_000_000, 30}, false, []string{GateVolatility}},
		{"weak_liquidity", Inputs{0.04, 999_999, 30}, false, []string{GateLiquidity}},
		{"weak_trend", Inputs{0.04, 2_000_000, 24.9}, false, []string{GateTrendStrength}},
		{"everything_weak", Inputs{0, 0, 0}, false, []string{GateVolatility, GateLiquidity, GateTrendStrength}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := gate.Evaluate(tc.inputs)

			assert.Equal(t, tc.passed, result.Passed)
			assert.Equal(t, tc.failedGates, result.FailedGates())
			assert.Len(t, result.FailureReasons(), len(tc.failedGates))
			require.Len(t, result.Checks, 3)
		})
	}
}

func TestGateCheckDetails(t *testing.T) {
	gate := NewThresholdGate(config.DefaultScreeningConfig())
	result := gate.Evaluate(Inputs{Volatility: 0.01, Liquidity: 5_000_000, TrendStrength: 40})

	vol := result.Checks[0]
	assert.Equal(t, GateVolatility, vol.Name)
	assert.False(t, vol.Passed)
	assert.Equal(t, 0.01, vol.Value)
	assert.Equal(t, 0.02, vol.Threshold)
	assert.Equal(t, "Volatility 0.0100 ≥ 0.0200", vol.Description)
}
