package gates_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/longytravel/simpleEA/pkg/gates"
	"github.com/longytravel/simpleEA/pkg/models"
)

func testThresholds() gates.Thresholds {
	return gates.Thresholds{
		MinProfitFactor:      1.5,
		MaxDrawdownPct:       30,
		MinTrades:            50,
		MinWinRatePct:        40,
		MinConfidenceLevel:   70,
		MaxProbabilityOfRuin: 5,
	}
}

func TestCheckMetrics_AllPass(t *testing.T) {
	t.Parallel()

	results := gates.CheckMetrics(models.MetricsBundle{
		ProfitFactor:   1.8,
		MaxDrawdownPct: 22,
		WinRatePct:     48,
		TotalTrades:    130,
	}, testThresholds())

	ok, reasons := gates.Evaluate(results)
	assert.True(t, ok)
	assert.Empty(t, reasons)
	assert.Len(t, results, 4)
}

func TestCheckMetrics_FailuresCarryReasons(t *testing.T) {
	t.Parallel()

	results := gates.CheckMetrics(models.MetricsBundle{
		ProfitFactor:   1.1,
		MaxDrawdownPct: 45,
		WinRatePct:     48,
		TotalTrades:    20,
	}, testThresholds())

	ok, reasons := gates.Evaluate(results)
	assert.False(t, ok)
	require.Len(t, reasons, 3)
	assert.Contains(t, reasons[0], "profit factor")
	assert.Contains(t, reasons[1], "drawdown")
	assert.Contains(t, reasons[2], "trades")
}

func TestCheckMetrics_ZeroThresholdsDisableChecks(t *testing.T) {
	t.Parallel()

	results := gates.CheckMetrics(models.MetricsBundle{ProfitFactor: 0.5}, gates.Thresholds{})

	assert.Empty(t, results)

	ok, _ := gates.Evaluate(results)
	assert.True(t, ok)
}

func TestCheckMonteCarlo(t *testing.T) {
	t.Parallel()

	t.Run("passes within thresholds", func(t *testing.T) {
		results := gates.CheckMonteCarlo(&models.MonteCarloResult{
			ConfidenceLevel:   85,
			ProbabilityOfRuin: 1.5,
		}, testThresholds())

		ok, _ := gates.Evaluate(results)
		assert.True(t, ok)
	})

	t.Run("low confidence fails", func(t *testing.T) {
		results := gates.CheckMonteCarlo(&models.MonteCarloResult{
			ConfidenceLevel:   40,
			ProbabilityOfRuin: 1,
		}, testThresholds())

		ok, reasons := gates.Evaluate(results)
		assert.False(t, ok)
		require.Len(t, reasons, 1)
		assert.Contains(t, reasons[0], "confidence")
	})

	t.Run("high ruin fails", func(t *testing.T) {
		results := gates.CheckMonteCarlo(&models.MonteCarloResult{
			ConfidenceLevel:   90,
			ProbabilityOfRuin: 12,
		}, testThresholds())

		ok, reasons := gates.Evaluate(results)
		assert.False(t, ok)
		require.Len(t, reasons, 1)
		assert.Contains(t, reasons[0], "ruin")
	})

	t.Run("degenerate result always fails", func(t *testing.T) {
		results := gates.CheckMonteCarlo(&models.MonteCarloResult{
			ConfidenceLevel: 0,
			Degenerate:      true,
		}, testThresholds())

		ok, reasons := gates.Evaluate(results)
		assert.False(t, ok)
		require.Len(t, reasons, 1)
		assert.Contains(t, reasons[0], "degenerate")
	})

	t.Run("missing result fails", func(t *testing.T) {
		ok, reasons := gates.Evaluate(gates.CheckMonteCarlo(nil, testThresholds()))
		assert.False(t, ok)
		assert.NotEmpty(t, reasons)
	})
}

func TestCheckSelection(t *testing.T) {
	t.Parallel()

	assert.True(t, gates.CheckSelection(3).Passed)

	empty := gates.CheckSelection(0)
	assert.False(t, empty.Passed)
	assert.Contains(t, empty.Reason, "profitable in both windows")
}
