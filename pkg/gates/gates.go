// Package gates evaluates business thresholds against evaluation results.
// Gate failures are ordinary outcomes with human-readable reasons, meant to be
// recorded on the step that failed, never raised as errors.
package gates

import (
	"fmt"

	"github.com/longytravel/simpleEA/pkg/models"
)

// Thresholds holds the externally supplied pass/fail limits. Zero values
// disable their check, so a caller can gate on any subset.
type Thresholds struct {
	MinProfitFactor      float64 `json:"min_profit_factor"      validate:"min=0"`
	MaxDrawdownPct       float64 `json:"max_drawdown_pct"       validate:"min=0,max=100"`
	MinTrades            int     `json:"min_trades"             validate:"min=0"`
	MinWinRatePct        float64 `json:"min_win_rate_pct"       validate:"min=0,max=100"`
	MinConfidenceLevel   float64 `json:"min_confidence_level"   validate:"min=0,max=100"`
	MaxProbabilityOfRuin float64 `json:"max_probability_of_ruin" validate:"min=0,max=100"`
}

// Result is one named gate check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Reason string `json:"reason,omitempty"`
}

func pass(name string) Result {
	return Result{Name: name, Passed: true}
}

func fail(name, format string, args ...any) Result {
	return Result{Name: name, Passed: false, Reason: fmt.Sprintf(format, args...)}
}

// CheckMetrics gates the backtest metrics bundle.
func CheckMetrics(metrics models.MetricsBundle, thresholds Thresholds) []Result {
	results := make([]Result, 0, 4)

	if thresholds.MinProfitFactor > 0 {
		if metrics.ProfitFactor < thresholds.MinProfitFactor {
			results = append(results, fail("profit_factor",
				"profit factor %.2f below minimum %.2f", metrics.ProfitFactor, thresholds.MinProfitFactor))
		} else {
			results = append(results, pass("profit_factor"))
		}
	}

	if thresholds.MaxDrawdownPct > 0 {
		if metrics.MaxDrawdownPct > thresholds.MaxDrawdownPct {
			results = append(results, fail("max_drawdown",
				"max drawdown %.2f%% above limit %.2f%%", metrics.MaxDrawdownPct, thresholds.MaxDrawdownPct))
		} else {
			results = append(results, pass("max_drawdown"))
		}
	}

	if thresholds.MinTrades > 0 {
		if metrics.TotalTrades < thresholds.MinTrades {
			results = append(results, fail("trade_count",
				"%d trades below minimum %d", metrics.TotalTrades, thresholds.MinTrades))
		} else {
			results = append(results, pass("trade_count"))
		}
	}

	if thresholds.MinWinRatePct > 0 {
		if metrics.WinRatePct < thresholds.MinWinRatePct {
			results = append(results, fail("win_rate",
				"win rate %.2f%% below minimum %.2f%%", metrics.WinRatePct, thresholds.MinWinRatePct))
		} else {
			results = append(results, pass("win_rate"))
		}
	}

	return results
}

// CheckMonteCarlo gates a resampling result. A degenerate result always fails:
// zero trades must never read as confidence.
func CheckMonteCarlo(mc *models.MonteCarloResult, thresholds Thresholds) []Result {
	if mc == nil {
		return []Result{fail("monte_carlo", "no Monte Carlo result available")}
	}

	if mc.Degenerate {
		return []Result{fail("monte_carlo", "degenerate result: no trades to resample")}
	}

	results := make([]Result, 0, 2)

	if thresholds.MinConfidenceLevel > 0 {
		if mc.ConfidenceLevel < thresholds.MinConfidenceLevel {
			results = append(results, fail("mc_confidence",
				"confidence level %.2f below minimum %.2f", mc.ConfidenceLevel, thresholds.MinConfidenceLevel))
		} else {
			results = append(results, pass("mc_confidence"))
		}
	}

	if thresholds.MaxProbabilityOfRuin > 0 {
		if mc.ProbabilityOfRuin > thresholds.MaxProbabilityOfRuin {
			results = append(results, fail("mc_ruin",
				"probability of ruin %.2f above limit %.2f", mc.ProbabilityOfRuin, thresholds.MaxProbabilityOfRuin))
		} else {
			results = append(results, pass("mc_ruin"))
		}
	}

	return results
}

// CheckSelection gates the robust pass selection. An empty robust set is a
// pipeline failure for the caller even though the selector treats it as valid.
func CheckSelection(robustCount int) Result {
	if robustCount == 0 {
		return fail("robust_selection", "no pass was profitable in both windows")
	}

	return pass("robust_selection")
}

// Evaluate folds gate results into an overall verdict plus the failure reasons.
func Evaluate(results []Result) (bool, []string) {
	reasons := make([]string, 0)

	for _, result := range results {
		if !result.Passed {
			reasons = append(reasons, result.Reason)
		}
	}

	return len(reasons) == 0, reasons
}
