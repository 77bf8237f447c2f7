// Package scoring folds backtest metrics into one bounded composite score.
package scoring

import (
	"math"

	"github.com/longytravel/simpleEA/pkg/models"
)

// Weights assigns the maximum points each sub-score can contribute. The caps
// below bound each raw metric before weighting, so no single metric can
// saturate the total.
type Weights struct {
	ProfitFactor   float64
	RecoveryFactor float64
	WinRate        float64
	Drawdown       float64
	Sharpe         float64
	TradeCount     float64
	MonteCarlo     float64
	MultiMarket    float64
}

// DefaultWeights sums to 100 when every optional input is present.
func DefaultWeights() Weights {
	return Weights{
		ProfitFactor:   30,
		RecoveryFactor: 20,
		WinRate:        10,
		Drawdown:       15,
		Sharpe:         10,
		TradeCount:     5,
		MonteCarlo:     5,
		MultiMarket:    5,
	}
}

// Caps beyond which a metric earns no further points. Calibration values;
// adjust with the weights, not in isolation.
const (
	profitFactorCap = 3.0
	recoveryCap     = 5.0
	drawdownCap     = 50.0
	sharpeCap       = 2.0
	tradeCountCap   = 500.0
)

// Engine computes composite scores from a fixed weight set.
type Engine struct {
	weights Weights
}

// NewEngine creates a scoring engine. Zero-valued weights drop their sub-score
// entirely.
func NewEngine(weights Weights) *Engine {
	return &Engine{weights: weights}
}

// Score combines the metrics into one value in [0, 100] with a category label.
// The Monte Carlo and multi-market terms are simply omitted when absent; a
// missing optional input is never an error. The function is pure.
func (e *Engine) Score(metrics models.MetricsBundle, mc *models.MonteCarloResult, multiMarket *models.MultiMarketResult) models.Score {
	breakdown := map[string]float64{
		"profit_factor":   clampRatio(metrics.ProfitFactor/profitFactorCap) * e.weights.ProfitFactor,
		"recovery_factor": clampRatio(metrics.RecoveryFactor/recoveryCap) * e.weights.RecoveryFactor,
		"win_rate":        winRateRatio(metrics.WinRatePct) * e.weights.WinRate,
		"drawdown":        clampRatio((drawdownCap-metrics.MaxDrawdownPct)/drawdownCap) * e.weights.Drawdown,
		"sharpe":          clampRatio(metrics.SharpeRatio/sharpeCap) * e.weights.Sharpe,
		"trade_count":     clampRatio(float64(metrics.TotalTrades)/tradeCountCap) * e.weights.TradeCount,
	}

	if mc != nil {
		breakdown["monte_carlo"] = clampRatio(mc.ConfidenceLevel/100) * e.weights.MonteCarlo
	}

	if multiMarket != nil && multiMarket.Tested > 0 {
		breakdown["multi_market"] = clampRatio(float64(multiMarket.Profitable)/float64(multiMarket.Tested)) * e.weights.MultiMarket
	}

	var total float64
	for _, points := range breakdown {
		total += points
	}

	total = math.Min(100, math.Max(0, total))

	return models.Score{
		Value:     total,
		Category:  Categorize(total),
		Breakdown: breakdown,
	}
}

// Categorize maps a score value to its verdict bucket.
func Categorize(value float64) models.ScoreCategory {
	switch {
	case value < 20:
		return models.CategoryReject
	case value < 40:
		return models.CategoryPoor
	case value < 60:
		return models.CategoryAcceptable
	case value < 80:
		return models.CategoryGood
	default:
		return models.CategoryExcellent
	}
}

// winRateRatio peaks at a 50% win rate and decays symmetrically: extreme win
// rates in either direction usually mean a skewed risk profile rather than a
// better strategy.
func winRateRatio(winRatePct float64) float64 {
	return clampRatio(math.Max(0, 100-math.Abs(winRatePct-50)*2) / 100)
}

func clampRatio(ratio float64) float64 {
	if ratio < 0 {
		return 0
	}

	if ratio > 1 {
		return 1
	}

	return ratio
}
