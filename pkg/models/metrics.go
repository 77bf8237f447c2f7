package models

// MetricsBundle is the canonical scoring input, supplied by the backtest
// collaborator.
type MetricsBundle struct {
	ProfitFactor   float64 `json:"profit_factor"`
	RecoveryFactor float64 `json:"recovery_factor"`
	WinRatePct     float64 `json:"win_rate_pct"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
	TotalTrades    int     `json:"total_trades"`
}

// MultiMarketResult summarizes validation of the same parameter set across
// additional instruments.
type MultiMarketResult struct {
	Tested     int `json:"tested"     validate:"min=1"`
	Profitable int `json:"profitable" validate:"min=0"`
}

// ScoreCategory buckets a composite score into a verdict label.
type ScoreCategory string

const (
	CategoryReject     ScoreCategory = "reject"
	CategoryPoor       ScoreCategory = "poor"
	CategoryAcceptable ScoreCategory = "acceptable"
	CategoryGood       ScoreCategory = "good"
	CategoryExcellent  ScoreCategory = "excellent"
)

// Score is the composite verdict. Value lies in [0, 100]. Breakdown holds the
// weighted contribution of each sub-score, keyed by sub-score name. Derived and
// recomputable; never persisted independently of its inputs.
type Score struct {
	Value     float64            `json:"value"`
	Category  ScoreCategory      `json:"category"`
	Breakdown map[string]float64 `json:"breakdown,omitempty"`
}
