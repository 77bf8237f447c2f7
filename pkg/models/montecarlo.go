package models

// MonteCarloResult summarizes a resampling run over a trade sequence. All
// percentage fields lie in [0, 100] by construction. Immutable once computed.
type MonteCarloResult struct {
	Iterations     int     `json:"iterations"`
	TradeCount     int     `json:"trade_count"`
	StartingEquity float64 `json:"starting_equity"`

	// Gate metrics.
	ConfidenceLevel   float64 `json:"confidence_level"`
	ProbabilityOfRuin float64 `json:"probability_of_ruin"`
	RuinThresholdPct  float64 `json:"ruin_threshold_pct"`

	// Profit distribution across iterations, relative to starting equity.
	MedianProfit         float64 `json:"median_profit"`
	MeanProfit           float64 `json:"mean_profit"`
	Profit5thPercentile  float64 `json:"profit_5th_percentile"`
	Profit95thPercentile float64 `json:"profit_95th_percentile"`

	// Drawdown distribution across iterations, in percent of peak equity.
	MedianMaxDrawdownPct float64 `json:"median_max_drawdown_pct"`
	MaxDrawdownPct95th   float64 `json:"max_drawdown_pct_95th"`

	// The unshuffled sequence, for comparison against the distribution.
	OriginalProfit         float64 `json:"original_profit"`
	OriginalMaxDrawdownPct float64 `json:"original_max_drawdown_pct"`

	// Seed is set when the run was explicitly seeded and therefore reproducible.
	Seed *int64 `json:"seed,omitempty"`

	// Degenerate marks a run over zero trades. Downstream gating must treat a
	// degenerate result as a failure, not as a confident pass.
	Degenerate bool `json:"degenerate,omitempty"`
}
