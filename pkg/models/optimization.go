package models

// PassMetrics carries the summary metrics of one evaluation window of an
// optimization pass. The in-sample and forward windows never overlap in time;
// the collaborator that produced the batch enforces that.
type PassMetrics struct {
	NetProfit      float64 `json:"net_profit"`
	ProfitFactor   float64 `json:"profit_factor"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	TradeCount     int     `json:"trade_count"`
}

// OptimizationPass is one parameter set evaluated on both windows.
type OptimizationPass struct {
	Pass       int                `json:"pass"`
	Parameters map[string]float64 `json:"parameters,omitempty"`
	InSample   *PassMetrics       `json:"in_sample,omitempty"`
	Forward    *PassMetrics       `json:"forward,omitempty"`
}

// Malformed reports whether the pass is missing either metric set. Malformed
// passes are skipped and counted by the selector, never a batch error.
func (p OptimizationPass) Malformed() bool {
	return p.InSample == nil || p.Forward == nil
}
