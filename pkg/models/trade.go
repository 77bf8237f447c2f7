package models

// TradeRecord is one closed trade from a backtest. NetProfit is signed and
// already net of commission and swap. Ordinal preserves the original execution
// order; resampling only ever permutes the order, never the multiset of values.
type TradeRecord struct {
	Ordinal   int     `json:"ordinal"`
	NetProfit float64 `json:"net_profit"`
}

// TradeProfits extracts the net results in original order.
func TradeProfits(trades []TradeRecord) []float64 {
	profits := make([]float64, len(trades))
	for i, trade := range trades {
		profits[i] = trade.NetProfit
	}

	return profits
}
