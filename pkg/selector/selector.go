// Package selector reconciles in-sample optimization passes with their forward
// window results and picks the passes that held up in both.
package selector

import (
	"log/slog"
	"sort"

	"github.com/longytravel/simpleEA/pkg/models"
)

// Selection is the outcome of reconciling one optimization batch.
type Selection struct {
	// Robust holds every pass profitable in both windows, best first.
	Robust []*models.OptimizationPass

	// Best is the top-ranked robust pass, nil when none qualified.
	Best *models.OptimizationPass

	// Evaluated counts the well-formed passes that were considered.
	Evaluated int

	// Skipped counts malformed passes dropped before evaluation.
	Skipped int
}

// Config controls which passes qualify as robust.
type Config struct {
	// MinForwardTrades rejects forward windows with too few trades to mean
	// anything. Zero disables the check.
	MinForwardTrades int
}

// Selector ranks optimization passes by robustness across windows.
type Selector struct {
	config Config
	logger *slog.Logger
}

// New creates a selector with the given config.
func New(config Config, logger *slog.Logger) *Selector {
	return &Selector{config: config, logger: logger}
}

// Select filters the batch down to robust passes and ranks them. A pass is
// robust when the profit factor exceeds 1 in both the in-sample and forward
// windows and the forward window has enough trades. Malformed passes are
// skipped, not treated as errors; a batch with no robust pass is a valid
// empty selection.
func (s *Selector) Select(passes []*models.OptimizationPass) Selection {
	selection := Selection{Robust: make([]*models.OptimizationPass, 0, len(passes))}

	for _, pass := range passes {
		if pass == nil || pass.Malformed() {
			selection.Skipped++

			continue
		}

		selection.Evaluated++

		if !s.robust(pass) {
			continue
		}

		selection.Robust = append(selection.Robust, pass)
	}

	rankPasses(selection.Robust)

	if len(selection.Robust) > 0 {
		selection.Best = selection.Robust[0]
	}

	if s.logger != nil {
		s.logger.Info("Selection complete",
			"evaluated", selection.Evaluated,
			"robust", len(selection.Robust),
			"skipped", selection.Skipped)
	}

	return selection
}

func (s *Selector) robust(pass *models.OptimizationPass) bool {
	if pass.InSample.ProfitFactor <= 1 || pass.Forward.ProfitFactor <= 1 {
		return false
	}

	if s.config.MinForwardTrades > 0 && pass.Forward.TradeCount < s.config.MinForwardTrades {
		return false
	}

	return true
}

// rankPasses orders passes best first. The primary key is the worse of the two
// profit factors, so a pass that collapsed in either window ranks below one
// that held up in both. Ties fall through to forward profit factor, forward
// drawdown, then forward trade count. The sort is stable, so equally ranked
// passes keep their input order.
func rankPasses(passes []*models.OptimizationPass) {
	sort.SliceStable(passes, func(i, j int) bool {
		a, b := passes[i], passes[j]

		aWorst := minFloat(a.InSample.ProfitFactor, a.Forward.ProfitFactor)
		bWorst := minFloat(b.InSample.ProfitFactor, b.Forward.ProfitFactor)

		if aWorst != bWorst {
			return aWorst > bWorst
		}

		if a.Forward.ProfitFactor != b.Forward.ProfitFactor {
			return a.Forward.ProfitFactor > b.Forward.ProfitFactor
		}

		if a.Forward.MaxDrawdownPct != b.Forward.MaxDrawdownPct {
			return a.Forward.MaxDrawdownPct < b.Forward.MaxDrawdownPct
		}

		return a.Forward.TradeCount > b.Forward.TradeCount
	})
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}

	return b
}
