// Package montecarlo estimates sequence risk by reshuffling a trade list and
// replaying the equity curve many times.
package montecarlo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/longytravel/simpleEA/pkg/models"
)

// Config controls one resampling run. Thresholds arrive from configuration,
// never from package state.
type Config struct {
	// Iterations is the number of shuffled equity paths to simulate.
	Iterations int

	// StartingEquity is the account balance each path starts from.
	StartingEquity float64

	// MaxDrawdownGatePct is the per-path drawdown ceiling used by the
	// confidence count. Zero disables the drawdown condition.
	MaxDrawdownGatePct float64

	// RuinThresholdPct defines ruin as equity falling to or below
	// StartingEquity * (1 - RuinThresholdPct/100).
	RuinThresholdPct float64

	// Seed makes the whole run reproducible. Nil draws a seed from the clock.
	Seed *int64

	// Workers caps the parallel iteration workers. Zero means GOMAXPROCS.
	Workers int
}

// Engine runs Monte Carlo resampling over trade sequences.
type Engine struct {
	config Config
	logger *slog.Logger
}

// NewEngine creates an engine with the given config.
func NewEngine(config Config, logger *slog.Logger) (*Engine, error) {
	if config.Iterations <= 0 {
		return nil, errors.New("iterations must be positive")
	}

	if config.StartingEquity <= 0 {
		return nil, errors.New("starting equity must be positive")
	}

	if config.RuinThresholdPct < 0 || config.RuinThresholdPct > 100 {
		return nil, errors.New("ruin threshold must be within [0, 100]")
	}

	return &Engine{config: config, logger: logger}, nil
}

type pathOutcome struct {
	finalEquity    float64
	maxDrawdownPct float64
	ruined         bool
}

// Run simulates the configured number of shuffled paths and aggregates them.
// Each iteration derives its own RNG from the base seed and the iteration
// index, so the result is identical whether iterations run sequentially or
// across any number of workers. Cancellation returns the context error; no
// partial result is ever produced.
func (e *Engine) Run(ctx context.Context, trades []models.TradeRecord) (*models.MonteCarloResult, error) {
	if len(trades) == 0 {
		return &models.MonteCarloResult{
			StartingEquity:   e.config.StartingEquity,
			RuinThresholdPct: e.config.RuinThresholdPct,
			Degenerate:       true,
		}, nil
	}

	baseSeed := time.Now().UnixNano()
	if e.config.Seed != nil {
		baseSeed = *e.config.Seed
	}

	profits := models.TradeProfits(trades)
	outcomes := make([]pathOutcome, e.config.Iterations)

	workers := e.config.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	if workers > e.config.Iterations {
		workers = e.config.Iterations
	}

	indexes := make(chan int)

	var wg sync.WaitGroup

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := range indexes {
				outcomes[i] = e.simulatePath(profits, baseSeed+int64(i))
			}
		}()
	}

	var cancelled error

dispatch:
	for i := range e.config.Iterations {
		if err := ctx.Err(); err != nil {
			cancelled = err

			break dispatch
		}

		select {
		case indexes <- i:
		case <-ctx.Done():
			cancelled = ctx.Err()

			break dispatch
		}
	}

	close(indexes)
	wg.Wait()

	if cancelled != nil {
		return nil, fmt.Errorf("monte carlo run cancelled: %w", cancelled)
	}

	result := e.aggregate(profits, outcomes)
	result.Seed = &baseSeed

	if e.logger != nil {
		e.logger.Info("Monte Carlo run complete",
			"iterations", result.Iterations,
			"trades", result.TradeCount,
			"confidenceLevel", result.ConfidenceLevel,
			"probabilityOfRuin", result.ProbabilityOfRuin)
	}

	return result, nil
}

// simulatePath shuffles the profits without replacement and walks the equity
// curve once. The RNG is owned by this path alone.
func (e *Engine) simulatePath(profits []float64, seed int64) pathOutcome {
	rng := rand.New(rand.NewSource(seed))

	shuffled := make([]float64, len(profits))
	copy(shuffled, profits)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	finalEquity, maxDrawdownPct, ruined := e.walkEquity(shuffled)

	return pathOutcome{finalEquity: finalEquity, maxDrawdownPct: maxDrawdownPct, ruined: ruined}
}

func (e *Engine) walkEquity(profits []float64) (float64, float64, bool) {
	equity := e.config.StartingEquity
	peak := equity
	ruinLevel := e.config.StartingEquity * (1 - e.config.RuinThresholdPct/100)

	var maxDrawdownPct float64

	ruined := false

	for _, profit := range profits {
		equity += profit

		if equity > peak {
			peak = equity
		}

		if peak > 0 {
			drawdownPct := (peak - equity) / peak * 100
			if drawdownPct > maxDrawdownPct {
				maxDrawdownPct = drawdownPct
			}
		}

		if equity <= ruinLevel {
			ruined = true
		}
	}

	return equity, maxDrawdownPct, ruined
}

func (e *Engine) aggregate(profits []float64, outcomes []pathOutcome) *models.MonteCarloResult {
	iterations := len(outcomes)
	finalProfits := make([]float64, iterations)
	drawdowns := make([]float64, iterations)

	confident := 0
	ruined := 0

	var profitSum float64

	for i, outcome := range outcomes {
		finalProfits[i] = outcome.finalEquity - e.config.StartingEquity
		drawdowns[i] = outcome.maxDrawdownPct
		profitSum += finalProfits[i]

		withinGate := e.config.MaxDrawdownGatePct <= 0 || outcome.maxDrawdownPct <= e.config.MaxDrawdownGatePct
		if outcome.finalEquity > e.config.StartingEquity && withinGate {
			confident++
		}

		if outcome.ruined {
			ruined++
		}
	}

	sort.Float64s(finalProfits)
	sort.Float64s(drawdowns)

	originalFinal, originalDrawdown, _ := e.walkEquity(profits)

	return &models.MonteCarloResult{
		Iterations:             iterations,
		TradeCount:             len(profits),
		StartingEquity:         e.config.StartingEquity,
		ConfidenceLevel:        100 * float64(confident) / float64(iterations),
		ProbabilityOfRuin:      100 * float64(ruined) / float64(iterations),
		RuinThresholdPct:       e.config.RuinThresholdPct,
		MedianProfit:           percentile(finalProfits, 50),
		MeanProfit:             profitSum / float64(iterations),
		Profit5thPercentile:    percentile(finalProfits, 5),
		Profit95thPercentile:   percentile(finalProfits, 95),
		MedianMaxDrawdownPct:   percentile(drawdowns, 50),
		MaxDrawdownPct95th:     percentile(drawdowns, 95),
		OriginalProfit:         originalFinal - e.config.StartingEquity,
		OriginalMaxDrawdownPct: originalDrawdown,
	}
}

// percentile reads the p-th percentile from sorted values using linear
// interpolation between the two nearest ranks.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}

	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := p / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))

	if lower == upper {
		return sorted[lower]
	}

	weight := rank - float64(lower)

	return sorted[lower]*(1-weight) + sorted[upper]*weight
}
