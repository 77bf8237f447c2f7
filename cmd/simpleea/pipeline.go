package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/longytravel/simpleEA/pkg/gates"
	"github.com/longytravel/simpleEA/pkg/ingest"
	"github.com/longytravel/simpleEA/pkg/models"
	"github.com/longytravel/simpleEA/pkg/montecarlo"
	"github.com/longytravel/simpleEA/pkg/otelhelper"
	"github.com/longytravel/simpleEA/pkg/scoring"
	"github.com/longytravel/simpleEA/pkg/selector"
	"github.com/longytravel/simpleEA/pkg/settings"
	"github.com/longytravel/simpleEA/pkg/workflow"
)

// Inputs points the pipeline at the externally produced artifacts for one
// evaluation: the optimization batch, the resampling trade list and the
// forward metrics bundle.
type Inputs struct {
	PassesPath  string
	TradesPath  string
	MetricsPath string
	MultiMarket *models.MultiMarketResult
}

// Pipeline drives one run through the gated step sequence. Each step loads its
// input, checks its gates and records the outcome on the run; a gate failure
// fails the step with its reasons and stops the pipeline without an error.
type Pipeline struct {
	logger   *slog.Logger
	settings settings.Settings
	manager  *workflow.Manager
	tracer   trace.Tracer
}

func NewPipeline(logger *slog.Logger, cfg settings.Settings, manager *workflow.Manager) *Pipeline {
	return &Pipeline{
		logger:   logger,
		settings: cfg,
		manager:  manager,
	}
}

// WithTracer enables a span per pipeline step.
func (p *Pipeline) WithTracer(tracer trace.Tracer) *Pipeline {
	p.tracer = tracer

	return p
}

// Evaluate creates the run and executes every configured step in order.
// Returns the final snapshot; the snapshot's step records carry the verdict.
func (p *Pipeline) Evaluate(ctx context.Context, runID string, meta models.RunMetadata, inputs Inputs) (*models.WorkflowState, error) {
	state, err := p.manager.Create(ctx, runID, p.settings.Steps, meta)
	if err != nil {
		return nil, err
	}

	runID = state.RunID

	for _, step := range p.settings.Steps {
		proceed, err := p.runStep(ctx, runID, step, inputs)
		if err != nil {
			return nil, err
		}

		if !proceed {
			break
		}
	}

	return p.manager.Load(ctx, runID)
}

// runStep executes one step. The boolean reports whether the pipeline should
// continue; a failed gate stops it, an infrastructure error aborts it.
func (p *Pipeline) runStep(ctx context.Context, runID, step string, inputs Inputs) (bool, error) {
	if p.tracer != nil {
		var span trace.Span

		ctx, span = otelhelper.StartSpan(ctx, p.tracer, "pipeline.step",
			attribute.String(otelhelper.RunIDKey, runID),
			attribute.String(otelhelper.StepNameKey, step),
		)
		defer span.End()
	}

	if _, err := p.manager.Start(ctx, runID, step); err != nil {
		return false, err
	}

	output, gateResults, err := p.executeStep(ctx, step, inputs)
	if err != nil {
		if span := trace.SpanFromContext(ctx); span.IsRecording() {
			otelhelper.SetError(span, err)
		}

		if _, failErr := p.manager.Fail(ctx, runID, step, err.Error()); failErr != nil {
			return false, failErr
		}

		return false, err
	}

	if ok, reasons := gates.Evaluate(gateResults); !ok {
		reason := strings.Join(reasons, "; ")
		if _, err := p.manager.Fail(ctx, runID, step, reason); err != nil {
			return false, err
		}

		p.logger.WarnContext(ctx, "Step gate failed", "runId", runID, "step", step, "reason", reason)

		return false, nil
	}

	if _, err := p.manager.Complete(ctx, runID, step, output); err != nil {
		return false, err
	}

	return true, nil
}

func (p *Pipeline) executeStep(ctx context.Context, step string, inputs Inputs) (map[string]any, []gates.Result, error) {
	switch step {
	case "compile":
		return p.checkInputs(inputs)
	case "optimization":
		return p.selectRobust(inputs.PassesPath)
	case "forward_pass":
		return p.checkForward(inputs.MetricsPath)
	case "monte_carlo":
		return p.resample(ctx, inputs.TradesPath)
	case "scoring":
		return p.score(ctx, inputs)
	default:
		return nil, nil, fmt.Errorf("no executor for step %s", step)
	}
}

// checkInputs verifies every input artifact exists before any work starts.
// Inputs are checked in a fixed order so the first failure reported is stable.
func (p *Pipeline) checkInputs(inputs Inputs) (map[string]any, []gates.Result, error) {
	for _, input := range []struct {
		name string
		path string
	}{
		{"passes", inputs.PassesPath},
		{"trades", inputs.TradesPath},
		{"metrics", inputs.MetricsPath},
	} {
		if input.path == "" {
			return nil, nil, fmt.Errorf("missing %s input", input.name)
		}

		if _, err := os.Stat(input.path); err != nil {
			return nil, nil, fmt.Errorf("unreadable %s input: %w", input.name, err)
		}
	}

	return map[string]any{
		"passes":  inputs.PassesPath,
		"trades":  inputs.TradesPath,
		"metrics": inputs.MetricsPath,
	}, nil, nil
}

func (p *Pipeline) selectRobust(passesPath string) (map[string]any, []gates.Result, error) {
	passes, err := ingest.LoadPasses(passesPath)
	if err != nil {
		return nil, nil, err
	}

	sel := selector.New(selector.Config{
		MinForwardTrades: p.settings.Selector.MinForwardTrades,
	}, p.logger)

	selection := sel.Select(passes)

	output := map[string]any{
		"evaluated":     selection.Evaluated,
		"skipped":       selection.Skipped,
		"robust_passes": len(selection.Robust),
	}

	if selection.Best != nil {
		output["best_pass"] = selection.Best.Pass
		output["best_parameters"] = selection.Best.Parameters
	}

	return output, []gates.Result{gates.CheckSelection(len(selection.Robust))}, nil
}

func (p *Pipeline) checkForward(metricsPath string) (map[string]any, []gates.Result, error) {
	metrics, err := ingest.LoadMetrics(metricsPath)
	if err != nil {
		return nil, nil, err
	}

	output, err := toMap(metrics)
	if err != nil {
		return nil, nil, err
	}

	return output, gates.CheckMetrics(metrics, p.settings.Gates), nil
}

func (p *Pipeline) resample(ctx context.Context, tradesPath string) (map[string]any, []gates.Result, error) {
	result, err := p.runMonteCarlo(ctx, tradesPath)
	if err != nil {
		return nil, nil, err
	}

	output, err := toMap(result)
	if err != nil {
		return nil, nil, err
	}

	return output, gates.CheckMonteCarlo(result, p.settings.Gates), nil
}

// score recomputes the Monte Carlo result instead of trusting a prior step's
// output. With monte_carlo.seed pinned in settings the recomputation is exact,
// so a resumed run scores identically.
func (p *Pipeline) score(ctx context.Context, inputs Inputs) (map[string]any, []gates.Result, error) {
	metrics, err := ingest.LoadMetrics(inputs.MetricsPath)
	if err != nil {
		return nil, nil, err
	}

	mc, err := p.runMonteCarlo(ctx, inputs.TradesPath)
	if err != nil {
		return nil, nil, err
	}

	score := scoring.NewEngine(p.settings.Scoring).Score(metrics, mc, inputs.MultiMarket)

	output, err := toMap(score)
	if err != nil {
		return nil, nil, err
	}

	return output, nil, nil
}

func (p *Pipeline) runMonteCarlo(ctx context.Context, tradesPath string) (*models.MonteCarloResult, error) {
	trades, err := ingest.LoadTrades(tradesPath)
	if err != nil {
		return nil, err
	}

	engine, err := montecarlo.NewEngine(montecarlo.Config{
		Iterations:         p.settings.MonteCarlo.Iterations,
		StartingEquity:     p.settings.MonteCarlo.StartingEquity,
		MaxDrawdownGatePct: p.settings.MonteCarlo.MaxDrawdownGatePct,
		RuinThresholdPct:   p.settings.MonteCarlo.RuinThresholdPct,
		Seed:               p.settings.MonteCarlo.Seed,
		Workers:            p.settings.MonteCarlo.Workers,
	}, p.logger)
	if err != nil {
		return nil, err
	}

	return engine.Run(ctx, trades)
}

// toMap converts a typed result into the generic step output shape.
func toMap(v any) (map[string]any, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode step output: %w", err)
	}

	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode step output: %w", err)
	}

	return out, nil
}
