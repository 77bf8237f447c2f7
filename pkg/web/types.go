// Package web provides HTTP request and response types for the run API.
package web

import (
	"time"

	"github.com/longytravel/simpleEA/pkg/models"
)

// CreateRunRequest represents the request body for creating a new evaluation
// run. Steps may override the configured plan; an empty run id is generated.
type CreateRunRequest struct {
	RunID     string         `json:"run_id,omitempty"`
	Strategy  string         `json:"strategy"            validate:"required"`
	Symbol    string         `json:"symbol,omitempty"`
	Timeframe string         `json:"timeframe,omitempty"`
	Steps     []string       `json:"steps,omitempty"     validate:"omitempty,min=1,unique"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// CompleteStepRequest carries the step output recorded on completion.
type CompleteStepRequest struct {
	Output map[string]any `json:"output,omitempty"`
}

// FailStepRequest carries the failure reason recorded on a failed step.
type FailStepRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// CreatePostStepRequest represents the request body for recording side work
// done outside the gated step sequence.
type CreatePostStepRequest struct {
	Name   string         `json:"name"             validate:"required"`
	Status string         `json:"status"           validate:"required,oneof=passed failed skipped"`
	Output map[string]any `json:"output,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// RunSummary is the condensed list representation of a run.
type RunSummary struct {
	RunID       string `json:"run_id"`
	Strategy    string `json:"strategy"`
	Symbol      string `json:"symbol,omitempty"`
	Timeframe   string `json:"timeframe,omitempty"`
	CurrentStep string    `json:"current_step"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RunReport is the assembled view of a finished or in-flight run: the per-step
// outcomes in plan order plus any post-step records.
type RunReport struct {
	RunID       string                   `json:"run_id"`
	Strategy    string                   `json:"strategy"`
	Symbol      string                   `json:"symbol,omitempty"`
	Timeframe   string                   `json:"timeframe,omitempty"`
	CurrentStep string                   `json:"current_step"`
	Completed   bool                     `json:"completed"`
	Steps       []*models.StepRecord     `json:"steps"`
	PostSteps   []*models.PostStepRecord `json:"post_steps,omitempty"`
	Score       map[string]any           `json:"score,omitempty"`
}

// TransformRunSummary condenses a snapshot into its list representation.
func TransformRunSummary(state *models.WorkflowState) RunSummary {
	return RunSummary{
		RunID:       state.RunID,
		Strategy:    state.Strategy,
		Symbol:      state.Symbol,
		Timeframe:   state.Timeframe,
		CurrentStep: state.CurrentStep,
		Completed:   state.Completed(),
		CreatedAt:   state.CreatedAt,
		UpdatedAt:   state.UpdatedAt,
	}
}

// TransformRunReport assembles the report view from a snapshot. Step records
// are emitted in plan order; the scoring step's output, when present, is
// surfaced as the report score.
func TransformRunReport(state *models.WorkflowState, scoringStep string) RunReport {
	steps := make([]*models.StepRecord, 0, len(state.Steps))
	for _, name := range state.Steps {
		if record := state.Record(name); record != nil {
			steps = append(steps, record)
		}
	}

	report := RunReport{
		RunID:       state.RunID,
		Strategy:    state.Strategy,
		Symbol:      state.Symbol,
		Timeframe:   state.Timeframe,
		CurrentStep: state.CurrentStep,
		Completed:   state.Completed(),
		Steps:       steps,
		PostSteps:   state.PostSteps,
	}

	if record := state.Record(scoringStep); record != nil && record.Status == models.StepStatusPassed {
		report.Score = record.Output
	}

	return report
}
