// Package models defines the core domain models for the strategy evaluation pipeline.
package models

import "time"

// RunMetadata describes what a run is evaluating.
type RunMetadata struct {
	Strategy  string         `json:"strategy"  validate:"required"`
	Symbol    string         `json:"symbol,omitempty"`
	Timeframe string         `json:"timeframe,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// WorkflowState is the full persisted snapshot of one evaluation run. Steps are
// totally ordered; a step may only start once its immediate predecessor passed.
type WorkflowState struct {
	RunID       string                 `json:"run_id"       validate:"required"`
	Strategy    string                 `json:"strategy"     validate:"required"`
	Symbol      string                 `json:"symbol,omitempty"`
	Timeframe   string                 `json:"timeframe,omitempty"`
	Steps       []string               `json:"steps"        validate:"required,min=1,unique"`
	Records     map[string]*StepRecord `json:"records"`
	PostSteps   []*PostStepRecord      `json:"post_steps,omitempty"`
	Metadata    map[string]any         `json:"metadata,omitempty"`
	CurrentStep string                 `json:"current_step"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// NewWorkflowState builds a fresh snapshot with every step pending.
func NewWorkflowState(runID string, steps []string, meta RunMetadata) *WorkflowState {
	now := time.Now().UTC()

	records := make(map[string]*StepRecord, len(steps))
	for _, name := range steps {
		records[name] = &StepRecord{Name: name, Status: StepStatusPending}
	}

	current := ""
	if len(steps) > 0 {
		current = steps[0]
	}

	return &WorkflowState{
		RunID:       runID,
		Strategy:    meta.Strategy,
		Symbol:      meta.Symbol,
		Timeframe:   meta.Timeframe,
		Steps:       append([]string(nil), steps...),
		Records:     records,
		Metadata:    meta.Extra,
		CurrentStep: current,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Record returns the record for the named step, or nil if the step is unknown.
func (s *WorkflowState) Record(step string) *StepRecord {
	return s.Records[step]
}

// StepIndex returns the position of the named step, or -1 if unknown.
func (s *WorkflowState) StepIndex(step string) int {
	for i, name := range s.Steps {
		if name == step {
			return i
		}
	}

	return -1
}

// Predecessor returns the step immediately before the named step. The second
// return is false for the first step and for unknown steps.
func (s *WorkflowState) Predecessor(step string) (string, bool) {
	idx := s.StepIndex(step)
	if idx <= 0 {
		return "", false
	}

	return s.Steps[idx-1], true
}

// NextStep returns the first step whose record is not passed, or "" when the
// whole workflow has passed.
func (s *WorkflowState) NextStep() string {
	for _, name := range s.Steps {
		if record := s.Records[name]; record == nil || record.Status != StepStatusPassed {
			return name
		}
	}

	return ""
}

// Completed reports whether every step has passed.
func (s *WorkflowState) Completed() bool {
	return s.NextStep() == ""
}
