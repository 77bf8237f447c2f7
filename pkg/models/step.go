package models

import "time"

// StepStatus represents the lifecycle state of a single workflow step.
type StepStatus string

const (
	StepStatusPending    StepStatus = "pending"
	StepStatusInProgress StepStatus = "in_progress"
	StepStatusPassed     StepStatus = "passed"
	StepStatusFailed     StepStatus = "failed"
)

// stepTransitions is the per-step finite-state automaton. A failed step may be
// restarted; a passed step is terminal.
var stepTransitions = map[StepStatus][]StepStatus{
	StepStatusPending:    {StepStatusInProgress},
	StepStatusInProgress: {StepStatusPassed, StepStatusFailed},
	StepStatusFailed:     {StepStatusInProgress},
	StepStatusPassed:     {},
}

// CanTransitionTo reports whether the automaton allows moving from s to next.
func (s StepStatus) CanTransitionTo(next StepStatus) bool {
	for _, allowed := range stepTransitions[s] {
		if allowed == next {
			return true
		}
	}

	return false
}

// IsValid reports whether s is one of the known step statuses.
func (s StepStatus) IsValid() bool {
	switch s {
	case StepStatusPending, StepStatusInProgress, StepStatusPassed, StepStatusFailed:
		return true
	default:
		return false
	}
}

// StepRecord tracks the execution of one workflow step. Output is opaque to the
// core; it carries whatever the step produced (trade counts, file paths, metrics).
type StepRecord struct {
	Name        string         `json:"name"`
	Status      StepStatus     `json:"status"`
	StartedAt   *time.Time     `json:"started_at,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Output      map[string]any `json:"output,omitempty"`
	Error       string         `json:"error,omitempty"`
	Attempts    int            `json:"attempts"`
}

// PostStepRecord is one entry in the append-only log of optional modules run
// after the core workflow. Post steps never gate core steps; their status is
// free-form, set by whatever recorded the side work.
type PostStepRecord struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Status     string         `json:"status"`
	Output     map[string]any `json:"output,omitempty"`
	Error      string         `json:"error,omitempty"`
	RecordedAt time.Time      `json:"recorded_at"`
}
