package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition indicates a step status change outside the allowed
	// transition table.
	ErrInvalidTransition = errors.New("invalid step transition")

	// ErrUnknownStep indicates the named step is not part of the run's plan.
	ErrUnknownStep = errors.New("unknown step")

	// ErrStepGated indicates the step's immediate predecessor has not passed.
	ErrStepGated = errors.New("step predecessor has not passed")
)

// StepError wraps step lifecycle errors with run and step context.
type StepError struct {
	Op    string
	RunID string
	Step  string
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s failed for step %s of run %s: %v", e.Op, e.Step, e.RunID, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for step errors.
func (e *StepError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewStepError creates a new step error with context.
func NewStepError(op, runID, step string, err error) *StepError {
	return &StepError{Op: op, RunID: runID, Step: step, Err: err}
}

// IsInvalidTransition checks if an error indicates a disallowed status change.
func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}

// IsStepGated checks if an error indicates an unsatisfied predecessor.
func IsStepGated(err error) bool {
	return errors.Is(err, ErrStepGated)
}
