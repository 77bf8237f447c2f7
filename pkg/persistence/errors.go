// Package persistence provides standardized error types for storage operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrRunNotFound indicates no snapshot exists for the given run id.
	ErrRunNotFound = errors.New("run not found")

	// ErrRunAlreadyExists indicates a snapshot already exists for the run id.
	ErrRunAlreadyExists = errors.New("run already exists")

	// ErrStateCorrupt indicates a snapshot exists but could not be decoded.
	// Callers must fail fast on it rather than fabricate a fresh state.
	ErrStateCorrupt = errors.New("run state corrupt")
)

// RunError wraps run-state persistence errors with operation context.
type RunError struct {
	Op    string // Operation being performed (e.g., "Save", "GetByRunID")
	RunID string // Run id if applicable
	Err   error  // Underlying error
}

func (e *RunError) Error() string {
	if e.RunID == "" {
		return fmt.Sprintf("%s operation failed: %v", e.Op, e.Err)
	}

	return fmt.Sprintf("%s operation failed for run %s: %v", e.Op, e.RunID, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for run errors.
func (e *RunError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewRunError creates a new run error with context.
func NewRunError(op, runID string, err error) *RunError {
	return &RunError{Op: op, RunID: runID, Err: err}
}

// IsRunNotFound checks if an error indicates a missing run snapshot.
func IsRunNotFound(err error) bool {
	return errors.Is(err, ErrRunNotFound)
}

// IsRunAlreadyExists checks if an error indicates a duplicate run id.
func IsRunAlreadyExists(err error) bool {
	return errors.Is(err, ErrRunAlreadyExists)
}

// IsStateCorrupt checks if an error indicates an undecodable snapshot.
func IsStateCorrupt(err error) bool {
	return errors.Is(err, ErrStateCorrupt)
}
