// Package persistence provides the storage abstraction for run state snapshots.
package persistence

import (
	"context"

	"github.com/longytravel/simpleEA/pkg/models"
)

// StateRepository stores one WorkflowState snapshot per run id. Save overwrites
// the whole snapshot; implementations must guarantee that a failed write leaves
// the previous snapshot readable.
type StateRepository interface {
	// Save persists the full snapshot, creating or overwriting it.
	Save(ctx context.Context, state *models.WorkflowState) error

	// GetByRunID loads a snapshot. Returns ErrRunNotFound when no snapshot
	// exists and ErrStateCorrupt when one exists but cannot be decoded; a
	// corrupt snapshot is never silently treated as fresh.
	GetByRunID(ctx context.Context, runID string) (*models.WorkflowState, error)

	// ListRuns returns all stored snapshots, newest first.
	ListRuns(ctx context.Context) ([]*models.WorkflowState, error)

	// Delete removes a snapshot. The core never calls this; retention is an
	// external policy. Deleting a missing snapshot is not an error.
	Delete(ctx context.Context, runID string) error
}

// Persistence is the top-level storage provider.
type Persistence interface {
	StateRepository() StateRepository
	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
