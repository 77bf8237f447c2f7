package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/longytravel/simpleEA/pkg/models"
	"github.com/longytravel/simpleEA/pkg/persistence"
)

// StateRepository stores run snapshots as JSONB documents with a few extracted
// columns for listing and filtering.
type StateRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStateRepository creates a new run-state repository.
func NewStateRepository(db *sql.DB, logger *slog.Logger) *StateRepository {
	return &StateRepository{db: db, logger: logger}
}

// Save upserts the full snapshot. The row replacement happens in one statement,
// so readers always observe either the prior or the new snapshot.
func (r *StateRepository) Save(ctx context.Context, state *models.WorkflowState) error {
	document, err := json.Marshal(state)
	if err != nil {
		return persistence.NewRunError("Save", state.RunID, fmt.Errorf("failed to marshal state: %w", err))
	}

	query := `
		INSERT INTO runs (run_id, strategy, symbol, timeframe, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (run_id) DO UPDATE SET
			strategy   = EXCLUDED.strategy
		  , symbol     = EXCLUDED.symbol
		  , timeframe  = EXCLUDED.timeframe
		  , state      = EXCLUDED.state
		  , updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		state.RunID, state.Strategy, state.Symbol, state.Timeframe,
		document, state.CreatedAt, state.UpdatedAt)
	if err != nil {
		return persistence.NewRunError("Save", state.RunID, fmt.Errorf("failed to upsert run: %w", err))
	}

	return nil
}

// GetByRunID loads a snapshot by run id.
func (r *StateRepository) GetByRunID(ctx context.Context, runID string) (*models.WorkflowState, error) {
	var document []byte

	err := r.db.QueryRowContext(ctx, "SELECT state FROM runs WHERE run_id = $1", runID).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewRunError("GetByRunID", runID, persistence.ErrRunNotFound)
	}

	if err != nil {
		return nil, persistence.NewRunError("GetByRunID", runID, fmt.Errorf("failed to query run: %w", err))
	}

	var state models.WorkflowState

	if err := json.Unmarshal(document, &state); err != nil {
		return nil, persistence.NewRunError("GetByRunID", runID,
			fmt.Errorf("%w: %w", persistence.ErrStateCorrupt, err))
	}

	return &state, nil
}

// ListRuns returns all stored snapshots, newest first.
func (r *StateRepository) ListRuns(ctx context.Context) ([]*models.WorkflowState, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT run_id, state FROM runs ORDER BY created_at DESC")
	if err != nil {
		return nil, persistence.NewRunError("ListRuns", "", fmt.Errorf("failed to query runs: %w", err))
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	states := make([]*models.WorkflowState, 0)

	for rows.Next() {
		var (
			runID    string
			document []byte
		)

		if err := rows.Scan(&runID, &document); err != nil {
			return nil, persistence.NewRunError("ListRuns", runID, fmt.Errorf("failed to scan run: %w", err))
		}

		var state models.WorkflowState

		if err := json.Unmarshal(document, &state); err != nil {
			return nil, persistence.NewRunError("ListRuns", runID,
				fmt.Errorf("%w: %w", persistence.ErrStateCorrupt, err))
		}

		states = append(states, &state)
	}

	if err := rows.Err(); err != nil {
		return nil, persistence.NewRunError("ListRuns", "", fmt.Errorf("error iterating runs: %w", err))
	}

	return states, nil
}

// Delete removes a snapshot by run id.
func (r *StateRepository) Delete(ctx context.Context, runID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM runs WHERE run_id = $1", runID)
	if err != nil {
		return persistence.NewRunError("Delete", runID, fmt.Errorf("failed to delete run: %w", err))
	}

	return nil
}
