package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/longytravel/simpleEA/pkg/models"
	"github.com/longytravel/simpleEA/pkg/persistence"
)

// StateRepository stores one JSON snapshot per run under <root>/runs/.
type StateRepository struct {
	root string
}

// NewStateRepository creates a new run-state repository.
func NewStateRepository(root string) *StateRepository {
	return &StateRepository{root: root}
}

func (r *StateRepository) runsDir() string {
	return path.Join(r.root, "runs")
}

func (r *StateRepository) runPath(runID string) string {
	return filepath.Clean(path.Join(r.runsDir(), runID+".json"))
}

// Save persists the full snapshot. The write goes to a temp file in the same
// directory followed by a rename, so a crash mid-write leaves the previous
// snapshot intact.
func (r *StateRepository) Save(_ context.Context, state *models.WorkflowState) error {
	if err := os.MkdirAll(r.runsDir(), 0750); err != nil {
		return persistence.NewRunError("Save", state.RunID, fmt.Errorf("failed to create runs directory: %w", err))
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return persistence.NewRunError("Save", state.RunID, fmt.Errorf("failed to marshal state: %w", err))
	}

	tmp, err := os.CreateTemp(r.runsDir(), state.RunID+".*.tmp")
	if err != nil {
		return persistence.NewRunError("Save", state.RunID, fmt.Errorf("failed to create temp file: %w", err))
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())

		return persistence.NewRunError("Save", state.RunID, fmt.Errorf("failed to write snapshot: %w", err))
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())

		return persistence.NewRunError("Save", state.RunID, fmt.Errorf("failed to close temp file: %w", err))
	}

	if err := os.Rename(tmp.Name(), r.runPath(state.RunID)); err != nil {
		_ = os.Remove(tmp.Name())

		return persistence.NewRunError("Save", state.RunID, fmt.Errorf("failed to replace snapshot: %w", err))
	}

	return nil
}

// GetByRunID loads a snapshot from the file system.
func (r *StateRepository) GetByRunID(_ context.Context, runID string) (*models.WorkflowState, error) {
	body, err := os.ReadFile(r.runPath(runID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewRunError("GetByRunID", runID, persistence.ErrRunNotFound)
		}

		return nil, persistence.NewRunError("GetByRunID", runID, fmt.Errorf("failed to read snapshot: %w", err))
	}

	var state models.WorkflowState

	if err := json.Unmarshal(body, &state); err != nil {
		return nil, persistence.NewRunError("GetByRunID", runID,
			fmt.Errorf("%w: %w", persistence.ErrStateCorrupt, err))
	}

	return &state, nil
}

// ListRuns returns all stored snapshots, newest first.
func (r *StateRepository) ListRuns(ctx context.Context) ([]*models.WorkflowState, error) {
	if _, err := os.Stat(r.runsDir()); os.IsNotExist(err) {
		return make([]*models.WorkflowState, 0), nil
	}

	root := os.DirFS(r.runsDir())

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, persistence.NewRunError("ListRuns", "", fmt.Errorf("failed to list snapshots: %w", err))
	}

	states := make([]*models.WorkflowState, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		runID := file[:len(file)-5] // Remove .json extension

		state, err := r.GetByRunID(ctx, runID)
		if err != nil {
			return nil, err
		}

		states = append(states, state)
	}

	sort.Slice(states, func(i, j int) bool {
		return states[i].CreatedAt.After(states[j].CreatedAt)
	})

	return states, nil
}

// Delete removes a snapshot by run id.
func (r *StateRepository) Delete(_ context.Context, runID string) error {
	err := os.Remove(r.runPath(runID))

	if err != nil && os.IsNotExist(err) {
		return nil
	}

	if err != nil {
		return persistence.NewRunError("Delete", runID, fmt.Errorf("failed to delete snapshot: %w", err))
	}

	return nil
}
