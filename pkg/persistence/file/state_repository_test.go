package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/longytravel/simpleEA/pkg/models"
	"github.com/longytravel/simpleEA/pkg/persistence"
	"github.com/longytravel/simpleEA/pkg/persistence/file"
)

func newTestState(runID string) *models.WorkflowState {
	return models.NewWorkflowState(runID,
		[]string{"optimization", "forward_pass", "monte_carlo"},
		models.RunMetadata{Strategy: "trend_follower", Symbol: "EURUSD", Timeframe: "H1"})
}

func TestStateRepository_SaveAndGetByRunID(t *testing.T) {
	t.Parallel()

	repo := file.NewStateRepository(t.TempDir())
	ctx := context.Background()

	state := newTestState("run-1")
	state.Records["optimization"].Status = models.StepStatusPassed
	state.Records["optimization"].Attempts = 2
	state.Records["optimization"].Output = map[string]any{"passes": 42.0}

	require.NoError(t, repo.Save(ctx, state))

	retrieved, err := repo.GetByRunID(ctx, "run-1")
	require.NoError(t, err)

	assert.Equal(t, state.RunID, retrieved.RunID)
	assert.Equal(t, state.Strategy, retrieved.Strategy)
	assert.Equal(t, state.Steps, retrieved.Steps)
	assert.Equal(t, models.StepStatusPassed, retrieved.Records["optimization"].Status)
	assert.Equal(t, 2, retrieved.Records["optimization"].Attempts)
	assert.Equal(t, 42.0, retrieved.Records["optimization"].Output["passes"])
	assert.Equal(t, models.StepStatusPending, retrieved.Records["monte_carlo"].Status)
}

func TestStateRepository_GetByRunID_NotFound(t *testing.T) {
	t.Parallel()

	repo := file.NewStateRepository(t.TempDir())

	_, err := repo.GetByRunID(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, persistence.IsRunNotFound(err))
}

func TestStateRepository_GetByRunID_CorruptSnapshot(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	repo := file.NewStateRepository(root)

	runsDir := filepath.Join(root, "runs")
	require.NoError(t, os.MkdirAll(runsDir, 0750))
	require.NoError(t, os.WriteFile(filepath.Join(runsDir, "broken.json"), []byte("{not json"), 0600))

	_, err := repo.GetByRunID(context.Background(), "broken")
	require.Error(t, err)
	assert.True(t, persistence.IsStateCorrupt(err))
	assert.False(t, persistence.IsRunNotFound(err))
}

func TestStateRepository_Save_OverwritesAtomically(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	repo := file.NewStateRepository(root)
	ctx := context.Background()

	state := newTestState("run-1")
	require.NoError(t, repo.Save(ctx, state))

	state.Records["optimization"].Status = models.StepStatusInProgress
	state.CurrentStep = "optimization"
	state.UpdatedAt = time.Now().UTC()
	require.NoError(t, repo.Save(ctx, state))

	retrieved, err := repo.GetByRunID(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, models.StepStatusInProgress, retrieved.Records["optimization"].Status)

	// No temp files left behind after the rename.
	entries, err := os.ReadDir(filepath.Join(root, "runs"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "run-1.json", entries[0].Name())
}

func TestStateRepository_ListRuns(t *testing.T) {
	t.Parallel()

	repo := file.NewStateRepository(t.TempDir())
	ctx := context.Background()

	older := newTestState("run-old")
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	newer := newTestState("run-new")

	require.NoError(t, repo.Save(ctx, older))
	require.NoError(t, repo.Save(ctx, newer))

	states, err := repo.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, states, 2)

	assert.Equal(t, "run-new", states[0].RunID)
	assert.Equal(t, "run-old", states[1].RunID)
}

func TestStateRepository_ListRuns_EmptyRoot(t *testing.T) {
	t.Parallel()

	repo := file.NewStateRepository(t.TempDir())

	states, err := repo.ListRuns(context.Background())
	require.NoError(t, err)
	assert.Empty(t, states)
}

func TestStateRepository_Delete(t *testing.T) {
	t.Parallel()

	repo := file.NewStateRepository(t.TempDir())
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, newTestState("run-1")))
	require.NoError(t, repo.Delete(ctx, "run-1"))

	_, err := repo.GetByRunID(ctx, "run-1")
	assert.True(t, persistence.IsRunNotFound(err))

	// Deleting a missing run is not an error.
	assert.NoError(t, repo.Delete(ctx, "run-1"))
}
