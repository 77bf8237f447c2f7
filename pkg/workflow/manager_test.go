package workflow_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/longytravel/simpleEA/pkg/models"
	"github.com/longytravel/simpleEA/pkg/persistence"
	"github.com/longytravel/simpleEA/pkg/persistence/file"
	"github.com/longytravel/simpleEA/pkg/workflow"
)

var testSteps = []string{"optimization", "forward_pass", "monte_carlo", "scoring"}

func newTestManager(t *testing.T) *workflow.Manager {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	repo := file.NewStateRepository(t.TempDir())

	return workflow.NewManager(repo, nil, logger)
}

func testMeta() models.RunMetadata {
	return models.RunMetadata{Strategy: "trend_follower", Symbol: "EURUSD", Timeframe: "H1"}
}

func TestManager_Create(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	ctx := context.Background()

	state, err := m.Create(ctx, "run-1", testSteps, testMeta())
	require.NoError(t, err)

	assert.Equal(t, "run-1", state.RunID)
	assert.Equal(t, testSteps, state.Steps)
	assert.Equal(t, "optimization", state.CurrentStep)

	for _, step := range testSteps {
		require.NotNil(t, state.Record(step))
		assert.Equal(t, models.StepStatusPending, state.Record(step).Status)
		assert.Zero(t, state.Record(step).Attempts)
	}
}

func TestManager_Create_GeneratesRunID(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)

	state, err := m.Create(context.Background(), "", testSteps, testMeta())
	require.NoError(t, err)
	assert.NotEmpty(t, state.RunID)
}

func TestManager_Create_DuplicateRunID(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.Create(ctx, "run-1", testSteps, testMeta())
	require.NoError(t, err)

	_, err = m.Create(ctx, "run-1", testSteps, testMeta())
	require.Error(t, err)
	assert.True(t, persistence.IsRunAlreadyExists(err))
}

func TestManager_Create_InvalidPlans(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	ctx := context.Background()

	t.Run("empty steps", func(t *testing.T) {
		_, err := m.Create(ctx, "run-empty", nil, testMeta())
		assert.Error(t, err)
	})

	t.Run("duplicate steps", func(t *testing.T) {
		_, err := m.Create(ctx, "run-dup", []string{"optimization", "optimization"}, testMeta())
		assert.Error(t, err)
	})

	t.Run("missing strategy", func(t *testing.T) {
		_, err := m.Create(ctx, "run-nostrat", testSteps, models.RunMetadata{})
		assert.Error(t, err)
	})
}

func TestManager_CanStart_Gating(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	ctx := context.Background()

	state, err := m.Create(ctx, "run-1", testSteps, testMeta())
	require.NoError(t, err)

	ok, reason := m.CanStart(state, "optimization")
	assert.True(t, ok)
	assert.Empty(t, reason)

	ok, reason = m.CanStart(state, "forward_pass")
	assert.False(t, ok)
	assert.Contains(t, reason, "optimization")

	ok, reason = m.CanStart(state, "no_such_step")
	assert.False(t, ok)
	assert.Contains(t, reason, "not part of the run")

	_, err = m.Start(ctx, "run-1", "optimization")
	require.NoError(t, err)
	state, err = m.Complete(ctx, "run-1", "optimization", nil)
	require.NoError(t, err)

	ok, _ = m.CanStart(state, "forward_pass")
	assert.True(t, ok)

	ok, reason = m.CanStart(state, "optimization")
	assert.False(t, ok)
	assert.Contains(t, reason, "already passed")

	ok, reason = m.CanStart(state, "monte_carlo")
	assert.False(t, ok)
	assert.Contains(t, reason, "forward_pass")
}

func TestManager_StartCompleteFlow(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.Create(ctx, "run-1", testSteps, testMeta())
	require.NoError(t, err)

	state, err := m.Start(ctx, "run-1", "optimization")
	require.NoError(t, err)

	record := state.Record("optimization")
	assert.Equal(t, models.StepStatusInProgress, record.Status)
	assert.Equal(t, 1, record.Attempts)
	assert.NotNil(t, record.StartedAt)
	assert.Equal(t, "optimization", state.CurrentStep)

	state, err = m.Complete(ctx, "run-1", "optimization", map[string]any{"passes": 42.0})
	require.NoError(t, err)

	record = state.Record("optimization")
	assert.Equal(t, models.StepStatusPassed, record.Status)
	assert.NotNil(t, record.CompletedAt)
	assert.Equal(t, 42.0, record.Output["passes"])
	assert.Equal(t, "forward_pass", state.CurrentStep)
	assert.False(t, state.Completed())
}

func TestManager_Start_OutOfOrderIsGated(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.Create(ctx, "run-1", testSteps, testMeta())
	require.NoError(t, err)

	_, err = m.Start(ctx, "run-1", "monte_carlo")
	require.Error(t, err)
	assert.True(t, workflow.IsStepGated(err))
}

func TestManager_Complete_WithoutStart(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.Create(ctx, "run-1", testSteps, testMeta())
	require.NoError(t, err)

	_, err = m.Complete(ctx, "run-1", "optimization", nil)
	require.Error(t, err)
	assert.True(t, workflow.IsInvalidTransition(err))
}

func TestManager_FailAndRetry(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.Create(ctx, "run-1", testSteps, testMeta())
	require.NoError(t, err)

	_, err = m.Start(ctx, "run-1", "optimization")
	require.NoError(t, err)

	state, err := m.Fail(ctx, "run-1", "optimization", "no profitable passes")
	require.NoError(t, err)

	record := state.Record("optimization")
	assert.Equal(t, models.StepStatusFailed, record.Status)
	assert.Equal(t, "no profitable passes", record.Error)
	assert.Equal(t, 1, record.Attempts)

	// Failed steps are retryable; the attempt counter keeps counting.
	state, err = m.Start(ctx, "run-1", "optimization")
	require.NoError(t, err)

	record = state.Record("optimization")
	assert.Equal(t, models.StepStatusInProgress, record.Status)
	assert.Equal(t, 2, record.Attempts)
	assert.Empty(t, record.Error)
}

func TestManager_Start_AlreadyPassed(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.Create(ctx, "run-1", testSteps, testMeta())
	require.NoError(t, err)

	_, err = m.Start(ctx, "run-1", "optimization")
	require.NoError(t, err)
	_, err = m.Complete(ctx, "run-1", "optimization", nil)
	require.NoError(t, err)

	_, err = m.Start(ctx, "run-1", "optimization")
	require.Error(t, err)
	assert.True(t, workflow.IsInvalidTransition(err))
}

func TestManager_FullRunCompletes(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.Create(ctx, "run-1", testSteps, testMeta())
	require.NoError(t, err)

	var state *models.WorkflowState

	for _, step := range testSteps {
		_, err = m.Start(ctx, "run-1", step)
		require.NoError(t, err)

		state, err = m.Complete(ctx, "run-1", step, nil)
		require.NoError(t, err)
	}

	assert.True(t, state.Completed())
	assert.Empty(t, state.CurrentStep)
}

func TestManager_StatePersistsAcrossManagers(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	root := t.TempDir()
	ctx := context.Background()

	first := workflow.NewManager(file.NewStateRepository(root), nil, logger)
	_, err := first.Create(ctx, "run-1", testSteps, testMeta())
	require.NoError(t, err)
	_, err = first.Start(ctx, "run-1", "optimization")
	require.NoError(t, err)
	_, err = first.Complete(ctx, "run-1", "optimization", nil)
	require.NoError(t, err)

	second := workflow.NewManager(file.NewStateRepository(root), nil, logger)
	state, err := second.Load(ctx, "run-1")
	require.NoError(t, err)

	assert.Equal(t, models.StepStatusPassed, state.Record("optimization").Status)

	ok, _ := second.CanStart(state, "forward_pass")
	assert.True(t, ok)
}

func TestManager_RecordPostStep(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.Create(ctx, "run-1", testSteps, testMeta())
	require.NoError(t, err)

	state, err := m.RecordPostStep(ctx, "run-1", "export_report", "completed",
		map[string]any{"path": "/tmp/report.json"}, "")
	require.NoError(t, err)

	require.Len(t, state.PostSteps, 1)
	assert.NotEmpty(t, state.PostSteps[0].ID)
	assert.Equal(t, "export_report", state.PostSteps[0].Name)
	assert.Equal(t, "completed", state.PostSteps[0].Status)
	assert.False(t, state.PostSteps[0].RecordedAt.IsZero())

	state, err = m.RecordPostStep(ctx, "run-1", "notify", "failed", nil, "smtp timeout")
	require.NoError(t, err)

	require.Len(t, state.PostSteps, 2)
	assert.NotEqual(t, state.PostSteps[0].ID, state.PostSteps[1].ID)
	assert.Equal(t, "smtp timeout", state.PostSteps[1].Error)

	// Post-step statuses are free-form, not step FSM states; any label the
	// recorder chose survives persistence as-is.
	_, err = m.RecordPostStep(ctx, "run-1", "export_set_file", "exported_with_warnings", nil, "")
	require.NoError(t, err)

	reloaded, err := m.Load(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, reloaded.PostSteps, 3)
	assert.Equal(t, "exported_with_warnings", reloaded.PostSteps[2].Status)
}

func TestManager_Load_NotFound(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)

	_, err := m.Load(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, persistence.IsRunNotFound(err))
}
