package workflow_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/longytravel/simpleEA/pkg/eventbus"
	"github.com/longytravel/simpleEA/pkg/events"
	"github.com/longytravel/simpleEA/pkg/mocks"
	"github.com/longytravel/simpleEA/pkg/models"
	"github.com/longytravel/simpleEA/pkg/persistence"
	"github.com/longytravel/simpleEA/pkg/persistence/file"
	"github.com/longytravel/simpleEA/pkg/workflow"
)

func eventOfType(eventType events.EventType) any {
	return mock.MatchedBy(func(event eventbus.Event) bool {
		return event.GetType() == eventType
	})
}

func TestManager_PublishesLifecycleEvents(t *testing.T) {
	t.Parallel()

	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, "run-1", eventOfType(events.RunCreatedEvent)).Return(nil).Once()
	bus.On("Publish", mock.Anything, "run-1", eventOfType(events.StepStartedEvent)).Return(nil).Times(2)
	bus.On("Publish", mock.Anything, "run-1", eventOfType(events.StepPassedEvent)).Return(nil).Times(2)
	bus.On("Publish", mock.Anything, "run-1", eventOfType(events.RunCompletedEvent)).Return(nil).Once()

	repository := file.NewPersistence(t.TempDir()).StateRepository()
	manager := workflow.NewManager(repository, bus, slog.Default())
	ctx := context.Background()

	_, err := manager.Create(ctx, "run-1", []string{"monte_carlo", "scoring"}, models.RunMetadata{Strategy: "breakout"})
	require.NoError(t, err)

	for _, step := range []string{"monte_carlo", "scoring"} {
		_, err = manager.Start(ctx, "run-1", step)
		require.NoError(t, err)
		_, err = manager.Complete(ctx, "run-1", step, nil)
		require.NoError(t, err)
	}

	bus.AssertExpectations(t)
}

func TestManager_PublishFailureDoesNotFailMutation(t *testing.T) {
	t.Parallel()

	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))

	repository := file.NewPersistence(t.TempDir()).StateRepository()
	manager := workflow.NewManager(repository, bus, slog.Default())

	state, err := manager.Create(context.Background(), "run-1", testSteps, models.RunMetadata{Strategy: "breakout"})
	require.NoError(t, err)
	assert.Equal(t, "run-1", state.RunID)
}

func TestManager_SaveFailureSurfaces(t *testing.T) {
	t.Parallel()

	saveErr := errors.New("disk full")

	repository := &mocks.MockStateRepository{}
	repository.On("GetByRunID", mock.Anything, "run-1").
		Return(nil, persistence.NewRunError("GetByRunID", "run-1", persistence.ErrRunNotFound))
	repository.On("Save", mock.Anything, mock.Anything).Return(saveErr)

	manager := workflow.NewManager(repository, nil, slog.Default())

	_, err := manager.Create(context.Background(), "run-1", testSteps, models.RunMetadata{Strategy: "breakout"})
	require.Error(t, err)
	assert.ErrorIs(t, err, saveErr)
}
