package eventbus_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/longytravel/simpleEA/pkg/eventbus"
	"github.com/longytravel/simpleEA/pkg/events"
	"github.com/longytravel/simpleEA/pkg/mocks"
)

func TestFanoutPublisher_ForwardsToEveryPublisher(t *testing.T) {
	t.Parallel()

	event := events.RunCreated{
		BaseEvent: events.NewBaseEvent(events.RunCreatedEvent, "run-1"),
		Strategy:  "breakout",
	}

	first := &mocks.MockEventBus{}
	second := &mocks.MockEventBus{}
	first.On("Publish", mock.Anything, "run-1", event).Return(nil).Once()
	second.On("Publish", mock.Anything, "run-1", event).Return(nil).Once()

	fanout := eventbus.NewFanoutPublisher(first, second)

	require.NoError(t, fanout.Publish(context.Background(), "run-1", event))
	first.AssertExpectations(t)
	second.AssertExpectations(t)
}

func TestFanoutPublisher_FailureDoesNotSkipRemaining(t *testing.T) {
	t.Parallel()

	event := events.RunCompleted{
		BaseEvent: events.NewBaseEvent(events.RunCompletedEvent, "run-1"),
	}

	brokerDown := errors.New("broker down")

	first := &mocks.MockEventBus{}
	second := &mocks.MockEventBus{}
	first.On("Publish", mock.Anything, "run-1", event).Return(brokerDown).Once()
	second.On("Publish", mock.Anything, "run-1", event).Return(nil).Once()

	fanout := eventbus.NewFanoutPublisher(first, second)

	err := fanout.Publish(context.Background(), "run-1", event)
	assert.ErrorIs(t, err, brokerDown)
	second.AssertExpectations(t)
}

func TestFanoutPublisher_Empty(t *testing.T) {
	t.Parallel()

	fanout := eventbus.NewFanoutPublisher()

	assert.NoError(t, fanout.Publish(context.Background(), "run-1", events.RunCreated{
		BaseEvent: events.NewBaseEvent(events.RunCreatedEvent, "run-1"),
	}))
}
