package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/longytravel/simpleEA/pkg/models"
)

// MockStateRepository is a mock implementation of the
// persistence.StateRepository interface.
type MockStateRepository struct {
	mock.Mock
}

func (m *MockStateRepository) Save(ctx context.Context, state *models.WorkflowState) error {
	args := m.Called(ctx, state)

	return args.Error(0)
}

func (m *MockStateRepository) GetByRunID(ctx context.Context, runID string) (*models.WorkflowState, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.WorkflowState), args.Error(1)
}

func (m *MockStateRepository) ListRuns(ctx context.Context) ([]*models.WorkflowState, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.WorkflowState), args.Error(1)
}

func (m *MockStateRepository) Delete(ctx context.Context, runID string) error {
	args := m.Called(ctx, runID)

	return args.Error(0)
}
