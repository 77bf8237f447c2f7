// Package workflow provides run lifecycle management with ordered step gating.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/longytravel/simpleEA/pkg/eventbus"
	"github.com/longytravel/simpleEA/pkg/events"
	"github.com/longytravel/simpleEA/pkg/models"
	"github.com/longytravel/simpleEA/pkg/persistence"
)

// Manager owns the step state machine of evaluation runs. Every mutation goes
// through load, validate, persist; the snapshot on disk is always the source
// of truth, so a crashed run resumes from its last persisted step.
type Manager struct {
	repository persistence.StateRepository
	publisher  eventbus.EventPublisher
	validator  *validator.Validate
	logger     *slog.Logger
}

// NewManager creates a run lifecycle manager.
func NewManager(repository persistence.StateRepository, publisher eventbus.EventPublisher, logger *slog.Logger) *Manager {
	return &Manager{
		repository: repository,
		publisher:  publisher,
		validator:  validator.New(validator.WithRequiredStructEnabled()),
		logger:     logger,
	}
}

// Create starts a fresh run with every step pending. A run id collision is
// rejected rather than overwritten. An empty runID gets a generated id.
func (m *Manager) Create(ctx context.Context, runID string, steps []string, meta models.RunMetadata) (*models.WorkflowState, error) {
	if runID == "" {
		runID = uuid.New().String()
	}

	if _, err := m.repository.GetByRunID(ctx, runID); err == nil {
		return nil, persistence.NewRunError("Create", runID, persistence.ErrRunAlreadyExists)
	} else if !persistence.IsRunNotFound(err) {
		return nil, err
	}

	state := models.NewWorkflowState(runID, steps, meta)

	if err := m.validator.Struct(state); err != nil {
		return nil, persistence.NewRunError("Create", runID, fmt.Errorf("invalid run: %w", err))
	}

	if err := m.repository.Save(ctx, state); err != nil {
		return nil, err
	}

	m.logger.InfoContext(ctx, "Run created", "runId", runID, "strategy", state.Strategy, "steps", len(steps))

	m.publish(ctx, runID, events.RunCreated{
		BaseEvent: events.NewBaseEvent(events.RunCreatedEvent, runID),
		Strategy:  state.Strategy,
		Symbol:    state.Symbol,
		Timeframe: state.Timeframe,
		Steps:     state.Steps,
	})

	return state, nil
}

// Load returns the persisted snapshot for a run.
func (m *Manager) Load(ctx context.Context, runID string) (*models.WorkflowState, error) {
	return m.repository.GetByRunID(ctx, runID)
}

// ListRuns returns every persisted run, newest first.
func (m *Manager) ListRuns(ctx context.Context) ([]*models.WorkflowState, error) {
	return m.repository.ListRuns(ctx)
}

// CanStart reports whether the named step may start now. A step is startable
// when it exists, has not already passed, and its immediate predecessor has
// passed. The reason is empty when startable.
func (m *Manager) CanStart(state *models.WorkflowState, step string) (bool, string) {
	record := state.Record(step)
	if record == nil {
		return false, "step is not part of the run"
	}

	if record.Status == models.StepStatusPassed {
		return false, "step has already passed"
	}

	if record.Status == models.StepStatusInProgress {
		return false, "step is already in progress"
	}

	if predecessor, ok := state.Predecessor(step); ok {
		if prev := state.Record(predecessor); prev == nil || prev.Status != models.StepStatusPassed {
			return false, fmt.Sprintf("predecessor %s has not passed", predecessor)
		}
	}

	return true, ""
}

// Start transitions a step to in progress. Failed steps may be retried; the
// attempt counter carries across retries.
func (m *Manager) Start(ctx context.Context, runID, step string) (*models.WorkflowState, error) {
	state, err := m.repository.GetByRunID(ctx, runID)
	if err != nil {
		return nil, err
	}

	record := state.Record(step)
	if record == nil {
		return nil, NewStepError("Start", runID, step, ErrUnknownStep)
	}

	if ok, reason := m.CanStart(state, step); !ok {
		if record.Status == models.StepStatusPassed || record.Status == models.StepStatusInProgress {
			return nil, NewStepError("Start", runID, step, fmt.Errorf("%w: %s", ErrInvalidTransition, reason))
		}

		return nil, NewStepError("Start", runID, step, fmt.Errorf("%w: %s", ErrStepGated, reason))
	}

	if !record.Status.CanTransitionTo(models.StepStatusInProgress) {
		return nil, NewStepError("Start", runID, step,
			fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, record.Status, models.StepStatusInProgress))
	}

	now := time.Now().UTC()
	record.Status = models.StepStatusInProgress
	record.StartedAt = &now
	record.CompletedAt = nil
	record.Error = ""
	record.Attempts++
	state.CurrentStep = step
	state.UpdatedAt = now

	if err := m.repository.Save(ctx, state); err != nil {
		return nil, err
	}

	m.logger.InfoContext(ctx, "Step started", "runId", runID, "step", step, "attempt", record.Attempts)

	m.publish(ctx, runID, events.StepStarted{
		BaseEvent: events.NewBaseEvent(events.StepStartedEvent, runID),
		Step:      step,
		Attempts:  record.Attempts,
	})

	return state, nil
}

// Complete transitions an in-progress step to passed and advances the current
// step pointer. Output is stored on the step record for later reporting.
func (m *Manager) Complete(ctx context.Context, runID, step string, output map[string]any) (*models.WorkflowState, error) {
	state, err := m.repository.GetByRunID(ctx, runID)
	if err != nil {
		return nil, err
	}

	record := state.Record(step)
	if record == nil {
		return nil, NewStepError("Complete", runID, step, ErrUnknownStep)
	}

	if !record.Status.CanTransitionTo(models.StepStatusPassed) {
		return nil, NewStepError("Complete", runID, step,
			fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, record.Status, models.StepStatusPassed))
	}

	now := time.Now().UTC()
	record.Status = models.StepStatusPassed
	record.CompletedAt = &now
	record.Output = output
	record.Error = ""
	state.CurrentStep = state.NextStep()
	state.UpdatedAt = now

	if err := m.repository.Save(ctx, state); err != nil {
		return nil, err
	}

	m.logger.InfoContext(ctx, "Step passed", "runId", runID, "step", step)

	m.publish(ctx, runID, events.StepPassed{
		BaseEvent:  events.NewBaseEvent(events.StepPassedEvent, runID),
		Step:       step,
		Output:     output,
		DurationMs: stepDurationMs(record, now),
	})

	if state.Completed() {
		m.logger.InfoContext(ctx, "Run completed", "runId", runID)

		m.publish(ctx, runID, events.RunCompleted{
			BaseEvent:  events.NewBaseEvent(events.RunCompletedEvent, runID),
			Strategy:   state.Strategy,
			DurationMs: now.Sub(state.CreatedAt).Milliseconds(),
		})
	}

	return state, nil
}

// Fail transitions an in-progress step to failed with the given reason. The
// step stays retryable via Start.
func (m *Manager) Fail(ctx context.Context, runID, step, reason string) (*models.WorkflowState, error) {
	state, err := m.repository.GetByRunID(ctx, runID)
	if err != nil {
		return nil, err
	}

	record := state.Record(step)
	if record == nil {
		return nil, NewStepError("Fail", runID, step, ErrUnknownStep)
	}

	if !record.Status.CanTransitionTo(models.StepStatusFailed) {
		return nil, NewStepError("Fail", runID, step,
			fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, record.Status, models.StepStatusFailed))
	}

	now := time.Now().UTC()
	record.Status = models.StepStatusFailed
	record.CompletedAt = &now
	record.Error = reason
	state.UpdatedAt = now

	if err := m.repository.Save(ctx, state); err != nil {
		return nil, err
	}

	m.logger.WarnContext(ctx, "Step failed", "runId", runID, "step", step, "reason", reason)

	m.publish(ctx, runID, events.StepFailed{
		BaseEvent:  events.NewBaseEvent(events.StepFailedEvent, runID),
		Step:       step,
		Error:      reason,
		Attempts:   record.Attempts,
		DurationMs: stepDurationMs(record, now),
	})

	return state, nil
}

// RecordPostStep appends a bookkeeping record outside the gated step sequence.
// Post steps never block the run; they only document side work like exports.
func (m *Manager) RecordPostStep(ctx context.Context, runID, name, status string, output map[string]any, errMsg string) (*models.WorkflowState, error) {
	state, err := m.repository.GetByRunID(ctx, runID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	record := &models.PostStepRecord{
		ID:         uuid.New().String(),
		Name:       name,
		Status:     status,
		Output:     output,
		Error:      errMsg,
		RecordedAt: now,
	}

	state.PostSteps = append(state.PostSteps, record)
	state.UpdatedAt = now

	if err := m.repository.Save(ctx, state); err != nil {
		return nil, err
	}

	m.publish(ctx, runID, events.PostStepRecorded{
		BaseEvent:  events.NewBaseEvent(events.PostStepRecordedEvent, runID),
		PostStepID: record.ID,
		Name:       name,
		Status:     status,
		Output:     output,
	})

	return state, nil
}

// Delete removes a run and its snapshot.
func (m *Manager) Delete(ctx context.Context, runID string) error {
	return m.repository.Delete(ctx, runID)
}

func (m *Manager) publish(ctx context.Context, key string, event eventbus.Event) {
	if m.publisher == nil {
		return
	}

	if err := m.publisher.Publish(ctx, key, event); err != nil {
		m.logger.ErrorContext(ctx, "Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}

func stepDurationMs(record *models.StepRecord, completedAt time.Time) int64 {
	if record.StartedAt == nil {
		return 0
	}

	return completedAt.Sub(*record.StartedAt).Milliseconds()
}
