// Package events defines event types and structures for run lifecycle notifications.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic carries every run lifecycle event.
const Topic = "simpleea.runs"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Run lifecycle events.
	RunCreatedEvent   EventType = "run.created"
	RunCompletedEvent EventType = "run.completed"

	// Step lifecycle events.
	StepStartedEvent EventType = "run.step.started"
	StepPassedEvent  EventType = "run.step.passed"
	StepFailedEvent  EventType = "run.step.failed"

	// Post-step bookkeeping events.
	PostStepRecordedEvent EventType = "run.post_step.recorded"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	RunID     string         `json:"run_id"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type RunCreated struct {
	BaseEvent

	Strategy  string   `json:"strategy"`
	Symbol    string   `json:"symbol,omitempty"`
	Timeframe string   `json:"timeframe,omitempty"`
	Steps     []string `json:"steps"`
}

func (e RunCreated) GetType() EventType {
	return RunCreatedEvent
}

type RunCompleted struct {
	BaseEvent

	Strategy   string `json:"strategy"`
	DurationMs int64  `json:"duration_ms"`
}

func (e RunCompleted) GetType() EventType {
	return RunCompletedEvent
}

type StepStarted struct {
	BaseEvent

	Step     string `json:"step"`
	Attempts int    `json:"attempts"`
}

func (e StepStarted) GetType() EventType {
	return StepStartedEvent
}

type StepPassed struct {
	BaseEvent

	Step       string         `json:"step"`
	Output     map[string]any `json:"output,omitempty"`
	DurationMs int64          `json:"duration_ms"`
}

func (e StepPassed) GetType() EventType {
	return StepPassedEvent
}

type StepFailed struct {
	BaseEvent

	Step       string `json:"step"`
	Error      string `json:"error"`
	Attempts   int    `json:"attempts"`
	DurationMs int64  `json:"duration_ms"`
}

func (e StepFailed) GetType() EventType {
	return StepFailedEvent
}

type PostStepRecorded struct {
	BaseEvent

	PostStepID string         `json:"post_step_id"`
	Name       string         `json:"name"`
	Status     string         `json:"status"`
	Output     map[string]any `json:"output,omitempty"`
}

func (e PostStepRecorded) GetType() EventType {
	return PostStepRecordedEvent
}

func NewBaseEvent(eventType EventType, runID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		RunID:     runID,
		Metadata:  make(map[string]any),
	}
}
