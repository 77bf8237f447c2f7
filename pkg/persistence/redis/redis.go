// Package redis provides Redis persistence for run state snapshots.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	goredis "github.com/redis/go-redis/v9"

	"github.com/longytravel/simpleEA/pkg/models"
	"github.com/longytravel/simpleEA/pkg/persistence"
)

const keyPrefix = "simpleea:runs:"

// Persistence implements the persistence layer on a Redis instance. Each run
// snapshot is one JSON value under a prefixed key; SET is atomic, so readers
// always observe a complete snapshot.
type Persistence struct {
	client *goredis.Client
}

// NewPersistence creates a Redis persistence layer from a redis:// URL.
func NewPersistence(ctx context.Context, databaseURL string) (*Persistence, error) {
	opts, err := goredis.ParseURL(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := goredis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &Persistence{client: client}, nil
}

// StateRepository returns the run-state repository implementation.
func (p *Persistence) StateRepository() persistence.StateRepository {
	return &StateRepository{client: p.client}
}

// HealthCheck verifies the Redis connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

// Close closes the Redis connection.
func (p *Persistence) Close(_ context.Context) error {
	if err := p.client.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}

	return nil
}

// StateRepository stores one snapshot per run id under keyPrefix.
type StateRepository struct {
	client *goredis.Client
}

// Save persists the full snapshot with a single SET.
func (r *StateRepository) Save(ctx context.Context, state *models.WorkflowState) error {
	document, err := json.Marshal(state)
	if err != nil {
		return persistence.NewRunError("Save", state.RunID, fmt.Errorf("failed to marshal state: %w", err))
	}

	if err := r.client.Set(ctx, keyPrefix+state.RunID, document, 0).Err(); err != nil {
		return persistence.NewRunError("Save", state.RunID, fmt.Errorf("failed to set snapshot: %w", err))
	}

	return nil
}

// GetByRunID loads a snapshot by run id.
func (r *StateRepository) GetByRunID(ctx context.Context, runID string) (*models.WorkflowState, error) {
	document, err := r.client.Get(ctx, keyPrefix+runID).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, persistence.NewRunError("GetByRunID", runID, persistence.ErrRunNotFound)
	}

	if err != nil {
		return nil, persistence.NewRunError("GetByRunID", runID, fmt.Errorf("failed to get snapshot: %w", err))
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
	states := make([]*models.WorkflowState, 0)

	iter := r.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		runID := iter.Val()[len(keyPrefix):]

		state, err := r.GetByRunID(ctx, runID)
		if err != nil {
			// A key deleted between SCAN and GET is not an error.
			if persistence.IsRunNotFound(err) {
				continue
			}

			return nil, err
		}

		states = append(states, state)
	}

	if err := iter.Err(); err != nil {
		return nil, persistence.NewRunError("ListRuns", "", fmt.Errorf("failed to scan runs: %w", err))
	}

	sort.Slice(states, func(i, j int) bool {
		return states[i].CreatedAt.After(states[j].CreatedAt)
	})

	return states, nil
}

// Delete removes a snapshot by run id.
func (r *StateRepository) Delete(ctx context.Context, runID string) error {
	if err := r.client.Del(ctx, keyPrefix+runID).Err(); err != nil {
		return persistence.NewRunError("Delete", runID, fmt.Errorf("failed to delete snapshot: %w", err))
	}

	return nil
}
