package eventbus

import (
	"context"
	"errors"
)

// FanoutPublisher forwards every event to each underlying publisher. Used to
// mirror run lifecycle events onto an external notification bus alongside the
// in-process one. Every publisher is attempted even when an earlier one fails;
// the failures come back joined.
type FanoutPublisher struct {
	publishers []EventPublisher
}

func NewFanoutPublisher(publishers ...EventPublisher) *FanoutPublisher {
	return &FanoutPublisher{publishers: publishers}
}

func (f *FanoutPublisher) Publish(ctx context.Context, key string, event Event) error {
	var errs []error

	for _, publisher := range f.publishers {
		if err := publisher.Publish(ctx, key, event); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
