package service

import (
	"context"

	"basegraph.app/eventstore/internal/model"
)

// Dispatcher re-applies a decoded event to current application state.
// Implementations must tolerate seeing the same event more than once.
type Dispatcher interface {
	Apply(ctx context.Context, event model.ReplayEvent) error
}

type DispatcherFunc func(ctx context.Context, event model.ReplayEvent) error

func (f DispatcherFunc) Apply(ctx context.Context, event model.ReplayEvent) error {
	return f(ctx, event)
}
