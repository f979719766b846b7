package dispatch

import (
	"context"
	"errors"
	"fmt"

	"basegraph.app/eventstore/internal/model"
)

// ErrNoRoute is returned for an operation type with no handler and no fallback.
var ErrNoRoute = errors.New("no dispatcher for operation type")

type Dispatcher interface {
	Apply(ctx context.Context, event model.ReplayEvent) error
}

type HandlerFunc func(ctx context.Context, event model.ReplayEvent) error

func (f HandlerFunc) Apply(ctx context.Context, event model.ReplayEvent) error {
	return f(ctx, event)
}

// Router sends each event to the dispatcher registered for its operation type.
type Router struct {
	routes   map[model.OperationType]Dispatcher
	fallback Dispatcher
}

func NewRouter() *Router {
	return &Router{routes: make(map[model.OperationType]Dispatcher)}
}

func (r *Router) Handle(op model.OperationType, d Dispatcher) *Router {
	r.routes[op] = d
	return r
}

// Fallback receives every operation type without its own route.
func (r *Router) Fallback(d Dispatcher) *Router {
	r.fallback = d
	return r
}

func (r *Router) Apply(ctx context.Context, event model.ReplayEvent) error {
	if d, ok := r.routes[event.OperationType]; ok {
		return d.Apply(ctx, event)
	}
	if r.fallback != nil {
		return r.fallback.Apply(ctx, event)
	}
	return fmt.Errorf("%w: %s", ErrNoRoute, event.OperationType)
}
