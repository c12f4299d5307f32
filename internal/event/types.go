package event

import "context"

// Priority determines handler start order within one event's delivery
// batch. Lower values start first. Priority never reorders events:
// dispatch across events is strictly first-in first-out.
type Priority int

const (
	// PriorityCritical is for handlers that keep stored state consistent.
	PriorityCritical Priority = 0

	// PriorityHigh is for cascade handlers that derive further events.
	PriorityHigh Priority = 100

	// PriorityNormal is the default priority.
	PriorityNormal Priority = 200

	// PriorityLow is for projections, timelines and logging.
	PriorityLow Priority = 300
)

// String returns a human-readable priority name.
func (p Priority) String() string {
	switch {
	case p <= PriorityCritical:
		return "critical"
	case p <= PriorityHigh:
		return "high"
	case p <= PriorityNormal:
		return "normal"
	default:
		return "low"
	}
}

// Handler is the interface for event handlers.
type Handler interface {
	// Handle processes one event. Returned errors are logged by the
	// bus and never propagated to the publisher or to other handlers.
	Handle(ctx context.Context, env Envelope) error
}

// HandlerFunc is a function adapter for Handler.
type HandlerFunc func(ctx context.Context, env Envelope) error

// Handle implements the Handler interface.
func (f HandlerFunc) Handle(ctx context.Context, env Envelope) error {
	return f(ctx, env)
}

// PayloadFunc adapts a payload-typed function to a Handler. Envelopes
// whose payload is not of type T are ignored.
func PayloadFunc[T any](fn func(ctx context.Context, env Envelope, payload T) error) HandlerFunc {
	return func(ctx context.Context, env Envelope) error {
		payload, ok := env.Payload.(T)
		if !ok {
			return nil
		}
		return fn(ctx, env, payload)
	}
}

// Stats contains event bus counters.
type Stats struct {
	// Published is the total number of events accepted for dispatch.
	Published uint64

	// Delivered is the number of successful handler invocations.
	Delivered uint64

	// HandlerErrors is the number of handlers that returned errors.
	HandlerErrors uint64

	// HandlerPanics is the number of handlers that panicked.
	HandlerPanics uint64

	// Storms is the number of publishes past the loop threshold.
	Storms uint64

	// QueueDepth is the current number of events awaiting dispatch.
	QueueDepth int

	// ActiveSubscriptions is the current number of live subscriptions.
	ActiveSubscriptions int
}
