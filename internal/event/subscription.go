package event

import (
	"sync/atomic"

	"github.com/tenchan000517/novel-sub005/internal/event/topic"
)

// Subscription is the token returned by Subscribe. It identifies the
// registration for Unsubscribe and reports whether it is still live.
type Subscription interface {
	// ID returns the unique subscription identifier.
	ID() string

	// Topic returns the subscribed topic pattern.
	Topic() topic.Topic

	// Active returns true while the subscription can receive events.
	Active() bool
}

// SubscriptionConfig contains configuration for a subscription.
type SubscriptionConfig struct {
	// Priority determines start order within one event's delivery
	// batch (lower values first).
	Priority Priority

	// Once auto-removes the subscription after its first delivery.
	Once bool
}

// DefaultSubscriptionConfig returns the default subscription configuration.
func DefaultSubscriptionConfig() SubscriptionConfig {
	return SubscriptionConfig{Priority: PriorityNormal}
}

// SubscriptionOption configures a subscription.
type SubscriptionOption func(*SubscriptionConfig)

// WithPriority sets the subscription priority.
func WithPriority(p Priority) SubscriptionOption {
	return func(c *SubscriptionConfig) {
		c.Priority = p
	}
}

// WithOnce makes the subscription auto-remove after its first delivery.
func WithOnce() SubscriptionOption {
	return func(c *SubscriptionConfig) {
		c.Once = true
	}
}

// subscription is the internal implementation of Subscription.
type subscription struct {
	id      string
	pattern topic.Topic
	handler Handler
	config  SubscriptionConfig

	// seq is the registration order, assigned by the registry. It
	// breaks priority ties so delivery batches are deterministic.
	seq uint64

	cancelled atomic.Bool
}

// newSubscription creates a new subscription.
func newSubscription(id string, pattern topic.Topic, h Handler, opts ...SubscriptionOption) *subscription {
	config := DefaultSubscriptionConfig()
	for _, opt := range opts {
		opt(&config)
	}

	return &subscription{
		id:      id,
		pattern: pattern,
		handler: h,
		config:  config,
	}
}

// ID returns the subscription ID.
func (s *subscription) ID() string {
	return s.id
}

// Topic returns the subscribed topic pattern.
func (s *subscription) Topic() topic.Topic {
	return s.pattern
}

// Active returns true while the subscription can receive events.
func (s *subscription) Active() bool {
	return !s.cancelled.Load()
}

// cancel permanently stops delivery to this subscription. An in-flight
// invocation from an already snapshotted batch is not recalled.
func (s *subscription) cancel() {
	s.cancelled.Store(true)
}
