package event

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tenchan000517/novel-sub005/internal/event/dispatch"
	"github.com/tenchan000517/novel-sub005/internal/event/topic"
)

// Bus is the central event bus interface.
//
// Publishing never blocks on delivery: events are appended to a FIFO
// queue and dispatched by a single drain goroutine, so dispatch order
// across the whole bus is publish order. Handlers may publish from
// inside a delivery; those events join the tail of the same queue.
type Bus interface {
	// Publish queues an event for dispatch. Missing metadata (ID,
	// timestamp) is stamped. In strict mode a loop storm fails with
	// ErrLoopDetected; otherwise storms only log a warning.
	Publish(ctx context.Context, env Envelope) error

	// PublishWait queues an event and returns a channel that closes
	// once the queue has fully drained, meaning this event and
	// everything queued behind it has been delivered.
	PublishWait(ctx context.Context, env Envelope) (<-chan struct{}, error)

	// Subscribe registers a handler for a topic pattern.
	Subscribe(pattern topic.Topic, h Handler, opts ...SubscriptionOption) (Subscription, error)

	// SubscribeFunc is a convenience wrapper for function handlers.
	SubscribeFunc(pattern topic.Topic, fn HandlerFunc, opts ...SubscriptionOption) (Subscription, error)

	// Unsubscribe removes a subscription. It is idempotent: removing
	// a subscription twice is a no-op.
	Unsubscribe(sub Subscription) error

	// Drain blocks until the queue is momentarily empty, or the
	// context is done. It returns immediately on an idle bus.
	Drain(ctx context.Context) error

	// Close stops the bus: no further publishes are accepted, the
	// remaining queue is drained (bounded by ctx) and outstanding
	// waiters are resolved.
	Close(ctx context.Context) error

	// Stats returns current bus counters.
	Stats() Stats
}

// bus is the default Bus implementation.
type bus struct {
	registry *Registry
	guard    *loopGuard
	exec     dispatch.Executor
	log      logrus.FieldLogger
	config   busConfig

	// handlerCtx is the parent context for handler invocations. It is
	// cancelled after Close so stragglers stop on shutdown.
	handlerCtx     context.Context
	cancelHandlers context.CancelFunc

	mu       sync.Mutex
	queue    []Envelope
	draining bool
	waiters  []chan struct{}
	closed   bool

	published     atomic.Uint64
	delivered     atomic.Uint64
	handlerErrors atomic.Uint64
	handlerPanics atomic.Uint64
	storms        atomic.Uint64
}

// NewBus creates a new event bus. The bus is immediately usable and
// must be released with Close.
func NewBus(opts ...BusOption) Bus {
	config := defaultBusConfig()
	for _, opt := range opts {
		opt(&config)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &bus{
		registry:       NewRegistry(),
		guard:          newLoopGuard(config.loopThreshold, config.loopWindow),
		log:            config.logger,
		config:         config,
		handlerCtx:     ctx,
		cancelHandlers: cancel,
	}
}

// Publish queues an event for dispatch.
func (b *bus) Publish(ctx context.Context, env Envelope) error {
	_, err := b.publish(ctx, env, false)
	return err
}

// PublishWait queues an event and returns a completion channel that
// closes when the queue has fully drained.
func (b *bus) PublishWait(ctx context.Context, env Envelope) (<-chan struct{}, error) {
	return b.publish(ctx, env, true)
}

func (b *bus) publish(ctx context.Context, env Envelope, wait bool) (<-chan struct{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !env.Topic.IsValid() || env.Topic.IsWildcard() {
		return nil, fmt.Errorf("publish %q: %w", env.Topic, ErrInvalidTopic)
	}

	if env.Meta.ID == "" {
		env.Meta.ID = newID()
	}
	if env.Meta.Timestamp.IsZero() {
		env.Meta.Timestamp = timeNow()
	}

	if count, storm := b.guard.observe(env.Topic); storm {
		b.storms.Add(1)
		b.log.WithFields(logrus.Fields{
			"topic":     env.Topic,
			"count":     count,
			"threshold": b.config.loopThreshold,
			"window":    b.config.loopWindow,
		}).Warn("possible event loop detected")

		if b.config.strictLoops {
			return nil, fmt.Errorf("topic %q published %d times within %s: %w",
				env.Topic, count, b.config.loopWindow, ErrLoopDetected)
		}
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrBusClosed
	}

	b.queue = append(b.queue, env)
	b.published.Add(1)

	var done chan struct{}
	if wait {
		done = make(chan struct{})
		b.waiters = append(b.waiters, done)
	}

	if !b.draining {
		b.draining = true
		go b.drain()
	}
	b.mu.Unlock()

	return done, nil
}

// drain pops and delivers queued events one at a time until the queue
// is empty. Only one drain goroutine runs at a time; the draining flag
// transitions under the bus mutex.
func (b *bus) drain() {
	for {
		b.mu.Lock()
		if len(b.queue) == 0 {
			b.draining = false
			b.notifyIdleLocked()
			b.mu.Unlock()
			return
		}
		env := b.queue[0]
		b.queue = b.queue[1:]
		b.mu.Unlock()

		b.deliver(env)

		// Let publishers and freshly spawned goroutines run between
		// events.
		runtime.Gosched()
	}
}

// notifyIdleLocked resolves all completion waiters. Callers must hold
// the bus mutex.
func (b *bus) notifyIdleLocked() {
	for _, w := range b.waiters {
		close(w)
	}
	b.waiters = nil
}

// deliver fans one event out to the subscriptions registered at this
// moment, as a batch of goroutines launched in priority order, and
// waits for the whole batch. Handler failures are logged and isolated.
func (b *bus) deliver(env Envelope) {
	subs := b.registry.MatchActive(env.Topic)
	if len(subs) == 0 {
		return
	}

	invokers := make([]dispatch.Invoker, len(subs))
	for i, sub := range subs {
		h := sub.handler
		invokers[i] = func(ctx context.Context) error {
			return h.Handle(ctx, env)
		}
	}

	results := b.exec.ExecuteBatch(b.handlerCtx, invokers)

	for i, res := range results {
		sub := subs[i]
		switch {
		case res.Panicked:
			b.handlerPanics.Add(1)
			b.log.WithFields(logrus.Fields{
				"topic":        env.Topic,
				"event_id":     env.Meta.ID,
				"subscription": sub.id,
				"stack":        string(res.PanicStack),
			}).WithError(&PanicError{
				SubscriptionID: sub.id,
				Topic:          env.Topic.String(),
				Value:          res.PanicValue,
				Stack:          string(res.PanicStack),
			}).Error("event handler panicked")
		case res.Err != nil && !res.Skipped:
			b.handlerErrors.Add(1)
			b.log.WithFields(logrus.Fields{
				"topic":        env.Topic,
				"event_id":     env.Meta.ID,
				"subscription": sub.id,
			}).WithError(&HandlerError{
				SubscriptionID: sub.id,
				Topic:          env.Topic.String(),
				Err:            res.Err,
			}).Error("event handler failed")
		case res.Success:
			b.delivered.Add(1)
		}

		// One-shot subscriptions are spent once invoked, whatever the
		// handler returned.
		if sub.config.Once && !res.Skipped {
			sub.cancel()
			b.registry.Remove(sub.id)
		}
	}
}

// Subscribe registers a handler for a topic pattern.
func (b *bus) Subscribe(pattern topic.Topic, h Handler, opts ...SubscriptionOption) (Subscription, error) {
	if h == nil {
		return nil, ErrNilHandler
	}
	if !pattern.IsValid() {
		return nil, fmt.Errorf("subscribe %q: %w", pattern, ErrInvalidTopic)
	}

	sub := newSubscription(uuid.NewString(), pattern, h, opts...)
	b.registry.Add(sub)

	return sub, nil
}

// SubscribeFunc is a convenience wrapper for function handlers.
func (b *bus) SubscribeFunc(pattern topic.Topic, fn HandlerFunc, opts ...SubscriptionOption) (Subscription, error) {
	return b.Subscribe(pattern, fn, opts...)
}

// Unsubscribe removes a subscription. Removing an already removed
// subscription is a no-op.
func (b *bus) Unsubscribe(sub Subscription) error {
	if sub == nil {
		return ErrInvalidSubscription
	}

	if s, ok := b.registry.Get(sub.ID()); ok {
		s.cancel()
	}
	b.registry.Remove(sub.ID())

	return nil
}

// Drain blocks until the queue is momentarily empty.
func (b *bus) Drain(ctx context.Context) error {
	b.mu.Lock()
	if !b.draining && len(b.queue) == 0 {
		b.mu.Unlock()
		return nil
	}
	done := make(chan struct{})
	b.waiters = append(b.waiters, done)
	b.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close refuses further publishes, drains the remaining queue bounded
// by ctx, then stops the loop guard and cancels handler contexts.
func (b *bus) Close(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrBusClosed
	}
	b.closed = true
	b.mu.Unlock()

	err := b.Drain(ctx)
	b.guard.stop()
	b.cancelHandlers()

	return err
}

// Stats returns current bus counters.
func (b *bus) Stats() Stats {
	b.mu.Lock()
	depth := len(b.queue)
	b.mu.Unlock()

	return Stats{
		Published:           b.published.Load(),
		Delivered:           b.delivered.Load(),
		HandlerErrors:       b.handlerErrors.Load(),
		HandlerPanics:       b.handlerPanics.Load(),
		Storms:              b.storms.Load(),
		QueueDepth:          depth,
		ActiveSubscriptions: b.registry.CountActive(),
	}
}
