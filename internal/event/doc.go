// Package event provides the in-process publish/subscribe bus that
// coordinates mutations to characters and relationships.
//
// Producers publish an event when something changed; the handlers
// that must react (relationship sync, graph projection, promotion
// detection) subscribe to it. Neither side knows about the other.
//
// # Dispatch Model
//
// Publishing appends to a FIFO queue and never blocks on delivery. A
// single drain goroutine pops one event at a time, snapshots the
// matching subscriptions, fans them out as a batch of goroutines
// launched in priority order, and waits for the whole batch before
// starting the next event. Dispatch order across the bus is therefore
// exactly publish order, even when handlers publish follow-up events
// mid-delivery: those join the tail of the same queue.
//
// # Failure Isolation
//
// A handler that returns an error or panics is logged and never
// affects its siblings, later events, or the publisher. Panics are
// recovered with their stack trace.
//
// # Loop Detection
//
// A per-topic counter flags topics published more than a threshold of
// times within a reset window. Storms always log a warning; with
// WithStrictLoops the publish also fails with ErrLoopDetected, which
// turns a silent livelock into a test failure.
//
// # Event Topics
//
// Events use hierarchical dot-notation topics:
//
//	character.updated
//	character.state.changed
//	relationship.strengthened
//	chapter.written
//
// Subscription patterns may use wildcards: "relationship.*" matches
// one extra segment, "relationship.**" any number.
//
// # Basic Usage
//
//	bus := event.NewBus(event.WithLogger(log))
//	defer bus.Close(context.Background())
//
//	sub, err := bus.SubscribeFunc("relationship.*", func(ctx context.Context, env event.Envelope) error {
//	    // react to env.Payload
//	    return nil
//	}, event.WithPriority(event.PriorityHigh))
//
//	env := event.NewEnvelope(events.TopicRelationshipCreated, payload)
//	err = bus.Publish(ctx, env.WithSource("story.service"))
//
// PublishWait returns a channel that closes once the queue has fully
// drained, covering the published event and every cascade event queued
// behind it at that point:
//
//	done, err := bus.PublishWait(ctx, env)
//	if err == nil {
//	    <-done
//	}
//
// # Subpackages
//
//   - events: the closed catalog of typed event payloads
//   - topic: topic types and wildcard pattern matching
//   - dispatch: panic-isolated handler execution
package event
