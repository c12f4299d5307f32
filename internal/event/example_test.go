package event_test

import (
	"context"
	"fmt"

	"github.com/tenchan000517/novel-sub005/internal/event"
)

// Example demonstrates the publish/subscribe flow: a handler reacts to
// character updates and derives a follow-up event, and PublishWait
// observes the moment the queue has fully drained.
func Example() {
	bus := event.NewBus()
	defer bus.Close(context.Background())

	type promoted struct {
		CharacterID string
	}

	_, _ = bus.SubscribeFunc("character.updated", func(ctx context.Context, env event.Envelope) error {
		fmt.Println("character updated")
		follow := event.NewEnvelope("character.promoted", promoted{CharacterID: "char_001"}).WithCause(env.Meta)
		return bus.Publish(ctx, follow)
	})

	_, _ = bus.SubscribeFunc("character.promoted", func(ctx context.Context, env event.Envelope) error {
		p := env.Payload.(promoted)
		fmt.Printf("promoted: %s\n", p.CharacterID)
		return nil
	})

	done, err := bus.PublishWait(context.Background(), event.NewEnvelope("character.updated", nil))
	if err != nil {
		fmt.Println("publish failed:", err)
		return
	}
	<-done

	// Output:
	// character updated
	// promoted: char_001
}

// ExampleRegisterAll groups several handler bindings behind a single
// disposer.
func ExampleRegisterAll() {
	bus := event.NewBus()
	defer bus.Close(context.Background())

	dispose, err := event.RegisterAll(bus, []event.Registration{
		{
			Topic: "relationship.created",
			Handler: event.HandlerFunc(func(ctx context.Context, env event.Envelope) error {
				fmt.Println("created")
				return nil
			}),
			Priority: event.PriorityHigh,
		},
		{
			Topic: "relationship.deleted",
			Handler: event.HandlerFunc(func(ctx context.Context, env event.Envelope) error {
				fmt.Println("deleted")
				return nil
			}),
			Priority: event.PriorityNormal,
		},
	})
	if err != nil {
		fmt.Println("register failed:", err)
		return
	}
	defer dispose()

	done, _ := bus.PublishWait(context.Background(), event.NewEnvelope("relationship.created", nil))
	<-done

	// Output:
	// created
}
