package event

import (
	"fmt"
	"sync"

	"github.com/tenchan000517/novel-sub005/internal/event/topic"
)

// Registration declares one handler binding for RegisterAll.
type Registration struct {
	// Topic is the topic pattern to subscribe to.
	Topic topic.Topic

	// Handler receives matching events.
	Handler Handler

	// Priority determines start order within a delivery batch. It
	// never reorders events relative to each other.
	Priority Priority
}

// Disposer removes a group of subscriptions. Calling it more than
// once is a no-op.
type Disposer func()

// RegisterAll subscribes every registration in order and returns a
// single disposer covering the whole group. If any subscription
// fails, the ones already made are removed and the error is returned.
func RegisterAll(b Bus, regs []Registration) (Disposer, error) {
	subs := make([]Subscription, 0, len(regs))

	for _, reg := range regs {
		sub, err := b.Subscribe(reg.Topic, reg.Handler, WithPriority(reg.Priority))
		if err != nil {
			for _, s := range subs {
				_ = b.Unsubscribe(s)
			}
			return nil, fmt.Errorf("register %q: %w", reg.Topic, err)
		}
		subs = append(subs, sub)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			for _, s := range subs {
				_ = b.Unsubscribe(s)
			}
		})
	}, nil
}
