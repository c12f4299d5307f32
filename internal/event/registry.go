package event

import (
	"sort"
	"sync"

	"github.com/tenchan000517/novel-sub005/internal/event/topic"
)

// Registry holds subscriptions bucketed by topic pattern. Exact
// patterns live in their own map so the common case is a single map
// lookup; wildcard patterns are matched linearly, which stays cheap
// because the topic catalog is small and closed.
//
// Registry is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	exact map[topic.Topic][]*subscription
	wild  map[topic.Topic][]*subscription
	byID  map[string]*subscription
	seq   uint64
}

// NewRegistry creates an empty subscription registry.
func NewRegistry() *Registry {
	return &Registry{
		exact: make(map[topic.Topic][]*subscription),
		wild:  make(map[topic.Topic][]*subscription),
		byID:  make(map[string]*subscription),
	}
}

// Add registers a subscription under its topic pattern and assigns
// its registration sequence number.
func (r *Registry) Add(sub *subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	sub.seq = r.seq

	buckets := r.exact
	if sub.pattern.IsWildcard() {
		buckets = r.wild
	}
	buckets[sub.pattern] = append(buckets[sub.pattern], sub)

	r.byID[sub.id] = sub
}

// Remove removes a subscription by ID. Removing the last subscription
// for a pattern removes the pattern's bucket. Returns false if the
// subscription is not registered.
func (r *Registry) Remove(subID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub, exists := r.byID[subID]
	if !exists {
		return false
	}

	buckets := r.exact
	if sub.pattern.IsWildcard() {
		buckets = r.wild
	}

	subs := buckets[sub.pattern]
	for i, s := range subs {
		if s.id == subID {
			buckets[sub.pattern] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(buckets[sub.pattern]) == 0 {
		delete(buckets, sub.pattern)
	}

	delete(r.byID, subID)
	return true
}

// Get returns a subscription by ID.
func (r *Registry) Get(subID string) (*subscription, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sub, exists := r.byID[subID]
	return sub, exists
}

// Match returns all subscriptions whose pattern matches the event
// topic, ordered by priority with registration order breaking ties.
// The returned slice is a snapshot; later registry mutations do not
// affect it.
func (r *Registry) Match(eventTopic topic.Topic) []*subscription {
	r.mu.RLock()

	var all []*subscription
	all = append(all, r.exact[eventTopic]...)
	for pattern, subs := range r.wild {
		if eventTopic.Matches(pattern) {
			all = append(all, subs...)
		}
	}

	r.mu.RUnlock()

	if len(all) == 0 {
		return nil
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].config.Priority != all[j].config.Priority {
			return all[i].config.Priority < all[j].config.Priority
		}
		return all[i].seq < all[j].seq
	})

	return all
}

// MatchActive returns the matching subscriptions that have not been
// cancelled.
func (r *Registry) MatchActive(eventTopic topic.Topic) []*subscription {
	all := r.Match(eventTopic)
	if len(all) == 0 {
		return nil
	}

	result := make([]*subscription, 0, len(all))
	for _, sub := range all {
		if sub.Active() {
			result = append(result, sub)
		}
	}
	return result
}

// Count returns the total number of registered subscriptions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.byID)
}

// CountActive returns the number of live subscriptions.
func (r *Registry) CountActive() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, sub := range r.byID {
		if sub.Active() {
			count++
		}
	}
	return count
}

// Topics returns all patterns that currently have subscriptions.
func (r *Registry) Topics() []topic.Topic {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.exact) == 0 && len(r.wild) == 0 {
		return nil
	}

	topics := make([]topic.Topic, 0, len(r.exact)+len(r.wild))
	for t := range r.exact {
		topics = append(topics, t)
	}
	for t := range r.wild {
		topics = append(topics, t)
	}
	return topics
}
