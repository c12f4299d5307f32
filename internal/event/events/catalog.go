package events

import (
	"sort"

	"github.com/tenchan000517/novel-sub005/internal/event"
	"github.com/tenchan000517/novel-sub005/internal/event/topic"
)

// catalog is the closed set of event types the application publishes,
// each with the dispatch priority its handlers are registered at. The
// payload contract for a topic is the struct documented beside its
// Topic constant; the compiler enforces it at the publish site.
var catalog = map[topic.Topic]event.Priority{
	TopicCharacterUpdated:      event.PriorityHigh,
	TopicCharacterPromoted:     event.PriorityLow,
	TopicCharacterDemoted:      event.PriorityLow,
	TopicCharacterStateChanged: event.PriorityLow,

	TopicRelationshipCreated:      event.PriorityCritical,
	TopicRelationshipUpdated:      event.PriorityCritical,
	TopicRelationshipDeleted:      event.PriorityCritical,
	TopicRelationshipStrengthened: event.PriorityLow,
	TopicRelationshipWeakened:     event.PriorityLow,

	TopicRelationshipMutualCreated: event.PriorityLow,
	TopicRelationshipMutualUpdated: event.PriorityLow,

	TopicGraphRebuilt: event.PriorityLow,

	TopicChapterWritten:   event.PriorityNormal,
	TopicChapterProcessed: event.PriorityLow,
}

// Known reports whether t names a catalogued event type.
func Known(t topic.Topic) bool {
	_, ok := catalog[t]
	return ok
}

// DeclaredPriority returns the dispatch priority declared for t.
// Handlers for uncatalogued topics run at normal priority.
func DeclaredPriority(t topic.Topic) event.Priority {
	if p, ok := catalog[t]; ok {
		return p
	}
	return event.PriorityNormal
}

// Topics returns every catalogued topic in lexical order.
func Topics() []topic.Topic {
	out := make([]topic.Topic, 0, len(catalog))
	for t := range catalog {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
