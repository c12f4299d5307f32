package events

import (
	"github.com/tenchan000517/novel-sub005/internal/event/topic"
	"github.com/tenchan000517/novel-sub005/internal/story"
)

// Graph event topics.
const (
	// TopicGraphRebuilt is published after the relationship graph
	// projection has been rebuilt and persisted.
	TopicGraphRebuilt topic.Topic = "graph.rebuilt"
)

// GraphRebuilt carries the freshly built projection. Trigger names
// the relationship event that caused the rebuild.
type GraphRebuilt struct {
	Graph   story.Graph
	Trigger topic.Topic
}
