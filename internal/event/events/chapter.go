package events

import (
	"time"

	"github.com/tenchan000517/novel-sub005/internal/event/topic"
)

// Chapter event topics.
const (
	// TopicChapterWritten is published when a chapter draft is
	// complete and ready for memory extraction.
	TopicChapterWritten topic.Topic = "chapter.written"

	// TopicChapterProcessed is published when the memory service has
	// finished extracting character memories from a chapter.
	TopicChapterProcessed topic.Topic = "chapter.processed"
)

// ChapterWritten carries a finished chapter draft. CharacterIDs lists
// the characters appearing in it, in order of first appearance.
type ChapterWritten struct {
	Number       int
	Title        string
	Text         string
	CharacterIDs []string
}

// ChapterProcessed reports the outcome of memory extraction for one
// chapter.
type ChapterProcessed struct {
	Number       int
	CharacterIDs []string
	Memories     int
	Duration     time.Duration
}
