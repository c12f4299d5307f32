package events

import (
	"github.com/tenchan000517/novel-sub005/internal/event/topic"
	"github.com/tenchan000517/novel-sub005/internal/story"
)

// Character event topics.
const (
	// TopicCharacterUpdated is published when a character record is
	// replaced with a new revision.
	TopicCharacterUpdated topic.Topic = "character.updated"

	// TopicCharacterPromoted is published when a character's type moves
	// up in narrative importance.
	TopicCharacterPromoted topic.Topic = "character.promoted"

	// TopicCharacterDemoted is published when a character's type moves
	// down in narrative importance.
	TopicCharacterDemoted topic.Topic = "character.demoted"

	// TopicCharacterStateChanged is published when a character's state
	// sub-object changes.
	TopicCharacterStateChanged topic.Topic = "character.state.changed"
)

// CharacterUpdated is published when a character record is replaced.
// Previous carries the snapshot the change cascade diffs against; the
// publisher must not mutate either copy after publishing.
type CharacterUpdated struct {
	Previous story.Character
	Current  story.Character
}

// CharacterPromoted is published when a type change raises a
// character's narrative importance.
type CharacterPromoted struct {
	CharacterID string
	Name        string
	FromType    story.CharacterType
	ToType      story.CharacterType
}

// CharacterDemoted is published when a type change lowers a
// character's narrative importance.
type CharacterDemoted struct {
	CharacterID string
	Name        string
	FromType    story.CharacterType
	ToType      story.CharacterType
}

// CharacterStateChanged is published when a character's state changes.
type CharacterStateChanged struct {
	CharacterID string
	Previous    story.CharacterState
	Current     story.CharacterState
}
