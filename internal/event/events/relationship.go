package events

import (
	"github.com/tenchan000517/novel-sub005/internal/event/topic"
	"github.com/tenchan000517/novel-sub005/internal/story"
)

// Relationship event topics.
const (
	// TopicRelationshipCreated is published when a character gains a
	// relationship toward a target it had none with.
	TopicRelationshipCreated topic.Topic = "relationship.created"

	// TopicRelationshipUpdated is published when an existing
	// relationship's type or strength changes.
	TopicRelationshipUpdated topic.Topic = "relationship.updated"

	// TopicRelationshipDeleted is published when a relationship is
	// removed. Deletion is a soft reset: the stored record becomes
	// NEUTRAL at strength 0, history intact.
	TopicRelationshipDeleted topic.Topic = "relationship.deleted"

	// TopicRelationshipStrengthened is published by the relationship
	// cascade when an update raised the strength.
	TopicRelationshipStrengthened topic.Topic = "relationship.strengthened"

	// TopicRelationshipWeakened is published by the relationship
	// cascade when an update lowered the strength.
	TopicRelationshipWeakened topic.Topic = "relationship.weakened"

	// TopicRelationshipMutualCreated is published when mutual sync
	// auto-creates the reverse direction of a new relationship.
	TopicRelationshipMutualCreated topic.Topic = "relationship.mutual.created"

	// TopicRelationshipMutualUpdated is published when mutual sync
	// corrects the reverse direction's type.
	TopicRelationshipMutualUpdated topic.Topic = "relationship.mutual.updated"
)

// RelationshipCreated is published when a relationship comes into
// being, either through the story service or by the character cascade
// diffing a character update.
type RelationshipCreated struct {
	SourceID     string
	Relationship story.Relationship
}

// RelationshipUpdated is published when a relationship's type or
// strength changes. Previous is the record before the change; the
// cascade compares the two strengths to decide whether to republish
// strengthened or weakened.
type RelationshipUpdated struct {
	SourceID string
	Previous story.Relationship
	Current  story.Relationship
}

// RelationshipDeleted is published when a relationship is removed.
// Previous is the record as it stood before the soft reset.
type RelationshipDeleted struct {
	SourceID string
	TargetID string
	Previous story.Relationship
	Reason   string
}

// RelationshipStrengthened is published when an update raised a
// relationship's strength.
type RelationshipStrengthened struct {
	SourceID         string
	TargetID         string
	Type             story.RelationType
	PreviousStrength float64
	NewStrength      float64
}

// RelationshipWeakened is published when an update lowered a
// relationship's strength.
type RelationshipWeakened struct {
	SourceID         string
	TargetID         string
	Type             story.RelationType
	PreviousStrength float64
	NewStrength      float64
}

// RelationshipMutualCreated is published when mutual sync creates the
// reverse record. SourceID is the holder of the new reverse record,
// so it names the forward relationship's target.
type RelationshipMutualCreated struct {
	SourceID     string
	Relationship story.Relationship
}

// RelationshipMutualUpdated is published when mutual sync corrects a
// reverse record whose type did not mirror the forward type.
type RelationshipMutualUpdated struct {
	SourceID string
	Previous story.Relationship
	Current  story.Relationship
}
