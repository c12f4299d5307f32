// Package events defines the typed event taxonomy for the story bus.
//
// Each event type has a topic constant and a payload struct. The
// catalog is closed: producers publish only catalogued topics, and the
// payload contract for a topic is the struct documented beside it.
// Payloads never cross a process boundary, so adding optional fields
// is safe; renaming a topic or removing a field is a breaking change
// for every subscriber.
//
// Events are grouped by the entity they describe:
//
//   - Character events: record revisions, promotions, state changes
//   - Relationship events: creation, updates, soft deletion, strength
//     shifts, mutual-sync corrections
//   - Graph events: projection rebuilds
//   - Chapter events: draft completion, memory extraction
//
// # Usage
//
//	env := event.NewEnvelope(events.TopicCharacterUpdated,
//	    events.CharacterUpdated{Previous: prev, Current: curr},
//	).WithSource("story.service")
//	if err := bus.Publish(ctx, env); err != nil {
//	    return err
//	}
//
// # Topic Naming Convention
//
// Topics follow a hierarchical dot-notation, <entity>.<action> or
// <entity>.<aspect>.<action>:
//
//   - character.updated
//   - character.state.changed
//   - relationship.mutual.created
//   - graph.rebuilt
//
// Subscribers can use wildcards to match groups of topics:
// "relationship.*" matches "relationship.created" but not
// "relationship.mutual.created"; "relationship.**" matches both.
package events
