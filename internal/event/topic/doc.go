// Package topic defines the hierarchical topic type used to route events.
//
// # Topic Format
//
// Topics use dot-notation namespaces grouped by entity:
//
//	character.updated
//	character.state.changed
//	relationship.mutual.created
//	chapter.written
//
// # Wildcards
//
// Two wildcard patterns are supported in subscription patterns:
//
//   - "*" matches exactly one segment
//   - "**" matches zero or more segments
//
// Examples:
//
//	relationship.*         matches relationship.created, relationship.deleted
//	relationship.**        also matches relationship.mutual.created
//	*.updated              matches character.updated, relationship.updated
//	**                     matches everything
//
// Published topics must be concrete; wildcards are only meaningful in
// subscription patterns.
package topic
