// Package story defines the core domain model: characters, the directed
// relationships between them, and the relationship graph derived from
// the full persisted relationship set.
//
// Relationship records are directional. A connected pair of characters
// is represented by two records, one per direction, kept consistent by
// the cascade handlers in internal/cascade. The graph is a projection:
// it is rebuilt wholesale after every committed relationship mutation
// and is never edited by hand.
package story
