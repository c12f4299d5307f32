package storage

import (
	"context"

	"github.com/tenchan000517/novel-sub005/internal/story"
)

// CharacterStore persists character records.
type CharacterStore interface {
	// SaveCharacter writes c, replacing any record with the same ID.
	SaveCharacter(ctx context.Context, c story.Character) error

	// Character returns the record for id, or a *NotFoundError.
	Character(ctx context.Context, id string) (story.Character, error)

	// AllCharacters returns every character record.
	AllCharacters(ctx context.Context) ([]story.Character, error)
}

// RelationshipStore persists directional relationship records and the
// graph projection derived from them. Records are keyed by the
// (source, target) character pair; deletion is modelled as a save of
// the soft-reset record, so the contract has no delete operation.
type RelationshipStore interface {
	// SaveRelationship writes the record held by sourceID toward
	// targetID, replacing any previous record for the pair.
	SaveRelationship(ctx context.Context, sourceID, targetID string, rel story.Relationship) error

	// Relationship returns the record for the pair, or a
	// *NotFoundError.
	Relationship(ctx context.Context, sourceID, targetID string) (story.Relationship, error)

	// AllRelationships returns every stored record bound to its
	// holder, in no particular order.
	AllRelationships(ctx context.Context) ([]story.Pair, error)

	// SaveGraph replaces the stored graph projection.
	SaveGraph(ctx context.Context, g story.Graph) error

	// Graph returns the stored projection, or the zero graph if none
	// has been saved.
	Graph(ctx context.Context) (story.Graph, error)
}

// Store combines the two persistence surfaces.
type Store interface {
	CharacterStore
	RelationshipStore
}

// RelationshipKey names a (source, target) pair in errors and logs.
func RelationshipKey(sourceID, targetID string) string {
	return sourceID + "->" + targetID
}
