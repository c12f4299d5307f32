package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/tenchan000517/novel-sub005/internal/story"
)

// MemStore is an in-memory Store. It is safe for concurrent use and
// copies records on the way in and out, so callers never share history
// slices with the store.
type MemStore struct {
	mu            sync.RWMutex
	characters    map[string]story.Character
	relationships map[string]map[string]story.Relationship // source -> target -> record
	graph         story.Graph
}

var _ Store = (*MemStore)(nil)

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		characters:    make(map[string]story.Character),
		relationships: make(map[string]map[string]story.Relationship),
	}
}

// SaveCharacter writes c, replacing any record with the same ID.
func (s *MemStore) SaveCharacter(_ context.Context, c story.Character) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.characters[c.ID] = c.Clone()
	return nil
}

// Character returns the record for id, or a *NotFoundError.
func (s *MemStore) Character(_ context.Context, id string) (story.Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.characters[id]
	if !ok {
		return story.Character{}, &NotFoundError{Kind: "character", Key: id}
	}
	return c.Clone(), nil
}

// AllCharacters returns every character record, ordered by ID.
func (s *MemStore) AllCharacters(_ context.Context) ([]story.Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]story.Character, 0, len(s.characters))
	for _, c := range s.characters {
		out = append(out, c.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SaveRelationship writes the record for the (sourceID, targetID) pair.
func (s *MemStore) SaveRelationship(_ context.Context, sourceID, targetID string, rel story.Relationship) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rel = rel.Clone()
	rel.TargetID = targetID
	bucket, ok := s.relationships[sourceID]
	if !ok {
		bucket = make(map[string]story.Relationship)
		s.relationships[sourceID] = bucket
	}
	bucket[targetID] = rel
	return nil
}

// Relationship returns the record for the pair, or a *NotFoundError.
func (s *MemStore) Relationship(_ context.Context, sourceID, targetID string) (story.Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rel, ok := s.relationships[sourceID][targetID]
	if !ok {
		return story.Relationship{}, &NotFoundError{
			Kind: "relationship",
			Key:  RelationshipKey(sourceID, targetID),
		}
	}
	return rel.Clone(), nil
}

// AllRelationships returns every stored record bound to its holder.
func (s *MemStore) AllRelationships(_ context.Context) ([]story.Pair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []story.Pair
	for src, bucket := range s.relationships {
		for _, rel := range bucket {
			out = append(out, story.Pair{SourceID: src, Relationship: rel.Clone()})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SourceID != out[j].SourceID {
			return out[i].SourceID < out[j].SourceID
		}
		return out[i].TargetID < out[j].TargetID
	})
	return out, nil
}

// SaveGraph replaces the stored graph projection.
func (s *MemStore) SaveGraph(_ context.Context, g story.Graph) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.graph = g.Clone()
	return nil
}

// Graph returns the stored projection, or the zero graph if none has
// been saved.
func (s *MemStore) Graph(_ context.Context) (story.Graph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph.Clone(), nil
}
