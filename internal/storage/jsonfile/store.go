// Package jsonfile persists the story state as one pretty-printed JSON
// document. Lookups read straight from the raw document with gjson;
// saves splice the affected record in with sjson and rewrite the file
// through a temp-and-rename, so the document on disk is never torn.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/tenchan000517/novel-sub005/internal/storage"
	"github.com/tenchan000517/novel-sub005/internal/story"
)

// Store is a file-backed storage.Store. All operations work on an
// in-memory copy of the document and rewrite the file on every save.
type Store struct {
	mu   sync.Mutex
	path string
	data []byte
}

var _ storage.Store = (*Store)(nil)

// Open loads the document at path, creating an empty one if the file
// does not exist yet.
func Open(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		data = []byte("{}")
	case err != nil:
		return nil, fmt.Errorf("jsonfile: open %s: %w", path, err)
	case !gjson.ValidBytes(data):
		return nil, fmt.Errorf("jsonfile: open %s: not a valid JSON document", path)
	}
	return &Store{path: path, data: data}, nil
}

// Path returns the location of the backing file.
func (s *Store) Path() string { return s.path }

// SaveCharacter writes c, replacing any record with the same ID.
func (s *Store) SaveCharacter(_ context.Context, c story.Character) error {
	return s.setRecord("characters."+pathKey(c.ID), c)
}

// Character returns the record for id, or a *storage.NotFoundError.
func (s *Store) Character(_ context.Context, id string) (story.Character, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var c story.Character
	r := gjson.GetBytes(s.data, "characters."+pathKey(id))
	if !r.Exists() {
		return c, &storage.NotFoundError{Kind: "character", Key: id}
	}
	if err := json.Unmarshal([]byte(r.Raw), &c); err != nil {
		return c, fmt.Errorf("jsonfile: decode character %s: %w", id, err)
	}
	return c, nil
}

// AllCharacters returns every character record, ordered by ID.
func (s *Store) AllCharacters(_ context.Context) ([]story.Character, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []story.Character
	var decodeErr error
	gjson.GetBytes(s.data, "characters").ForEach(func(_, value gjson.Result) bool {
		var c story.Character
		if err := json.Unmarshal([]byte(value.Raw), &c); err != nil {
			decodeErr = fmt.Errorf("jsonfile: decode character: %w", err)
			return false
		}
		out = append(out, c)
		return true
	})
	if decodeErr != nil {
		return nil, decodeErr
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SaveRelationship writes the record for the (sourceID, targetID) pair.
func (s *Store) SaveRelationship(_ context.Context, sourceID, targetID string, rel story.Relationship) error {
	rel.TargetID = targetID
	return s.setRecord("relationships."+pathKey(sourceID)+"."+pathKey(targetID), rel)
}

// Relationship returns the record for the pair, or a
// *storage.NotFoundError.
func (s *Store) Relationship(_ context.Context, sourceID, targetID string) (story.Relationship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rel story.Relationship
	r := gjson.GetBytes(s.data, "relationships."+pathKey(sourceID)+"."+pathKey(targetID))
	if !r.Exists() {
		return rel, &storage.NotFoundError{
			Kind: "relationship",
			Key:  storage.RelationshipKey(sourceID, targetID),
		}
	}
	if err := json.Unmarshal([]byte(r.Raw), &rel); err != nil {
		return rel, fmt.Errorf("jsonfile: decode relationship %s: %w",
			storage.RelationshipKey(sourceID, targetID), err)
	}
	return rel, nil
}

// AllRelationships returns every stored record bound to its holder.
func (s *Store) AllRelationships(_ context.Context) ([]story.Pair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []story.Pair
	var decodeErr error
	gjson.GetBytes(s.data, "relationships").ForEach(func(source, bucket gjson.Result) bool {
		bucket.ForEach(func(_, value gjson.Result) bool {
			var rel story.Relationship
			if err := json.Unmarshal([]byte(value.Raw), &rel); err != nil {
				decodeErr = fmt.Errorf("jsonfile: decode relationship under %s: %w", source.String(), err)
				return false
			}
			out = append(out, story.Pair{SourceID: source.String(), Relationship: rel})
			return true
		})
		return decodeErr == nil
	})
	if decodeErr != nil {
		return nil, decodeErr
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
func (s *Store) SaveGraph(_ context.Context, g story.Graph) error {
	return s.setRecord("graph", g)
}

// Graph returns the stored projection, or the zero graph if none has
// been saved.
func (s *Store) Graph(_ context.Context) (story.Graph, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var g story.Graph
	r := gjson.GetBytes(s.data, "graph")
	if !r.Exists() {
		return g, nil
	}
	if err := json.Unmarshal([]byte(r.Raw), &g); err != nil {
		return g, fmt.Errorf("jsonfile: decode graph: %w", err)
	}
	return g, nil
}

// setRecord splices v into the document at path and rewrites the file.
func (s *Store) setRecord(path string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("jsonfile: encode %s: %w", path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := sjson.SetRawBytes(s.data, path, raw)
	if err != nil {
		return fmt.Errorf("jsonfile: set %s: %w", path, err)
	}
	data = pretty.Pretty(data)

	if err := s.writeLocked(data); err != nil {
		return err
	}
	s.data = data
	return nil
}

// writeLocked persists data via a sibling temp file and rename.
func (s *Store) writeLocked(data []byte) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("jsonfile: write %s: %w", s.path, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("jsonfile: write %s: %w", s.path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("jsonfile: write %s: %w", s.path, err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("jsonfile: write %s: %w", s.path, err)
	}
	return nil
}

// pathKey escapes a record key for use as a single gjson path segment.
var pathEscaper = strings.NewReplacer(
	`\`, `\\`,
	`.`, `\.`,
	`*`, `\*`,
	`?`, `\?`,
	`|`, `\|`,
	`#`, `\#`,
	`@`, `\@`,
)

func pathKey(key string) string {
	return pathEscaper.Replace(key)
}
