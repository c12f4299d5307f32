package memory

import (
	"context"
	"sort"
	"strings"
)

// midWindow is how many trailing chapters the mid tier covers.
const midWindow = 3

// Level selects which recency tier a search covers. Tiers widen from
// the latest processed chapter outward.
type Level string

const (
	// LevelShort covers only the latest processed chapter.
	LevelShort Level = "short"

	// LevelMid covers the last few processed chapters.
	LevelMid Level = "mid"

	// LevelLong covers every recorded memory.
	LevelLong Level = "long"
)

// SearchResult is one memory matched by a search, with a relevance
// score derived from how often the query appears in it.
type SearchResult struct {
	CharacterID string
	Chapter     int
	Text        string
	Score       float64
}

// UnifiedSearch scans recorded memories for the query across the given
// tiers. No tiers means everything. Results come back best score
// first, newest chapter breaking ties. Search reflects only chapters
// whose processing has finished.
func (s *Service) UnifiedSearch(ctx context.Context, query string, levels ...Level) ([]SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	floor := s.floor(levels)
	var out []SearchResult
	for _, mems := range s.memories {
		for _, m := range mems {
			if m.Chapter < floor {
				continue
			}
			n := strings.Count(strings.ToLower(m.Text), needle)
			if n == 0 {
				continue
			}
			out = append(out, SearchResult{
				CharacterID: m.CharacterID,
				Chapter:     m.Chapter,
				Text:        m.Text,
				Score:       float64(n),
			})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].Chapter != out[j].Chapter {
			return out[i].Chapter > out[j].Chapter
		}
		if out[i].CharacterID != out[j].CharacterID {
			return out[i].CharacterID < out[j].CharacterID
		}
		return out[i].Text < out[j].Text
	})
	return out, nil
}

// floor returns the lowest chapter number the level set covers. The
// union of the given tiers applies, and unrecognized values are
// ignored. Callers must hold s.mu.
func (s *Service) floor(levels []Level) int {
	if len(levels) == 0 {
		return 0
	}
	floor := s.lastChapter + 1
	for _, l := range levels {
		switch l {
		case LevelShort:
			floor = min(floor, s.lastChapter)
		case LevelMid:
			floor = min(floor, s.lastChapter-midWindow+1)
		case LevelLong:
			floor = 0
		}
	}
	if floor > s.lastChapter {
		// Only unrecognized tiers were given; search everything.
		return 0
	}
	return max(floor, 0)
}
