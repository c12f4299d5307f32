package memory

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/sirupsen/logrus"

	"github.com/tenchan000517/novel-sub005/internal/event"
	"github.com/tenchan000517/novel-sub005/internal/event/events"
	"github.com/tenchan000517/novel-sub005/internal/storage"
)

// DefaultPoolSize is the number of extraction tasks that may run at
// once.
const DefaultPoolSize = 8

// A Memory is one sentence of a chapter as remembered by a character.
type Memory struct {
	CharacterID string    `json:"character_id"`
	Chapter     int       `json:"chapter"`
	Text        string    `json:"text"`
	At          time.Time `json:"at"`
}

// ChapterRecord is the unit of work handed to the memory subsystem.
type ChapterRecord struct {
	Number       int
	Title        string
	Text         string
	CharacterIDs []string
}

// OperationResult reports what one ProcessChapter call recorded.
type OperationResult struct {
	CharacterIDs []string
	Memories     int
	Duration     time.Duration
}

// Option configures the service.
type Option func(*config)

type config struct {
	poolSize int
}

// WithPoolSize caps the number of concurrent extraction tasks.
func WithPoolSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.poolSize = n
		}
	}
}

// Service listens for finished chapters and extracts character
// memories from them. Recorded memories are queried through
// UnifiedSearch.
type Service struct {
	bus   event.Bus
	chars storage.CharacterStore
	pool  *ants.Pool
	log   *logrus.Entry

	mu          sync.RWMutex
	memories    map[string][]Memory
	lastChapter int
}

// NewService creates a memory service backed by a goroutine pool of
// the configured size. Call Close to release the pool.
func NewService(bus event.Bus, chars storage.CharacterStore, log *logrus.Logger, opts ...Option) (*Service, error) {
	cfg := config{poolSize: DefaultPoolSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	pool, err := ants.NewPool(cfg.poolSize)
	if err != nil {
		return nil, fmt.Errorf("create extraction pool: %w", err)
	}
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	return &Service{
		bus:      bus,
		chars:    chars,
		pool:     pool,
		log:      log.WithField("component", "memory.service"),
		memories: make(map[string][]Memory),
	}, nil
}

// Registrations lists the subscriptions the service needs on a bus.
func (s *Service) Registrations() []event.Registration {
	return []event.Registration{
		{
			Topic:    events.TopicChapterWritten,
			Handler:  event.PayloadFunc(s.onWritten),
			Priority: events.DeclaredPriority(events.TopicChapterWritten),
		},
	}
}

// onWritten runs the chapter through ProcessChapter and publishes
// chapter.processed with the outcome.
func (s *Service) onWritten(ctx context.Context, env event.Envelope, ch events.ChapterWritten) error {
	res, err := s.ProcessChapter(ctx, ChapterRecord{
		Number:       ch.Number,
		Title:        ch.Title,
		Text:         ch.Text,
		CharacterIDs: ch.CharacterIDs,
	})
	if err != nil {
		return err
	}

	done := event.NewEnvelope(events.TopicChapterProcessed, events.ChapterProcessed{
		Number:       ch.Number,
		CharacterIDs: res.CharacterIDs,
		Memories:     res.Memories,
		Duration:     res.Duration,
	}).WithSource("memory.service").WithCause(env.Meta)
	if err := s.bus.Publish(ctx, done); err != nil {
		return fmt.Errorf("publish %s: %w", events.TopicChapterProcessed, err)
	}

	s.log.WithFields(logrus.Fields{
		"chapter":    ch.Number,
		"characters": len(res.CharacterIDs),
		"memories":   res.Memories,
	}).Info("chapter processed")
	return nil
}

// ProcessChapter extracts memories for every character listed on the
// record, one pool task per character, and merges them into the index.
func (s *Service) ProcessChapter(ctx context.Context, rec ChapterRecord) (OperationResult, error) {
	start := time.Now()
	sentences := splitSentences(rec.Text)
	ids := dedup(rec.CharacterIDs)

	// Each task writes only its own slot, so the slice needs no lock.
	results := make([][]Memory, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		// Pre-go1.22 range variables are shared across iterations; the
		// submitted task must capture this iteration's values.
		i, id := i, id
		needle := s.needle(ctx, id)
		wg.Add(1)
		if err := s.pool.Submit(func() {
			defer wg.Done()
			results[i] = extract(id, rec.Number, sentences, needle, start)
		}); err != nil {
			wg.Done()
			return OperationResult{}, fmt.Errorf("submit extraction for %s: %w", id, err)
		}
	}
	wg.Wait()

	total := 0
	s.mu.Lock()
	for _, hits := range results {
		for _, m := range hits {
			s.memories[m.CharacterID] = append(s.memories[m.CharacterID], m)
		}
		total += len(hits)
	}
	if rec.Number > s.lastChapter {
		s.lastChapter = rec.Number
	}
	s.mu.Unlock()

	return OperationResult{
		CharacterIDs: ids,
		Memories:     total,
		Duration:     time.Since(start),
	}, nil
}

// needle returns the text to search for when extracting memories for
// a character. Unknown characters are matched by their raw ID.
func (s *Service) needle(ctx context.Context, id string) string {
	c, err := s.chars.Character(ctx, id)
	if err != nil || c.Name == "" {
		return id
	}
	return c.Name
}

// Memories returns the memories recorded for one character, oldest
// first.
func (s *Service) Memories(characterID string) []Memory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Memory(nil), s.memories[characterID]...)
}

// Close releases the extraction pool. Queued tasks are abandoned, so
// drain the bus first.
func (s *Service) Close() {
	s.pool.Release()
}

// dedup removes repeated IDs, keeping first-appearance order.
func dedup(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func extract(id string, chapter int, sentences []string, needle string, at time.Time) []Memory {
	needle = strings.ToLower(needle)
	var hits []Memory
	for _, sentence := range sentences {
		if !strings.Contains(strings.ToLower(sentence), needle) {
			continue
		}
		hits = append(hits, Memory{
			CharacterID: id,
			Chapter:     chapter,
			Text:        sentence,
			At:          at,
		})
	}
	return hits
}

// splitSentences cuts text at sentence-ending punctuation and
// newlines, keeping the punctuation with its sentence.
func splitSentences(text string) []string {
	var (
		out []string
		b   strings.Builder
	)
	flush := func() {
		s := strings.TrimSpace(b.String())
		if s != "" {
			out = append(out, s)
		}
		b.Reset()
	}
	for _, r := range text {
		if r == '\n' {
			flush()
			continue
		}
		b.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			flush()
		}
	}
	flush()
	return out
}
