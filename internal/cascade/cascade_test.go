package cascade

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tenchan000517/novel-sub005/internal/event"
	"github.com/tenchan000517/novel-sub005/internal/event/topic"
	"github.com/tenchan000517/novel-sub005/internal/storage"
	"github.com/tenchan000517/novel-sub005/internal/story"
)

// newTestBus returns a bus that is closed when the test ends.
func newTestBus(t *testing.T) event.Bus {
	t.Helper()
	bus := event.NewBus()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = bus.Close(ctx)
	})
	return bus
}

// startCharacterCascade wires only the character cascade onto a fresh
// bus, for tests that watch its fan-out without persistence behind it.
func startCharacterCascade(t *testing.T) event.Bus {
	t.Helper()
	bus := newTestBus(t)
	dispose, err := event.RegisterAll(bus, NewCharacterCascade(bus, nil).Registrations())
	if err != nil {
		t.Fatalf("register character cascade: %v", err)
	}
	t.Cleanup(dispose)
	return bus
}

// startCascades wires both cascades and the projector onto a fresh bus.
func startCascades(t *testing.T, store storage.RelationshipStore, opts ...Option) event.Bus {
	t.Helper()
	bus := newTestBus(t)

	projector := NewProjector(bus, store, nil)
	relationship := NewRelationshipCascade(bus, store, projector, nil, opts...)
	character := NewCharacterCascade(bus, nil)

	regs := append(character.Registrations(), relationship.Registrations()...)
	dispose, err := event.RegisterAll(bus, regs)
	if err != nil {
		t.Fatalf("register cascades: %v", err)
	}
	t.Cleanup(dispose)
	return bus
}

// settle publishes env and blocks until the queue has fully drained,
// cascaded events included.
func settle(t *testing.T, bus event.Bus, env event.Envelope) {
	t.Helper()
	done, err := bus.PublishWait(context.Background(), env)
	if err != nil {
		t.Fatalf("publish %s: %v", env.Topic, err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("cascade for %s did not settle", env.Topic)
	}
}

// captor records every envelope delivered for a pattern.
type captor struct {
	mu   sync.Mutex
	envs []event.Envelope
}

func capture(t *testing.T, bus event.Bus, pattern topic.Topic) *captor {
	t.Helper()
	c := &captor{}
	if _, err := bus.Subscribe(pattern, c); err != nil {
		t.Fatalf("subscribe %s: %v", pattern, err)
	}
	return c
}

func (c *captor) Handle(_ context.Context, env event.Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.envs = append(c.envs, env)
	return nil
}

func (c *captor) all() []event.Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]event.Envelope(nil), c.envs...)
}

func (c *captor) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.envs)
}

// flakyStore fails SaveRelationship a set number of times before
// delegating to the wrapped store.
type flakyStore struct {
	*storage.MemStore
	mu        sync.Mutex
	failures  int
	saveCalls int
}

func newFlakyStore(failures int) *flakyStore {
	return &flakyStore{MemStore: storage.NewMemStore(), failures: failures}
}

func (s *flakyStore) SaveRelationship(ctx context.Context, sourceID, targetID string, rel story.Relationship) error {
	s.mu.Lock()
	s.saveCalls++
	fail := s.failures > 0
	if fail {
		s.failures--
	}
	s.mu.Unlock()
	if fail {
		return errors.New("disk full")
	}
	return s.MemStore.SaveRelationship(ctx, sourceID, targetID, rel)
}

func (s *flakyStore) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveCalls
}
