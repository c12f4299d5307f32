package generate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenchan000517/novel-sub005/internal/event"
	"github.com/tenchan000517/novel-sub005/internal/event/events"
	"github.com/tenchan000517/novel-sub005/internal/storage"
	"github.com/tenchan000517/novel-sub005/internal/story"
)

func TestNew_SelectsProvider(t *testing.T) {
	c, err := New("anthropic", "key")
	require.NoError(t, err)
	assert.IsType(t, &Anthropic{}, c)

	c, err = New("OpenAI", "key")
	require.NoError(t, err)
	assert.IsType(t, &OpenAI{}, c)

	_, err = New("gemini", "key")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func newDraftStore(t *testing.T) *storage.MemStore {
	t.Helper()
	ctx := context.Background()
	store := storage.NewMemStore()

	chars := []story.Character{
		{ID: "char-1", Name: "Aria", Type: story.TypeMain, State: story.CharacterState{Status: "wounded", Location: "the bridge"}},
		{ID: "char-2", Name: "Brim", Type: story.TypeSub},
		{ID: "char-3", Name: "Kest", Type: story.TypeMob},
	}
	for _, c := range chars {
		require.NoError(t, store.SaveCharacter(ctx, c))
	}

	require.NoError(t, store.SaveRelationship(ctx, "char-1", "char-2", story.Relationship{
		TargetID: "char-2", Type: story.RelationMentor, Strength: 0.6,
	}))
	// Soft-deleted pair, must not reach the prompt.
	require.NoError(t, store.SaveRelationship(ctx, "char-2", "char-1", story.Relationship{
		TargetID: "char-1", Type: story.RelationNeutral, Strength: 0,
	}))
	// Involves a character outside the chapter.
	require.NoError(t, store.SaveRelationship(ctx, "char-1", "char-3", story.Relationship{
		TargetID: "char-3", Type: story.RelationRival, Strength: 0.3,
	}))
	return store
}

func TestDrafter_Draft(t *testing.T) {
	ctx := context.Background()
	store := newDraftStore(t)

	bus := event.NewBus()
	t.Cleanup(func() {
		c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = bus.Close(c)
	})

	var (
		mu      sync.Mutex
		written []event.Envelope
	)
	_, err := bus.SubscribeFunc(events.TopicChapterWritten, func(_ context.Context, env event.Envelope) error {
		mu.Lock()
		defer mu.Unlock()
		written = append(written, env)
		return nil
	})
	require.NoError(t, err)

	var got Request
	fake := ClientFunc(func(_ context.Context, req Request) (string, error) {
		got = req
		return "The bridge held. Aria crossed first.", nil
	})

	d := NewDrafter(fake, bus, store, nil, WithMaxTokens(512))
	ch, err := d.Draft(ctx, 3, "The Flooded Bridge", []string{"char-1", "char-2"})
	require.NoError(t, err)
	require.NoError(t, bus.Drain(ctx))

	assert.Equal(t, systemPrompt, got.System)
	assert.Equal(t, int64(512), got.MaxTokens)
	assert.Contains(t, got.Prompt, `Write chapter 3, "The Flooded Bridge".`)
	assert.Contains(t, got.Prompt, "- Aria (MAIN), status: wounded, at: the bridge")
	assert.Contains(t, got.Prompt, "- Brim (SUB)")
	assert.Contains(t, got.Prompt, "- Aria -> Brim: MENTOR (0.60)")
	assert.NotContains(t, got.Prompt, "Kest", "characters outside the chapter stay out")
	assert.NotContains(t, got.Prompt, "NEUTRAL", "soft-deleted pairs stay out")

	assert.Equal(t, 3, ch.Number)
	assert.Equal(t, "The bridge held. Aria crossed first.", ch.Text)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, written, 1)
	assert.Equal(t, ch, written[0].Payload)
	assert.Equal(t, "generate.drafter", written[0].Meta.Source)
}

func TestDrafter_UnknownCharacter(t *testing.T) {
	ctx := context.Background()
	bus := event.NewBus()
	t.Cleanup(func() {
		c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = bus.Close(c)
	})

	d := NewDrafter(ClientFunc(func(context.Context, Request) (string, error) {
		return "", nil
	}), bus, storage.NewMemStore(), nil)

	_, err := d.Draft(ctx, 1, "Opening", []string{"ghost"})
	assert.True(t, storage.IsNotFound(err))
}

func TestDrafter_ClientError(t *testing.T) {
	ctx := context.Background()
	store := newDraftStore(t)
	bus := event.NewBus()
	t.Cleanup(func() {
		c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = bus.Close(c)
	})

	boom := errors.New("rate limited")
	d := NewDrafter(ClientFunc(func(context.Context, Request) (string, error) {
		return "", boom
	}), bus, store, nil)

	_, err := d.Draft(ctx, 1, "Opening", []string{"char-1"})
	assert.ErrorIs(t, err, boom)

	require.NoError(t, bus.Drain(ctx))
	stats := bus.Stats()
	assert.Zero(t, stats.Published, "failed drafts publish nothing")
}
