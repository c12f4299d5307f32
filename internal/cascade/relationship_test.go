package cascade

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenchan000517/novel-sub005/internal/event"
	"github.com/tenchan000517/novel-sub005/internal/event/events"
	"github.com/tenchan000517/novel-sub005/internal/storage"
	"github.com/tenchan000517/novel-sub005/internal/story"
)

func createdEnvelope(sourceID string, rel story.Relationship) event.Envelope {
	return event.NewEnvelope(events.TopicRelationshipCreated, events.RelationshipCreated{
		SourceID:     sourceID,
		Relationship: rel,
	}).WithSource("test")
}

func updatedRelEnvelope(sourceID string, prev, curr story.Relationship) event.Envelope {
	return event.NewEnvelope(events.TopicRelationshipUpdated, events.RelationshipUpdated{
		SourceID: sourceID,
		Previous: prev,
		Current:  curr,
	}).WithSource("test")
}

func TestRelationshipCascade_CreatePersistsAndMirrors(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemStore()
	bus := startCascades(t, store)
	mutualCreated := capture(t, bus, events.TopicRelationshipMutualCreated)

	settle(t, bus, createdEnvelope("a", story.Relationship{
		TargetID: "b",
		Type:     story.RelationFriend,
		Strength: 0.6,
	}))

	forward, err := store.Relationship(ctx, "a", "b")
	require.NoError(t, err)
	assert.Equal(t, story.RelationFriend, forward.Type)
	assert.Equal(t, 0.6, forward.Strength)
	require.Len(t, forward.History, 1)
	assert.Equal(t, story.ChangeCreated, forward.History[0].Change)

	reverse, err := store.Relationship(ctx, "b", "a")
	require.NoError(t, err)
	assert.Equal(t, story.RelationFriend, reverse.Type)
	assert.InDelta(t, 0.48, reverse.Strength, 1e-9)
	require.Len(t, reverse.History, 1)
	assert.Equal(t, story.ChangeMutualSync, reverse.History[0].Change)

	require.Equal(t, 1, mutualCreated.count())
	mp, ok := mutualCreated.all()[0].Payload.(events.RelationshipMutualCreated)
	require.True(t, ok)
	assert.Equal(t, "b", mp.SourceID)
	assert.Equal(t, "a", mp.Relationship.TargetID)
}

func TestRelationshipCascade_MutualUsesTypeTable(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemStore()
	bus := startCascades(t, store)

	settle(t, bus, createdEnvelope("parent-1", story.Relationship{
		TargetID: "child-1",
		Type:     story.RelationParent,
		Strength: 0.5,
	}))

	reverse, err := store.Relationship(ctx, "child-1", "parent-1")
	require.NoError(t, err)
	assert.Equal(t, story.RelationChild, reverse.Type)
	assert.InDelta(t, 0.4, reverse.Strength, 1e-9)
}

func TestRelationshipCascade_UpdateStrengthened(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemStore()
	bus := startCascades(t, store)

	// Seed an existing pair with the correct mirror type.
	require.NoError(t, store.SaveRelationship(ctx, "a", "b",
		story.Relationship{Type: story.RelationMentor, Strength: 0.5}))
	require.NoError(t, store.SaveRelationship(ctx, "b", "a",
		story.Relationship{Type: story.RelationStudent, Strength: 0.4}))

	strengthened := capture(t, bus, events.TopicRelationshipStrengthened)
	weakened := capture(t, bus, events.TopicRelationshipWeakened)
	mutualUpdated := capture(t, bus, events.TopicRelationshipMutualUpdated)

	settle(t, bus, updatedRelEnvelope("a",
		story.Relationship{TargetID: "b", Type: story.RelationMentor, Strength: 0.5},
		story.Relationship{TargetID: "b", Type: story.RelationMentor, Strength: 0.8},
	))

	require.Equal(t, 1, strengthened.count())
	sp, ok := strengthened.all()[0].Payload.(events.RelationshipStrengthened)
	require.True(t, ok)
	assert.Equal(t, 0.5, sp.PreviousStrength)
	assert.Equal(t, 0.8, sp.NewStrength)
	assert.Equal(t, story.RelationMentor, sp.Type)
	assert.Zero(t, weakened.count())

	forward, err := store.Relationship(ctx, "a", "b")
	require.NoError(t, err)
	assert.Equal(t, 0.8, forward.Strength)
	require.NotEmpty(t, forward.History)
	assert.Equal(t, story.ChangeStrengthened, forward.History[len(forward.History)-1].Change)

	// The reverse record already mirrored correctly, so it stays put.
	reverse, err := store.Relationship(ctx, "b", "a")
	require.NoError(t, err)
	assert.Equal(t, story.RelationStudent, reverse.Type)
	assert.Equal(t, 0.4, reverse.Strength)
	assert.Zero(t, mutualUpdated.count())
}

func TestRelationshipCascade_UpdateWeakened(t *testing.T) {
	store := storage.NewMemStore()
	bus := startCascades(t, store)
	weakened := capture(t, bus, events.TopicRelationshipWeakened)

	settle(t, bus, updatedRelEnvelope("a",
		story.Relationship{TargetID: "b", Type: story.RelationFriend, Strength: 0.7},
		story.Relationship{TargetID: "b", Type: story.RelationFriend, Strength: 0.2},
	))

	require.Equal(t, 1, weakened.count())
	wp, ok := weakened.all()[0].Payload.(events.RelationshipWeakened)
	require.True(t, ok)
	assert.Equal(t, 0.7, wp.PreviousStrength)
	assert.Equal(t, 0.2, wp.NewStrength)
}

func TestRelationshipCascade_UpdateCorrectsMutualType(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemStore()
	bus := startCascades(t, store)

	require.NoError(t, store.SaveRelationship(ctx, "a", "b",
		story.Relationship{Type: story.RelationMentor, Strength: 0.5}))
	require.NoError(t, store.SaveRelationship(ctx, "b", "a",
		story.Relationship{Type: story.RelationFriend, Strength: 0.4}))

	mutualUpdated := capture(t, bus, events.TopicRelationshipMutualUpdated)

	settle(t, bus, updatedRelEnvelope("a",
		story.Relationship{TargetID: "b", Type: story.RelationMentor, Strength: 0.5},
		story.Relationship{TargetID: "b", Type: story.RelationMentor, Strength: 0.6},
	))

	reverse, err := store.Relationship(ctx, "b", "a")
	require.NoError(t, err)
	assert.Equal(t, story.RelationStudent, reverse.Type, "reverse type corrected to mirror MENTOR")
	assert.Equal(t, 0.4, reverse.Strength, "correction does not touch strength")
	require.NotEmpty(t, reverse.History)
	assert.Equal(t, story.ChangeMutualSync, reverse.History[len(reverse.History)-1].Change)

	require.Equal(t, 1, mutualUpdated.count())
	mp := mutualUpdated.all()[0].Payload.(events.RelationshipMutualUpdated)
	assert.Equal(t, story.RelationFriend, mp.Previous.Type)
	assert.Equal(t, story.RelationStudent, mp.Current.Type)
}

func TestRelationshipCascade_DeleteSoftResets(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemStore()
	bus := startCascades(t, store)

	settle(t, bus, createdEnvelope("a", story.Relationship{
		TargetID: "b",
		Type:     story.RelationFriend,
		Strength: 0.6,
	}))

	settle(t, bus, event.NewEnvelope(events.TopicRelationshipDeleted, events.RelationshipDeleted{
		SourceID: "a",
		TargetID: "b",
		Reason:   "betrayal revealed",
	}).WithSource("test"))

	forward, err := store.Relationship(ctx, "a", "b")
	require.NoError(t, err, "soft delete keeps the record")
	assert.Equal(t, story.RelationNeutral, forward.Type)
	assert.Zero(t, forward.Strength)
	require.NotEmpty(t, forward.History)
	last := forward.History[len(forward.History)-1]
	assert.Equal(t, story.ChangeDeleted, last.Change)
	assert.Equal(t, "betrayal revealed", last.Reason)

	reverse, err := store.Relationship(ctx, "b", "a")
	require.NoError(t, err)
	assert.Equal(t, story.RelationNeutral, reverse.Type)
	assert.Zero(t, reverse.Strength)

	// The graph keeps the neutralized edges.
	g, err := store.Graph(ctx)
	require.NoError(t, err)
	e, ok := g.EdgeBetween("a", "b")
	require.True(t, ok)
	assert.Equal(t, story.RelationNeutral, e.Type)
}

func TestRelationshipCascade_RepeatedDeleteAddsNoHistory(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemStore()
	bus := startCascades(t, store)

	settle(t, bus, createdEnvelope("a", story.Relationship{
		TargetID: "b", Type: story.RelationFriend, Strength: 0.6,
	}))

	deleteEnv := func() event.Envelope {
		return event.NewEnvelope(events.TopicRelationshipDeleted, events.RelationshipDeleted{
			SourceID: "a", TargetID: "b", Reason: "gone",
		}).WithSource("test")
	}
	settle(t, bus, deleteEnv())

	first, err := store.Relationship(ctx, "a", "b")
	require.NoError(t, err)

	settle(t, bus, deleteEnv())

	second, err := store.Relationship(ctx, "a", "b")
	require.NoError(t, err)
	assert.Equal(t, len(first.History), len(second.History))
}

func TestRelationshipCascade_IdempotentUpdate(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemStore()
	bus := startCascades(t, store)

	seeded := story.Relationship{Type: story.RelationMentor, Strength: 0.5}
	require.NoError(t, store.SaveRelationship(ctx, "a", "b", seeded))
	require.NoError(t, store.SaveRelationship(ctx, "b", "a",
		story.Relationship{Type: story.RelationStudent, Strength: 0.4}))

	strengthened := capture(t, bus, events.TopicRelationshipStrengthened)
	weakened := capture(t, bus, events.TopicRelationshipWeakened)
	rebuilt := capture(t, bus, events.TopicGraphRebuilt)

	same := story.Relationship{TargetID: "b", Type: story.RelationMentor, Strength: 0.5}
	settle(t, bus, updatedRelEnvelope("a", same, same))

	assert.Zero(t, strengthened.count())
	assert.Zero(t, weakened.count())
	assert.Zero(t, rebuilt.count(), "a no-op update commits nothing, so no rebuild")

	stored, err := store.Relationship(ctx, "a", "b")
	require.NoError(t, err)
	assert.Empty(t, stored.History, "no history entry for a no-op update")
}

func TestRelationshipCascade_ClampsStrength(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemStore()
	bus := startCascades(t, store)

	settle(t, bus, createdEnvelope("a", story.Relationship{
		TargetID: "b",
		Type:     story.RelationLover,
		Strength: 1.7,
	}))

	forward, err := store.Relationship(ctx, "a", "b")
	require.NoError(t, err)
	assert.Equal(t, 1.0, forward.Strength)

	reverse, err := store.Relationship(ctx, "b", "a")
	require.NoError(t, err)
	assert.InDelta(t, 0.8, reverse.Strength, 1e-9)
}

func TestRelationshipCascade_MutualSyncDisabled(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemStore()
	bus := startCascades(t, store, WithMutualSync(false))
	mutualCreated := capture(t, bus, events.TopicRelationshipMutualCreated)

	settle(t, bus, createdEnvelope("a", story.Relationship{
		TargetID: "b", Type: story.RelationFriend, Strength: 0.6,
	}))

	_, err := store.Relationship(ctx, "b", "a")
	assert.True(t, storage.IsNotFound(err))
	assert.Zero(t, mutualCreated.count())
}

func TestRelationshipCascade_CustomMutualRatio(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemStore()
	bus := startCascades(t, store, WithMutualRatio(0.5))

	settle(t, bus, createdEnvelope("a", story.Relationship{
		TargetID: "b", Type: story.RelationFriend, Strength: 0.6,
	}))

	reverse, err := store.Relationship(ctx, "b", "a")
	require.NoError(t, err)
	assert.InDelta(t, 0.3, reverse.Strength, 1e-9)
}

func TestRelationshipCascade_RetriesFailedSaves(t *testing.T) {
	ctx := context.Background()
	store := newFlakyStore(1)
	bus := startCascades(t, store, WithRetryDelay(0))

	settle(t, bus, createdEnvelope("a", story.Relationship{
		TargetID: "b", Type: story.RelationFriend, Strength: 0.6,
	}))

	forward, err := store.Relationship(ctx, "a", "b")
	require.NoError(t, err, "save succeeds on retry")
	assert.Equal(t, 0.6, forward.Strength)
	// One failed attempt, one successful retry, one reverse save.
	assert.Equal(t, 3, store.calls())
}

func TestRelationshipCascade_DroppedSaveNeverStopsTheCascade(t *testing.T) {
	ctx := context.Background()
	store := newFlakyStore(1000)
	bus := startCascades(t, store,
		WithRetryAttempts(2), WithRetryDelay(0))
	rebuilt := capture(t, bus, events.TopicGraphRebuilt)

	settle(t, bus, createdEnvelope("a", story.Relationship{
		TargetID: "b", Type: story.RelationFriend, Strength: 0.6,
	}))

	// Both directions were attempted twice each and dropped.
	assert.Equal(t, 4, store.calls())

	// Handler errors never reach the bus; failures are logged instead.
	assert.Zero(t, bus.Stats().HandlerErrors)

	// The rebuild still ran, projecting exactly what persisted: nothing.
	require.Equal(t, 1, rebuilt.count())
	g, err := store.Graph(ctx)
	require.NoError(t, err)
	assert.Empty(t, g.Edges)
}

func TestRelationshipCascade_RebuildsGraphPerMutation(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemStore()
	bus := startCascades(t, store)
	rebuilt := capture(t, bus, events.TopicGraphRebuilt)

	settle(t, bus, createdEnvelope("a", story.Relationship{
		TargetID: "b", Type: story.RelationFriend, Strength: 0.6,
	}))
	settle(t, bus, updatedRelEnvelope("a",
		story.Relationship{TargetID: "b", Type: story.RelationFriend, Strength: 0.6},
		story.Relationship{TargetID: "b", Type: story.RelationFriend, Strength: 0.9},
	))
	settle(t, bus, event.NewEnvelope(events.TopicRelationshipDeleted, events.RelationshipDeleted{
		SourceID: "a", TargetID: "b", Reason: "ending",
	}).WithSource("test"))

	envs := rebuilt.all()
	require.Len(t, envs, 3)

	triggers := make([]string, 0, len(envs))
	for _, e := range envs {
		p, ok := e.Payload.(events.GraphRebuilt)
		require.True(t, ok)
		triggers = append(triggers, p.Trigger.String())
	}
	assert.Equal(t, []string{
		"relationship.created",
		"relationship.updated",
		"relationship.deleted",
	}, triggers)

	// Stored projection matches the final store contents.
	pairs, err := store.AllRelationships(ctx)
	require.NoError(t, err)
	g, err := store.Graph(ctx)
	require.NoError(t, err)
	assert.Equal(t, story.BuildGraph(pairs), g)
}

func TestCascadePipeline_CharacterUpdateFlowsToStorage(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemStore()
	bus := startCascades(t, store)

	promoted := capture(t, bus, events.TopicCharacterPromoted)
	rebuilt := capture(t, bus, events.TopicGraphRebuilt)

	prev := story.Character{ID: "char-1", Name: "Juno", Type: story.TypeMob}
	curr := prev.Clone()
	curr.Type = story.TypeSub
	curr.Relationships = []story.Relationship{
		{TargetID: "char-2", Type: story.RelationMentor, Strength: 0.5},
	}

	env := updatedEnvelope(prev, curr)
	env.Meta.ID = "evt-root"
	settle(t, bus, env)

	// The promotion and the relationship both fan out of one update.
	require.Equal(t, 1, promoted.count())

	forward, err := store.Relationship(ctx, "char-1", "char-2")
	require.NoError(t, err)
	assert.Equal(t, story.RelationMentor, forward.Type)

	reverse, err := store.Relationship(ctx, "char-2", "char-1")
	require.NoError(t, err)
	assert.Equal(t, story.RelationStudent, reverse.Type)
	assert.InDelta(t, 0.4, reverse.Strength, 1e-9)

	// Everything downstream correlates back to the root envelope.
	require.GreaterOrEqual(t, rebuilt.count(), 1)
	meta := rebuilt.all()[0].Meta
	assert.Equal(t, "evt-root", meta.CorrelationID)
	assert.NotEmpty(t, meta.CausationID)
	assert.NotEqual(t, "evt-root", meta.CausationID, "rebuild is caused by the relationship event, not the root")
}
