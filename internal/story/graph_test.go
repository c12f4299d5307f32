package story

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildGraph(t *testing.T) {
	pairs := []Pair{
		{SourceID: "char-2", Relationship: Relationship{TargetID: "char-1", Type: RelationStudent, Strength: 0.4}},
		{SourceID: "char-1", Relationship: Relationship{TargetID: "char-2", Type: RelationMentor, Strength: 0.5}},
		{SourceID: "char-1", Relationship: Relationship{TargetID: "char-3", Type: RelationFriend, Strength: 0.7}},
	}

	g := BuildGraph(pairs)

	assert.Equal(t, []string{"char-1", "char-2", "char-3"}, g.Nodes)
	assert.Len(t, g.Edges, 3)
	assert.Equal(t, Edge{Source: "char-1", Target: "char-2", Type: RelationMentor, Strength: 0.5}, g.Edges[0])
	assert.Equal(t, Edge{Source: "char-1", Target: "char-3", Type: RelationFriend, Strength: 0.7}, g.Edges[1])
	assert.Equal(t, Edge{Source: "char-2", Target: "char-1", Type: RelationStudent, Strength: 0.4}, g.Edges[2])
}

func TestBuildGraph_Empty(t *testing.T) {
	g := BuildGraph(nil)
	assert.Empty(t, g.Nodes)
	assert.Empty(t, g.Edges)
}

func TestBuildGraph_Deterministic(t *testing.T) {
	forward := []Pair{
		{SourceID: "a", Relationship: Relationship{TargetID: "b", Type: RelationFriend, Strength: 0.6}},
		{SourceID: "b", Relationship: Relationship{TargetID: "a", Type: RelationFriend, Strength: 0.48}},
		{SourceID: "c", Relationship: Relationship{TargetID: "a", Type: RelationRival, Strength: 0.3}},
	}
	reversed := []Pair{forward[2], forward[1], forward[0]}

	assert.Equal(t, BuildGraph(forward), BuildGraph(reversed))
}

func TestBuildGraph_KeepsSoftResetEdges(t *testing.T) {
	pairs := []Pair{
		{SourceID: "a", Relationship: Relationship{TargetID: "b", Type: RelationNeutral, Strength: 0}},
	}

	g := BuildGraph(pairs)

	assert.Equal(t, []string{"a", "b"}, g.Nodes)
	assert.Len(t, g.Edges, 1)
	assert.Equal(t, RelationNeutral, g.Edges[0].Type)
}

func TestGraph_EdgeBetween(t *testing.T) {
	g := BuildGraph([]Pair{
		{SourceID: "a", Relationship: Relationship{TargetID: "b", Type: RelationFriend, Strength: 0.6}},
	})

	e, ok := g.EdgeBetween("a", "b")
	assert.True(t, ok)
	assert.Equal(t, 0.6, e.Strength)

	_, ok = g.EdgeBetween("b", "a")
	assert.False(t, ok)
}
