package story

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCharacterType_Valid(t *testing.T) {
	assert.True(t, TypeMain.Valid())
	assert.True(t, TypeSub.Valid())
	assert.True(t, TypeMob.Valid())
	assert.False(t, CharacterType("HERO").Valid())
	assert.False(t, CharacterType("").Valid())
}

func TestIsPromotion(t *testing.T) {
	tests := []struct {
		from, to CharacterType
		want     bool
	}{
		{TypeMob, TypeSub, true},
		{TypeMob, TypeMain, true},
		{TypeSub, TypeMain, true},
		{TypeMain, TypeSub, false},
		{TypeMain, TypeMob, false},
		{TypeSub, TypeMob, false},
		{TypeMob, TypeMob, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsPromotion(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestCharacter_Clone(t *testing.T) {
	orig := Character{
		ID:   "char-1",
		Name: "Aria",
		Type: TypeMain,
		State: CharacterState{
			Status:   "active",
			Location: "harbor district",
		},
		Relationships: []Relationship{
			{
				TargetID: "char-2",
				Type:     RelationFriend,
				Strength: 0.6,
				History:  []ChangeRecord{{Change: ChangeCreated, Strength: 0.6}},
			},
		},
	}

	clone := orig.Clone()
	assert.Equal(t, orig, clone)

	clone.Relationships[0].Strength = 0.9
	clone.Relationships[0].History[0].Change = ChangeUpdated
	clone.State.Mood = "uneasy"

	assert.Equal(t, 0.6, orig.Relationships[0].Strength)
	assert.Equal(t, ChangeCreated, orig.Relationships[0].History[0].Change)
	assert.Empty(t, orig.State.Mood)
}

func TestCharacter_Clone_NilRelationships(t *testing.T) {
	orig := Character{ID: "char-1", Type: TypeMob}
	clone := orig.Clone()
	assert.Nil(t, clone.Relationships)
}

func TestCharacter_RelationshipWith(t *testing.T) {
	c := Character{
		ID: "char-1",
		Relationships: []Relationship{
			{TargetID: "char-2", Type: RelationFriend, Strength: 0.6},
			{TargetID: "char-3", Type: RelationRival, Strength: 0.4},
		},
	}

	rel, ok := c.RelationshipWith("char-3")
	assert.True(t, ok)
	assert.Equal(t, RelationRival, rel.Type)

	_, ok = c.RelationshipWith("char-9")
	assert.False(t, ok)
}
