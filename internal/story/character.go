package story

// CharacterType ranks a character's narrative importance.
type CharacterType string

const (
	TypeMain CharacterType = "MAIN"
	TypeSub  CharacterType = "SUB"
	TypeMob  CharacterType = "MOB"
)

// Valid reports whether t is one of the known character types.
func (t CharacterType) Valid() bool {
	switch t {
	case TypeMain, TypeSub, TypeMob:
		return true
	}
	return false
}

// rank orders types from least to most important. Unknown types rank
// below MOB so a correction away from bad data never reads as a
// demotion of a real type.
func (t CharacterType) rank() int {
	switch t {
	case TypeMob:
		return 1
	case TypeSub:
		return 2
	case TypeMain:
		return 3
	default:
		return 0
	}
}

// IsPromotion reports whether a type change raises a character's
// narrative importance: MOB to SUB, MOB to MAIN, or SUB to MAIN.
// Every other change between valid types is a demotion.
func IsPromotion(from, to CharacterType) bool {
	return to.rank() > from.rank()
}

// CharacterState captures the mutable condition of a character at a
// point in the story. It is comparable, so a single equality check
// detects any state change.
type CharacterState struct {
	Status   string `json:"status,omitempty"`
	Location string `json:"location,omitempty"`
	Mood     string `json:"mood,omitempty"`
	Goal     string `json:"goal,omitempty"`
}

// Character is a persistent actor in the story. Relationships holds
// the outgoing records only; the reverse direction lives on the target
// character and is synchronized by the relationship cascade.
type Character struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Type          CharacterType  `json:"type"`
	State         CharacterState `json:"state"`
	Relationships []Relationship `json:"relationships,omitempty"`
	Description   string         `json:"description,omitempty"`
}

// Clone returns a deep copy of the character. Cascade handlers diff
// new snapshots against previous ones, so a clone must not share
// relationship slices or history with the original.
func (c Character) Clone() Character {
	out := c
	if c.Relationships != nil {
		out.Relationships = make([]Relationship, len(c.Relationships))
		for i, r := range c.Relationships {
			out.Relationships[i] = r.Clone()
		}
	}
	return out
}

// RelationshipWith returns the outgoing relationship toward targetID,
// if one exists.
func (c Character) RelationshipWith(targetID string) (Relationship, bool) {
	for _, r := range c.Relationships {
		if r.TargetID == targetID {
			return r, true
		}
	}
	return Relationship{}, false
}
