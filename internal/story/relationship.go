package story

import "time"

// RelationType classifies how one character relates to another.
// The type is directional: a PARENT record on the source side implies
// a CHILD record on the target side.
type RelationType string

const (
	RelationFriend    RelationType = "FRIEND"
	RelationEnemy     RelationType = "ENEMY"
	RelationRival     RelationType = "RIVAL"
	RelationMentor    RelationType = "MENTOR"
	RelationStudent   RelationType = "STUDENT"
	RelationParent    RelationType = "PARENT"
	RelationChild     RelationType = "CHILD"
	RelationLeader    RelationType = "LEADER"
	RelationFollower  RelationType = "FOLLOWER"
	RelationProtector RelationType = "PROTECTOR"
	RelationProtected RelationType = "PROTECTED"
	RelationLover     RelationType = "LOVER"
	RelationColleague RelationType = "COLLEAGUE"
	RelationNeutral   RelationType = "NEUTRAL"
)

// mutualTypes lists the asymmetric pairs. Types absent from the map
// are symmetric and mirror to themselves.
var mutualTypes = map[RelationType]RelationType{
	RelationParent:    RelationChild,
	RelationChild:     RelationParent,
	RelationMentor:    RelationStudent,
	RelationStudent:   RelationMentor,
	RelationLeader:    RelationFollower,
	RelationFollower:  RelationLeader,
	RelationProtector: RelationProtected,
	RelationProtected: RelationProtector,
}

// Valid reports whether t is one of the known relationship types.
func (t RelationType) Valid() bool {
	switch t {
	case RelationFriend, RelationEnemy, RelationRival,
		RelationMentor, RelationStudent,
		RelationParent, RelationChild,
		RelationLeader, RelationFollower,
		RelationProtector, RelationProtected,
		RelationLover, RelationColleague, RelationNeutral:
		return true
	}
	return false
}

// Mutual returns the type the reverse direction of a relationship must
// carry: the counterpart for asymmetric types, the type itself for
// symmetric ones.
func (t RelationType) Mutual() RelationType {
	if m, ok := mutualTypes[t]; ok {
		return m
	}
	return t
}

// ClampStrength bounds a relationship strength to [0, 1].
func ClampStrength(s float64) float64 {
	switch {
	case s < 0:
		return 0
	case s > 1:
		return 1
	}
	return s
}

// ChangeKind names what a history record captured.
type ChangeKind string

const (
	ChangeCreated      ChangeKind = "created"
	ChangeUpdated      ChangeKind = "updated"
	ChangeStrengthened ChangeKind = "strengthened"
	ChangeWeakened     ChangeKind = "weakened"
	ChangeDeleted      ChangeKind = "deleted"
	ChangeMutualSync   ChangeKind = "mutual_sync"
)

// ChangeRecord is one entry in a relationship's append-only history.
// Strength is the value the relationship held after the change.
type ChangeRecord struct {
	At       time.Time  `json:"at"`
	Change   ChangeKind `json:"change"`
	Strength float64    `json:"strength"`
	Reason   string     `json:"reason,omitempty"`
}

// Relationship is a directional record held by one character toward
// another. Strength is always within [0, 1] and History is append-only:
// a deletion soft-resets the record to NEUTRAL/0 instead of removing it,
// so the history survives.
type Relationship struct {
	TargetID    string         `json:"target_id"`
	Type        RelationType   `json:"type"`
	Strength    float64        `json:"strength"`
	Description string         `json:"description,omitempty"`
	History     []ChangeRecord `json:"history,omitempty"`
}

// Clone returns a copy whose history does not share backing storage
// with the original.
func (r Relationship) Clone() Relationship {
	out := r
	if r.History != nil {
		out.History = make([]ChangeRecord, len(r.History))
		copy(out.History, r.History)
	}
	return out
}

// Pair binds a directional relationship record to the character that
// holds it. Storage persists and lists relationships as pairs.
type Pair struct {
	SourceID     string `json:"source_id"`
	Relationship        // the record held by SourceID
}
