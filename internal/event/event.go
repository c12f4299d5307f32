package event

import (
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/tenchan000517/novel-sub005/internal/event/topic"
)

// timeNow is the clock used to stamp envelopes. Tests replace it.
var timeNow = time.Now

// newID generates a unique, time-ordered event ID.
func newID() string {
	return ulid.Make().String()
}

// Metadata carries standard information attached to every event.
type Metadata struct {
	// ID uniquely identifies this event instance. The bus stamps it
	// at publish time when left empty.
	ID string

	// Timestamp is when the event was published. The bus stamps it
	// at publish time when left zero.
	Timestamp time.Time

	// Source identifies the component that published the event.
	Source string

	// CorrelationID is shared by every event in one mutation chain.
	CorrelationID string

	// CausationID is the ID of the event that directly caused this one.
	CausationID string
}

// Envelope is the unit the bus transports: a topic, an opaque payload
// and metadata. Payloads are the typed structs from the events
// subpackage; handlers type-assert them.
type Envelope struct {
	Topic   topic.Topic
	Payload any
	Meta    Metadata
}

// NewEnvelope creates an envelope with empty metadata. The bus fills
// in ID and Timestamp at publish time.
func NewEnvelope(t topic.Topic, payload any) Envelope {
	return Envelope{Topic: t, Payload: payload}
}

// WithSource returns a copy of the envelope with the source set.
func (e Envelope) WithSource(source string) Envelope {
	e.Meta.Source = source
	return e
}

// WithCause links the envelope to the event that produced it. The
// causation ID points at the parent and the correlation ID is
// inherited, so every event in one mutation chain shares the root's
// correlation ID.
func (e Envelope) WithCause(parent Metadata) Envelope {
	e.Meta.CausationID = parent.ID
	if parent.CorrelationID != "" {
		e.Meta.CorrelationID = parent.CorrelationID
	} else {
		e.Meta.CorrelationID = parent.ID
	}
	return e
}
