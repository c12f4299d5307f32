package cascade

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/tenchan000517/novel-sub005/internal/event"
	"github.com/tenchan000517/novel-sub005/internal/event/events"
	"github.com/tenchan000517/novel-sub005/internal/event/topic"
	"github.com/tenchan000517/novel-sub005/internal/story"
)

// CharacterCascade turns character.updated events into finer-grained
// ones by diffing the new record against the previous snapshot carried
// in the payload. It never touches storage; the relationship cascade
// picks up the relationship events it emits.
type CharacterCascade struct {
	bus event.Bus
	log logrus.FieldLogger
}

// NewCharacterCascade returns a cascade publishing through bus.
func NewCharacterCascade(bus event.Bus, log logrus.FieldLogger) *CharacterCascade {
	return &CharacterCascade{
		bus: bus,
		log: ensureLogger(log).WithField("component", "cascade.character"),
	}
}

// Registrations returns the subscriptions the cascade needs.
func (c *CharacterCascade) Registrations() []event.Registration {
	return []event.Registration{{
		Topic:    events.TopicCharacterUpdated,
		Handler:  event.PayloadFunc(c.onUpdated),
		Priority: events.DeclaredPriority(events.TopicCharacterUpdated),
	}}
}

func (c *CharacterCascade) onUpdated(ctx context.Context, env event.Envelope, p events.CharacterUpdated) error {
	var errs []error
	emitted := 0
	emit := func(t topic.Topic, payload any) {
		e := event.NewEnvelope(t, payload).WithSource("cascade.character").WithCause(env.Meta)
		if err := c.bus.Publish(ctx, e); err != nil {
			errs = append(errs, fmt.Errorf("publish %s: %w", t, err))
			return
		}
		emitted++
	}

	if p.Previous.Type != p.Current.Type {
		change := events.CharacterPromoted{
			CharacterID: p.Current.ID,
			Name:        p.Current.Name,
			FromType:    p.Previous.Type,
			ToType:      p.Current.Type,
		}
		if story.IsPromotion(p.Previous.Type, p.Current.Type) {
			emit(events.TopicCharacterPromoted, change)
		} else {
			emit(events.TopicCharacterDemoted, events.CharacterDemoted(change))
		}
	}

	if p.Previous.State != p.Current.State {
		emit(events.TopicCharacterStateChanged, events.CharacterStateChanged{
			CharacterID: p.Current.ID,
			Previous:    p.Previous.State,
			Current:     p.Current.State,
		})
	}

	c.diffRelationships(p, emit)

	if emitted > 0 {
		c.log.WithFields(logrus.Fields{
			"character": p.Current.ID,
			"events":    emitted,
		}).Debug("character change fanned out")
	}
	return errors.Join(errs...)
}

// diffRelationships compares the relationship lists by target and
// emits created, updated and deleted events in list order.
func (c *CharacterCascade) diffRelationships(p events.CharacterUpdated, emit func(topic.Topic, any)) {
	prevByTarget := make(map[string]story.Relationship, len(p.Previous.Relationships))
	for _, r := range p.Previous.Relationships {
		prevByTarget[r.TargetID] = r
	}

	currentTargets := make(map[string]struct{}, len(p.Current.Relationships))
	for _, r := range p.Current.Relationships {
		currentTargets[r.TargetID] = struct{}{}

		before, existed := prevByTarget[r.TargetID]
		switch {
		case !existed:
			emit(events.TopicRelationshipCreated, events.RelationshipCreated{
				SourceID:     p.Current.ID,
				Relationship: r,
			})
		case before.Type != r.Type || before.Strength != r.Strength:
			emit(events.TopicRelationshipUpdated, events.RelationshipUpdated{
				SourceID: p.Current.ID,
				Previous: before,
				Current:  r,
			})
		}
	}

	for _, r := range p.Previous.Relationships {
		if _, ok := currentTargets[r.TargetID]; !ok {
			emit(events.TopicRelationshipDeleted, events.RelationshipDeleted{
				SourceID: p.Current.ID,
				TargetID: r.TargetID,
				Previous: r,
				Reason:   "removed in character update",
			})
		}
	}
}
