package cascade

import (
	"context"

	"github.com/avast/retry-go"
	"github.com/sirupsen/logrus"

	"github.com/tenchan000517/novel-sub005/internal/event"
	"github.com/tenchan000517/novel-sub005/internal/event/events"
	"github.com/tenchan000517/novel-sub005/internal/event/topic"
	"github.com/tenchan000517/novel-sub005/internal/storage"
	"github.com/tenchan000517/novel-sub005/internal/story"
)

// RelationshipCascade owns relationship persistence. It subscribes to
// the relationship events, writes records through the store, keeps the
// reverse direction of every pair consistent with the mutual type
// table, and soft-resets deleted pairs to NEUTRAL at strength 0.
//
// Failed saves are retried, then logged and dropped; the cascade never
// reports them to the bus. The graph is rebuilt from the store after
// every mutation, so a dropped save can never leak into the projection.
type RelationshipCascade struct {
	bus       event.Bus
	store     storage.RelationshipStore
	projector *Projector
	log       logrus.FieldLogger
	cfg       config
}

// NewRelationshipCascade returns a cascade persisting through store
// and publishing through bus.
func NewRelationshipCascade(bus event.Bus, store storage.RelationshipStore, projector *Projector, log logrus.FieldLogger, opts ...Option) *RelationshipCascade {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &RelationshipCascade{
		bus:       bus,
		store:     store,
		projector: projector,
		log:       ensureLogger(log).WithField("component", "cascade.relationship"),
		cfg:       cfg,
	}
}

// Registrations returns the subscriptions the cascade needs.
func (c *RelationshipCascade) Registrations() []event.Registration {
	return []event.Registration{
		{
			Topic:    events.TopicRelationshipCreated,
			Handler:  event.PayloadFunc(c.onCreated),
			Priority: events.DeclaredPriority(events.TopicRelationshipCreated),
		},
		{
			Topic:    events.TopicRelationshipUpdated,
			Handler:  event.PayloadFunc(c.onUpdated),
			Priority: events.DeclaredPriority(events.TopicRelationshipUpdated),
		},
		{
			Topic:    events.TopicRelationshipDeleted,
			Handler:  event.PayloadFunc(c.onDeleted),
			Priority: events.DeclaredPriority(events.TopicRelationshipDeleted),
		},
		{
			Topic:    events.TopicRelationshipStrengthened,
			Handler:  event.PayloadFunc(c.onStrengthened),
			Priority: events.DeclaredPriority(events.TopicRelationshipStrengthened),
		},
		{
			Topic:    events.TopicRelationshipWeakened,
			Handler:  event.PayloadFunc(c.onWeakened),
			Priority: events.DeclaredPriority(events.TopicRelationshipWeakened),
		},
	}
}

func (c *RelationshipCascade) onCreated(ctx context.Context, env event.Envelope, p events.RelationshipCreated) error {
	rel := p.Relationship.Clone()
	rel.Strength = story.ClampStrength(rel.Strength)
	rel.History = append(rel.History, story.ChangeRecord{
		At:       timeNow(),
		Change:   story.ChangeCreated,
		Strength: rel.Strength,
	})

	c.persist(ctx, p.SourceID, rel.TargetID, rel)

	if c.cfg.mutualSync {
		c.syncMutual(ctx, env, p.SourceID, rel)
	}

	c.rebuild(ctx, env)
	return nil
}

func (c *RelationshipCascade) onUpdated(ctx context.Context, env event.Envelope, p events.RelationshipUpdated) error {
	curr := p.Current.Clone()
	curr.Strength = story.ClampStrength(curr.Strength)

	if curr.Type == p.Previous.Type &&
		curr.Strength == p.Previous.Strength &&
		curr.Description == p.Previous.Description {
		c.log.WithField("pair", storage.RelationshipKey(p.SourceID, curr.TargetID)).
			Debug("relationship update carried no change")
		return nil
	}

	change := story.ChangeUpdated
	switch {
	case curr.Strength > p.Previous.Strength:
		change = story.ChangeStrengthened
	case curr.Strength < p.Previous.Strength:
		change = story.ChangeWeakened
	}
	curr.History = append(curr.History, story.ChangeRecord{
		At:       timeNow(),
		Change:   change,
		Strength: curr.Strength,
	})

	c.persist(ctx, p.SourceID, curr.TargetID, curr)

	shift := events.RelationshipStrengthened{
		SourceID:         p.SourceID,
		TargetID:         curr.TargetID,
		Type:             curr.Type,
		PreviousStrength: p.Previous.Strength,
		NewStrength:      curr.Strength,
	}
	switch change {
	case story.ChangeStrengthened:
		c.publish(ctx, env, events.TopicRelationshipStrengthened, shift)
	case story.ChangeWeakened:
		c.publish(ctx, env, events.TopicRelationshipWeakened, events.RelationshipWeakened(shift))
	}

	if c.cfg.mutualSync {
		c.syncMutual(ctx, env, p.SourceID, curr)
	}

	c.rebuild(ctx, env)
	return nil
}

func (c *RelationshipCascade) onDeleted(ctx context.Context, env event.Envelope, p events.RelationshipDeleted) error {
	reason := p.Reason
	if reason == "" {
		reason = "relationship deleted"
	}

	forward, err := c.store.Relationship(ctx, p.SourceID, p.TargetID)
	if err != nil {
		if !storage.IsNotFound(err) {
			c.log.WithError(err).
				WithField("pair", storage.RelationshipKey(p.SourceID, p.TargetID)).
				Error("load before soft reset failed")
		}
		forward = p.Previous.Clone()
		forward.TargetID = p.TargetID
	}
	c.softReset(ctx, p.SourceID, forward, reason)

	// The reverse direction resets too, but an absent reverse is not
	// conjured into existence just to neutralize it.
	reverse, err := c.store.Relationship(ctx, p.TargetID, p.SourceID)
	switch {
	case err == nil:
		c.softReset(ctx, p.TargetID, reverse, reason)
	case !storage.IsNotFound(err):
		c.log.WithError(err).
			WithField("pair", storage.RelationshipKey(p.TargetID, p.SourceID)).
			Error("load reverse before soft reset failed")
	}

	c.rebuild(ctx, env)
	return nil
}

func (c *RelationshipCascade) onStrengthened(_ context.Context, _ event.Envelope, p events.RelationshipStrengthened) error {
	c.log.WithFields(logrus.Fields{
		"pair": storage.RelationshipKey(p.SourceID, p.TargetID),
		"from": p.PreviousStrength,
		"to":   p.NewStrength,
	}).Info("relationship strengthened")
	return nil
}

func (c *RelationshipCascade) onWeakened(_ context.Context, _ event.Envelope, p events.RelationshipWeakened) error {
	c.log.WithFields(logrus.Fields{
		"pair": storage.RelationshipKey(p.SourceID, p.TargetID),
		"from": p.PreviousStrength,
		"to":   p.NewStrength,
	}).Info("relationship weakened")
	return nil
}

// syncMutual reconciles the reverse direction of (sourceID, forward):
// absent reverses are created at a fraction of the forward strength
// with the mutual type, reverses with a mismatched type are corrected,
// and correct reverses are left alone.
func (c *RelationshipCascade) syncMutual(ctx context.Context, env event.Envelope, sourceID string, forward story.Relationship) {
	if sourceID == forward.TargetID {
		// A self-relationship is its own reverse.
		return
	}
	mirror := forward.Type.Mutual()

	stored, err := c.store.Relationship(ctx, forward.TargetID, sourceID)
	switch {
	case storage.IsNotFound(err):
		strength := story.ClampStrength(forward.Strength * c.cfg.mutualRatio)
		reverse := story.Relationship{
			TargetID: sourceID,
			Type:     mirror,
			Strength: strength,
			History: []story.ChangeRecord{{
				At:       timeNow(),
				Change:   story.ChangeMutualSync,
				Strength: strength,
				Reason:   "mutual of " + storage.RelationshipKey(sourceID, forward.TargetID),
			}},
		}
		c.persist(ctx, forward.TargetID, sourceID, reverse)
		c.publish(ctx, env, events.TopicRelationshipMutualCreated, events.RelationshipMutualCreated{
			SourceID:     forward.TargetID,
			Relationship: reverse,
		})
	case err != nil:
		c.log.WithError(err).
			WithField("pair", storage.RelationshipKey(forward.TargetID, sourceID)).
			Error("mutual lookup failed")
	case stored.Type != mirror:
		corrected := stored.Clone()
		corrected.Type = mirror
		corrected.History = append(corrected.History, story.ChangeRecord{
			At:       timeNow(),
			Change:   story.ChangeMutualSync,
			Strength: corrected.Strength,
			Reason:   "type corrected to mirror " + string(forward.Type),
		})
		c.persist(ctx, forward.TargetID, sourceID, corrected)
		c.publish(ctx, env, events.TopicRelationshipMutualUpdated, events.RelationshipMutualUpdated{
			SourceID: forward.TargetID,
			Previous: stored,
			Current:  corrected,
		})
	}
}

// softReset rewrites one direction as NEUTRAL at strength 0, keeping
// description and history. Records that are already neutral are left
// untouched, so repeated deletes do not pile up history entries.
func (c *RelationshipCascade) softReset(ctx context.Context, sourceID string, rel story.Relationship, reason string) {
	if rel.Type == story.RelationNeutral && rel.Strength == 0 {
		return
	}
	rel = rel.Clone()
	rel.Type = story.RelationNeutral
	rel.Strength = 0
	rel.History = append(rel.History, story.ChangeRecord{
		At:     timeNow(),
		Change: story.ChangeDeleted,
		Reason: reason,
	})
	c.persist(ctx, sourceID, rel.TargetID, rel)
}

// persist writes one record, retrying transient failures. After the
// last attempt the error is logged and the record dropped; the cascade
// proceeds regardless.
func (c *RelationshipCascade) persist(ctx context.Context, sourceID, targetID string, rel story.Relationship) {
	err := retry.Do(
		func() error {
			return c.store.SaveRelationship(ctx, sourceID, targetID, rel)
		},
		retry.Context(ctx),
		retry.Attempts(c.cfg.retryAttempts),
		retry.Delay(c.cfg.retryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.log.WithError(err).WithFields(logrus.Fields{
				"pair":    storage.RelationshipKey(sourceID, targetID),
				"attempt": n + 1,
			}).Warn("relationship save failed, retrying")
		}),
	)
	if err != nil {
		c.log.WithError(err).
			WithField("pair", storage.RelationshipKey(sourceID, targetID)).
			Error("relationship save dropped after retries")
	}
}

func (c *RelationshipCascade) publish(ctx context.Context, cause event.Envelope, t topic.Topic, payload any) {
	env := event.NewEnvelope(t, payload).WithSource("cascade.relationship").WithCause(cause.Meta)
	if err := c.bus.Publish(ctx, env); err != nil {
		c.log.WithError(err).WithField("topic", t).Error("publish failed")
	}
}

func (c *RelationshipCascade) rebuild(ctx context.Context, env event.Envelope) {
	if err := c.projector.Rebuild(ctx, env.Meta, env.Topic); err != nil {
		c.log.WithError(err).WithField("trigger", env.Topic).Error("graph rebuild failed")
	}
}
