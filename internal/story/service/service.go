// Package service exposes the direct API for story mutations. It
// validates input, owns character persistence, and publishes the
// events the cascades act on. Relationship records themselves are
// never written here; the relationship cascade persists them when the
// published events arrive.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/tenchan000517/novel-sub005/internal/event"
	"github.com/tenchan000517/novel-sub005/internal/event/events"
	"github.com/tenchan000517/novel-sub005/internal/storage"
	"github.com/tenchan000517/novel-sub005/internal/story"
)

// Validation errors returned by the service. Lookups that miss return
// a *storage.NotFoundError instead.
var (
	// ErrInvalidCharacter indicates a character record that cannot be
	// accepted as written.
	ErrInvalidCharacter = errors.New("invalid character")

	// ErrCharacterExists indicates a create for an ID already in use.
	ErrCharacterExists = errors.New("character already exists")

	// ErrInvalidRelationship indicates a relationship record that
	// cannot be accepted as written.
	ErrInvalidRelationship = errors.New("invalid relationship")

	// ErrRelationshipExists indicates a create for a pair that already
	// holds an active relationship.
	ErrRelationshipExists = errors.New("relationship already exists")
)

// Service is the mutation API over the story state.
type Service struct {
	bus   event.Bus
	store storage.Store
	log   logrus.FieldLogger
}

// New returns a service persisting characters to store and publishing
// through bus.
func New(bus event.Bus, store storage.Store, log logrus.FieldLogger) *Service {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Service{
		bus:   bus,
		store: store,
		log:   log.WithField("component", "story.service"),
	}
}

// CreateCharacter validates and saves a new character, then publishes
// relationship.created for each relationship the record starts with.
func (s *Service) CreateCharacter(ctx context.Context, c story.Character) error {
	if err := validateCharacter(c); err != nil {
		return err
	}
	if _, err := s.store.Character(ctx, c.ID); err == nil {
		return fmt.Errorf("%w: %s", ErrCharacterExists, c.ID)
	} else if !storage.IsNotFound(err) {
		return err
	}

	c = c.Clone()
	for i := range c.Relationships {
		c.Relationships[i].Strength = story.ClampStrength(c.Relationships[i].Strength)
	}
	if err := s.store.SaveCharacter(ctx, c); err != nil {
		return fmt.Errorf("save character %s: %w", c.ID, err)
	}
	s.log.WithFields(logrus.Fields{
		"character": c.ID,
		"type":      c.Type,
	}).Info("character created")

	for _, rel := range c.Relationships {
		env := event.NewEnvelope(events.TopicRelationshipCreated, events.RelationshipCreated{
			SourceID:     c.ID,
			Relationship: rel,
		}).WithSource("story.service")
		if err := s.bus.Publish(ctx, env); err != nil {
			return fmt.Errorf("publish %s: %w", events.TopicRelationshipCreated, err)
		}
	}
	return nil
}

// UpdateCharacter replaces a character record and publishes
// character.updated carrying the previous and new snapshots. The
// change cascade diffs them into finer-grained events.
func (s *Service) UpdateCharacter(ctx context.Context, c story.Character) error {
	if err := validateCharacter(c); err != nil {
		return err
	}

	prev, err := s.store.Character(ctx, c.ID)
	if err != nil {
		return err
	}

	c = c.Clone()
	for i := range c.Relationships {
		c.Relationships[i].Strength = story.ClampStrength(c.Relationships[i].Strength)
	}
	if err := s.store.SaveCharacter(ctx, c); err != nil {
		return fmt.Errorf("save character %s: %w", c.ID, err)
	}

	env := event.NewEnvelope(events.TopicCharacterUpdated, events.CharacterUpdated{
		Previous: prev,
		Current:  c,
	}).WithSource("story.service")
	if err := s.bus.Publish(ctx, env); err != nil {
		return fmt.Errorf("publish %s: %w", events.TopicCharacterUpdated, err)
	}
	return nil
}

// Character returns one character record.
func (s *Service) Character(ctx context.Context, id string) (story.Character, error) {
	return s.store.Character(ctx, id)
}

// Characters returns every character record.
func (s *Service) Characters(ctx context.Context) ([]story.Character, error) {
	return s.store.AllCharacters(ctx)
}

// CreateRelationship publishes a new relationship held by sourceID.
// Both characters must exist; the pair must not already hold an
// active relationship. A soft-reset pair can be created again.
func (s *Service) CreateRelationship(ctx context.Context, sourceID string, rel story.Relationship) error {
	if err := s.validatePair(ctx, sourceID, rel); err != nil {
		return err
	}

	existing, err := s.store.Relationship(ctx, sourceID, rel.TargetID)
	switch {
	case err == nil:
		if existing.Type != story.RelationNeutral || existing.Strength != 0 {
			return fmt.Errorf("%w: %s", ErrRelationshipExists,
				storage.RelationshipKey(sourceID, rel.TargetID))
		}
	case !storage.IsNotFound(err):
		return err
	}

	rel.Strength = story.ClampStrength(rel.Strength)
	env := event.NewEnvelope(events.TopicRelationshipCreated, events.RelationshipCreated{
		SourceID:     sourceID,
		Relationship: rel,
	}).WithSource("story.service")
	if err := s.bus.Publish(ctx, env); err != nil {
		return fmt.Errorf("publish %s: %w", events.TopicRelationshipCreated, err)
	}
	return nil
}

// UpdateRelationship publishes a change to an existing relationship.
// A missing pair is reported as a *storage.NotFoundError.
func (s *Service) UpdateRelationship(ctx context.Context, sourceID string, rel story.Relationship) error {
	if err := s.validatePair(ctx, sourceID, rel); err != nil {
		return err
	}

	prev, err := s.store.Relationship(ctx, sourceID, rel.TargetID)
	if err != nil {
		return err
	}

	rel.Strength = story.ClampStrength(rel.Strength)
	env := event.NewEnvelope(events.TopicRelationshipUpdated, events.RelationshipUpdated{
		SourceID: sourceID,
		Previous: prev,
		Current:  rel,
	}).WithSource("story.service")
	if err := s.bus.Publish(ctx, env); err != nil {
		return fmt.Errorf("publish %s: %w", events.TopicRelationshipUpdated, err)
	}
	return nil
}

// RemoveRelationship publishes the deletion of an existing pair. The
// cascade soft-resets both directions to NEUTRAL at strength 0,
// recording reason in their histories.
func (s *Service) RemoveRelationship(ctx context.Context, sourceID, targetID, reason string) error {
	prev, err := s.store.Relationship(ctx, sourceID, targetID)
	if err != nil {
		return err
	}

	env := event.NewEnvelope(events.TopicRelationshipDeleted, events.RelationshipDeleted{
		SourceID: sourceID,
		TargetID: targetID,
		Previous: prev,
		Reason:   reason,
	}).WithSource("story.service")
	if err := s.bus.Publish(ctx, env); err != nil {
		return fmt.Errorf("publish %s: %w", events.TopicRelationshipDeleted, err)
	}
	return nil
}

// Relationship returns one stored pair record.
func (s *Service) Relationship(ctx context.Context, sourceID, targetID string) (story.Relationship, error) {
	return s.store.Relationship(ctx, sourceID, targetID)
}

// Relationships returns every stored pair record.
func (s *Service) Relationships(ctx context.Context) ([]story.Pair, error) {
	return s.store.AllRelationships(ctx)
}

// Graph returns the stored relationship graph projection.
func (s *Service) Graph(ctx context.Context) (story.Graph, error) {
	return s.store.Graph(ctx)
}

func validateCharacter(c story.Character) error {
	if c.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidCharacter)
	}
	if !c.Type.Valid() {
		return fmt.Errorf("%w: %s: unknown type %q", ErrInvalidCharacter, c.ID, c.Type)
	}
	for _, rel := range c.Relationships {
		if rel.TargetID == "" {
			return fmt.Errorf("%w: %s: relationship with empty target", ErrInvalidRelationship, c.ID)
		}
		if !rel.Type.Valid() {
			return fmt.Errorf("%w: %s: unknown type %q", ErrInvalidRelationship,
				storage.RelationshipKey(c.ID, rel.TargetID), rel.Type)
		}
	}
	return nil
}

// validatePair checks the relationship record and that both ends exist.
func (s *Service) validatePair(ctx context.Context, sourceID string, rel story.Relationship) error {
	if rel.TargetID == "" {
		return fmt.Errorf("%w: empty target", ErrInvalidRelationship)
	}
	if !rel.Type.Valid() {
		return fmt.Errorf("%w: %s: unknown type %q", ErrInvalidRelationship,
			storage.RelationshipKey(sourceID, rel.TargetID), rel.Type)
	}
	if _, err := s.store.Character(ctx, sourceID); err != nil {
		return err
	}
	if _, err := s.store.Character(ctx, rel.TargetID); err != nil {
		return err
	}
	return nil
}
