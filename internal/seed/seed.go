// Package seed loads initial story state from YAML files.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/tenchan000517/novel-sub005/internal/story"
	"github.com/tenchan000517/novel-sub005/internal/story/service"
)

// File represents the structure of a seed file.
type File struct {
	Characters []CharacterDef `yaml:"characters"`
}

// CharacterDef represents one character in a seed file.
type CharacterDef struct {
	ID            string        `yaml:"id"`
	Name          string        `yaml:"name"`
	Type          string        `yaml:"type"`
	Description   string        `yaml:"description"`
	State         StateDef      `yaml:"state"`
	Relationships []RelationDef `yaml:"relationships"`
}

// StateDef represents a character's mutable state.
type StateDef struct {
	Status   string `yaml:"status"`
	Location string `yaml:"location"`
	Mood     string `yaml:"mood"`
	Goal     string `yaml:"goal"`
}

// RelationDef represents one relationship held by a character.
type RelationDef struct {
	Target      string  `yaml:"target"`
	Type        string  `yaml:"type"`
	Strength    float64 `yaml:"strength"`
	Description string  `yaml:"description"`
}

// Load reads a seed file from disk.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing seed file %s: %w", path, err)
	}
	return f, nil
}

// Parse decodes seed YAML.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// CharacterCreator is the part of the story service Apply needs.
type CharacterCreator interface {
	CreateCharacter(ctx context.Context, c story.Character) error
}

// Apply creates every seeded character, in file order. Characters
// that already exist are skipped. It returns how many were created.
func Apply(ctx context.Context, creator CharacterCreator, f *File, log *logrus.Logger) (int, error) {
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	entry := log.WithField("component", "seed")

	created := 0
	for _, def := range f.Characters {
		select {
		case <-ctx.Done():
			return created, ctx.Err()
		default:
		}

		err := creator.CreateCharacter(ctx, toCharacter(def))
		switch {
		case errors.Is(err, service.ErrCharacterExists):
			entry.WithField("character", def.ID).Debug("already present, skipped")
		case err != nil:
			return created, fmt.Errorf("seeding %s: %w", def.ID, err)
		default:
			created++
		}
	}

	entry.WithFields(logrus.Fields{
		"characters": len(f.Characters),
		"created":    created,
	}).Info("seed applied")
	return created, nil
}

// toCharacter converts a seed definition to the domain type. Type
// names are case-insensitive in seed files.
func toCharacter(def CharacterDef) story.Character {
	c := story.Character{
		ID:          def.ID,
		Name:        def.Name,
		Type:        story.CharacterType(strings.ToUpper(def.Type)),
		Description: def.Description,
		State: story.CharacterState{
			Status:   def.State.Status,
			Location: def.State.Location,
			Mood:     def.State.Mood,
			Goal:     def.State.Goal,
		},
	}
	for _, rel := range def.Relationships {
		c.Relationships = append(c.Relationships, story.Relationship{
			TargetID:    rel.Target,
			Type:        story.RelationType(strings.ToUpper(rel.Type)),
			Strength:    rel.Strength,
			Description: rel.Description,
		})
	}
	return c
}
