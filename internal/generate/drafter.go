package generate

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/tenchan000517/novel-sub005/internal/event"
	"github.com/tenchan000517/novel-sub005/internal/event/events"
	"github.com/tenchan000517/novel-sub005/internal/storage"
	"github.com/tenchan000517/novel-sub005/internal/story"
)

const systemPrompt = "You draft chapters of a serialized novel. " +
	"Keep strict continuity with the character sheet and relationship list you are given."

// Drafter turns the current story state into chapter drafts.
type Drafter struct {
	client    Client
	bus       event.Bus
	store     storage.Store
	log       *logrus.Entry
	maxTokens int64
}

// DrafterOption configures a Drafter.
type DrafterOption func(*Drafter)

// WithMaxTokens sets the completion budget for drafted chapters. Zero
// leaves the provider default in place.
func WithMaxTokens(n int64) DrafterOption {
	return func(d *Drafter) {
		if n > 0 {
			d.maxTokens = n
		}
	}
}

// NewDrafter creates a drafter publishing on bus.
func NewDrafter(client Client, bus event.Bus, store storage.Store, log *logrus.Logger, opts ...DrafterOption) *Drafter {
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	d := &Drafter{
		client: client,
		bus:    bus,
		store:  store,
		log:    log.WithField("component", "generate.drafter"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Draft generates one chapter involving the given characters and
// publishes chapter.written for the memory pipeline. Every character
// must exist.
func (d *Drafter) Draft(ctx context.Context, number int, title string, characterIDs []string) (events.ChapterWritten, error) {
	chars := make([]story.Character, 0, len(characterIDs))
	for _, id := range characterIDs {
		c, err := d.store.Character(ctx, id)
		if err != nil {
			return events.ChapterWritten{}, err
		}
		chars = append(chars, c)
	}
	pairs, err := d.store.AllRelationships(ctx)
	if err != nil {
		return events.ChapterWritten{}, err
	}

	text, err := d.client.Complete(ctx, Request{
		System:    systemPrompt,
		Prompt:    buildPrompt(number, title, chars, pairs),
		MaxTokens: d.maxTokens,
	})
	if err != nil {
		return events.ChapterWritten{}, fmt.Errorf("draft chapter %d: %w", number, err)
	}

	ch := events.ChapterWritten{
		Number:       number,
		Title:        title,
		Text:         text,
		CharacterIDs: characterIDs,
	}
	env := event.NewEnvelope(events.TopicChapterWritten, ch).WithSource("generate.drafter")
	if err := d.bus.Publish(ctx, env); err != nil {
		return events.ChapterWritten{}, fmt.Errorf("publish %s: %w", events.TopicChapterWritten, err)
	}

	d.log.WithFields(logrus.Fields{
		"chapter":    number,
		"characters": len(chars),
	}).Info("chapter drafted")
	return ch, nil
}

// buildPrompt renders the character sheet and the relationships among
// the listed characters. Soft-deleted pairs are left out.
func buildPrompt(number int, title string, chars []story.Character, pairs []story.Pair) string {
	names := make(map[string]string, len(chars))
	for _, c := range chars {
		names[c.ID] = displayName(c)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Write chapter %d, %q.\n\nCharacters:\n", number, title)
	for _, c := range chars {
		fmt.Fprintf(&b, "- %s (%s)", displayName(c), c.Type)
		if c.State.Status != "" {
			fmt.Fprintf(&b, ", status: %s", c.State.Status)
		}
		if c.State.Location != "" {
			fmt.Fprintf(&b, ", at: %s", c.State.Location)
		}
		if c.State.Mood != "" {
			fmt.Fprintf(&b, ", mood: %s", c.State.Mood)
		}
		if c.State.Goal != "" {
			fmt.Fprintf(&b, ", goal: %s", c.State.Goal)
		}
		b.WriteString("\n")
	}

	var lines []string
	for _, p := range pairs {
		src, ok := names[p.SourceID]
		if !ok {
			continue
		}
		tgt, ok := names[p.TargetID]
		if !ok {
			continue
		}
		if p.Type == story.RelationNeutral && p.Strength == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s -> %s: %s (%.2f)", src, tgt, p.Type, p.Strength))
	}
	if len(lines) > 0 {
		b.WriteString("\nRelationships:\n")
		b.WriteString(strings.Join(lines, "\n"))
		b.WriteString("\n")
	}

	b.WriteString("\nContinue the story in third person past tense.")
	return b.String()
}

func displayName(c story.Character) string {
	if c.Name != "" {
		return c.Name
	}
	return c.ID
}
