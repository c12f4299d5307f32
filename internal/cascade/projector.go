package cascade

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/tenchan000517/novel-sub005/internal/event"
	"github.com/tenchan000517/novel-sub005/internal/event/events"
	"github.com/tenchan000517/novel-sub005/internal/event/topic"
	"github.com/tenchan000517/novel-sub005/internal/storage"
	"github.com/tenchan000517/novel-sub005/internal/story"
)

// Projector maintains the derived relationship graph. It rebuilds the
// projection from the full persisted relationship set, so it reflects
// exactly what storage holds, never what an event claimed.
type Projector struct {
	bus   event.Bus
	store storage.RelationshipStore
	log   logrus.FieldLogger
}

// NewProjector returns a projector reading from store and announcing
// rebuilds through bus.
func NewProjector(bus event.Bus, store storage.RelationshipStore, log logrus.FieldLogger) *Projector {
	return &Projector{
		bus:   bus,
		store: store,
		log:   ensureLogger(log).WithField("component", "cascade.projector"),
	}
}

// Rebuild reprojects the graph, saves it, and publishes graph.rebuilt.
// cause is the metadata of the relationship event that committed the
// mutation; trigger is its topic.
func (p *Projector) Rebuild(ctx context.Context, cause event.Metadata, trigger topic.Topic) error {
	pairs, err := p.store.AllRelationships(ctx)
	if err != nil {
		return fmt.Errorf("load relationships: %w", err)
	}

	g := story.BuildGraph(pairs)
	if err := p.store.SaveGraph(ctx, g); err != nil {
		return fmt.Errorf("save graph: %w", err)
	}

	env := event.NewEnvelope(events.TopicGraphRebuilt, events.GraphRebuilt{
		Graph:   g,
		Trigger: trigger,
	}).WithSource("cascade.projector").WithCause(cause)
	if err := p.bus.Publish(ctx, env); err != nil {
		return fmt.Errorf("publish %s: %w", events.TopicGraphRebuilt, err)
	}

	p.log.WithFields(logrus.Fields{
		"nodes":   len(g.Nodes),
		"edges":   len(g.Edges),
		"trigger": trigger,
	}).Debug("relationship graph rebuilt")
	return nil
}
