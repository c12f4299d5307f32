// Package cascade contains the event handlers that keep character and
// relationship state consistent.
//
// The character cascade subscribes to character.updated and diffs the
// new record against the previous snapshot, republishing finer-grained
// events (promoted, demoted, state.changed, relationship.*). It never
// touches storage.
//
// The relationship cascade subscribes to the relationship events and
// owns persistence: it writes records through the relationship store,
// keeps the reverse direction of every pair in sync via the mutual
// type table, soft-resets deleted pairs to NEUTRAL, and republishes
// strengthened/weakened when an update moves a strength. Persistence
// failures are retried, then logged and swallowed; the event cascade
// continues regardless.
//
// After every relationship mutation the projector rebuilds the graph
// from the full persisted set, saves it, and publishes graph.rebuilt.
// Because the rebuild reads the store rather than trusting the event
// that triggered it, the projection never drifts from what actually
// persisted.
package cascade
