// Package storage defines the persistence contracts for characters,
// directional relationship records and the derived relationship graph,
// plus an in-memory implementation used by tests and short-lived runs.
//
// Implementations return a *NotFoundError for lookups that miss;
// callers test for it with IsNotFound or errors.Is against ErrNotFound.
// A file-backed implementation lives in the jsonfile subpackage.
package storage
