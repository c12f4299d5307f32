// Package config loads the story pipeline configuration.
//
// Settings come from three layers, later layers winning: built-in
// defaults, an optional TOML file, and NOVELSUB_* environment
// variables. Set writes to a fourth layer above all of those.
//
// Section accessors (Bus, Storage, Cascade, Memory, AI, Logging)
// return snapshot structs. Mutating a snapshot does not change the
// configuration; use Set for that.
//
// Environment variables map onto setting paths by section and
// camelCase name, so NOVELSUB_BUS_LOOP_THRESHOLD sets
// bus.loopThreshold. Credentials use the explicit short forms
// NOVELSUB_ANTHROPIC_KEY and NOVELSUB_OPENAI_KEY.
package config
