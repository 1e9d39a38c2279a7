// Package state persists per-video lifecycle records in a JSON execution
// log. The store is the source of truth for resumability: every stage
// transition is written through an atomic replace so a crash never leaves a
// corrupt or half-written log, and a rerun picks up exactly where the
// previous run stopped.
package state
