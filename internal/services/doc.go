// Package services defines shared utilities consumed by the pipeline stages
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp video identifiers, stage names, sources, and
//     run correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent pipeline outcomes (fatal vs per-video).
//
// Use these helpers when wiring new stage logic so operational behaviour
// (error handling, observability) stays uniform across the pipeline.
package services
