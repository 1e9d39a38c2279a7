// Package logging configures slog-based logging for the pipeline.
//
// It provides logger construction from config (console or JSON handlers,
// optional log file), attribute helpers, standardized field keys, and
// context-derived fields so stages log the active video identifier, stage,
// source, and run correlation identifier without threading them manually.
package logging
