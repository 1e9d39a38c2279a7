// Package config loads, normalizes, and validates Gavel configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// AWS_S3_BUCKET and TELEGRAM_BOT_TOKEN. The Config type centralizes every
// knob the pipeline and CLI need, from archive scraper endpoints to quality
// control thresholds.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
