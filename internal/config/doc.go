// Package config loads, normalizes, and validates pressline configuration.
//
// It supplies defaults for every stage, expands user paths (including tilde
// shortcuts), substitutes %VAR% environment placeholders, reads TOML files,
// and honours environment fallbacks for API credentials. The Config type
// centralizes every knob the runner, the stage processors, and the CLI need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, resolved per-stage models, and clear validation errors.
package config
