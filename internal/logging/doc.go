// Package logging assembles the structured slog loggers used across pressline.
//
// It owns the console and JSON handlers, level parsing, and output routing,
// and exposes context-aware helpers so stage code tags log lines with work
// item IDs, stage names, and cycle correlation IDs without repeating itself.
// A no-op logger is provided for tests and for wiring code that must not fail.
package logging
