// Package services defines shared utilities consumed by the pipeline stage
// processors and their external collaborators.
//
// Key responsibilities:
//   - Context helpers that stamp work item IDs, stage names, and cycle
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper so stage failures carry a
//     classification (transient, rate limit, soft) through to the work store.
//   - FailureMessage, which renders the bounded error text persisted as an
//     item's last error.
//
// Use these helpers when wiring new stage logic so failure handling and
// observability stay uniform across the pipeline.
package services
