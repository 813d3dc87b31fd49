// Package stage defines the contract every pipeline stage processor
// implements and the shared pieces they are built from: per-item outcomes,
// the aggregated run report, failure recording against the work store, and
// prompt filling.
package stage
