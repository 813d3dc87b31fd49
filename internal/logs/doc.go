// Package logs tails and filters the daemon's JSON log files.
//
// Tail reads the last N lines or everything after a saved offset and can
// poll for new lines in follow mode. Filter selects records by level, stage,
// item or cycle so `pressline logs` can narrow a busy log to one item's
// journey through the pipeline.
package logs
