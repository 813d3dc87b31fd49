// Package workflow runs the pipeline stages as repeated cycles.
//
// A cycle runs fetching, cleaning, summarizing, selection, generation and
// publishing in that order. Each stage sees the work store as the previous
// stage left it. A stage that returns an error or panics is logged and
// reported, the runner pauses for the configured stage error pause, and the
// cycle moves on to the next stage. Per-item failures never reach this
// package as errors; they arrive inside the stage report.
//
// The Manager runs one cycle as soon as it starts and then one per cycle
// interval until stopped. Cycles never overlap: RunCycle and RunStage share
// a lock, so a manual trigger waits for the scheduled cycle to finish.
package workflow
