// Package main hosts the pressline CLI entrypoint and command graph.
//
// The Cobra command tree runs the daemon, drives one-shot pipeline cycles
// and single stages, inspects and retries work items straight from the work
// store, and scaffolds configuration. One-shot commands take the same flock
// as the daemon so a manual cycle never races the scheduled one.
package main
