// Package daemon coordinates the long-running pressline process.
//
// It wires configuration, the work store, the document store and the
// workflow manager into a single lifecycle with flock-based locking so two
// runners never share a data directory. When an API bind address is
// configured it also serves a read-only JSON API (status, health, items)
// over chi, optionally guarded by a bearer token.
//
// Keep orchestration logic here: pipeline steps live in their stage
// packages while the daemon focuses on startup, shutdown, and exposure.
package daemon
