// Package preflight provides readiness checks for the filesystem paths and
// external services pressline depends on.
//
// The daemon runs RunAll at startup and logs every failed check so a
// misconfigured key or full disk shows up before the first cycle. The CLI
// "health" command renders the same results as a table.
//
// Each check is gated by its config toggle; disabled features are skipped.
package preflight
