// Package queue is the work store: it persists one row per source article in
// SQLite and owns every status transition an article goes through.
//
// Rows are keyed by source URL, so inserting a URL that already exists is a
// no-op. Transitions are guarded in SQL: an UPDATE only matches when the row
// is still in one of the statuses allowed to precede the target, which keeps
// concurrent stage runs from stepping on each other. At most one row may be
// in the selected status at a time; a partial unique index backs that rule
// so even a buggy caller cannot break it.
//
// The database is transient pipeline state rather than an archive. Schema
// changes bump schemaVersion in schema.go; operators delete the database to
// adopt a new schema.
package queue
