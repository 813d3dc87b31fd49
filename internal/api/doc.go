// Package api defines wire-format types and converters for the HTTP status
// API and the CLI's JSON output. It translates work items, documents and
// workflow status into DTOs that consumers can render without importing the
// internal packages.
//
// DTOs use camelCase JSON tags. Statuses are exposed as their lowercase
// names and timestamps use RFC3339 with milliseconds. Queue stats always
// carry every status, with zero counts included.
package api
