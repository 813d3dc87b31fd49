// Package notifications delivers operational events to an ntfy topic.
//
// When no topic is configured NewService returns a no-op implementation, so
// callers publish unconditionally. Notification failures are returned to
// the caller for logging and never affect item state.
package notifications
