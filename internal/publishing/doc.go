// Package publishing delivers generated posts to the configured channel.
//
// Items in post_generated and publish_failed are both eligible, so a failed
// delivery is attempted again on the next cycle. Delivery is at-least-once:
// a crash after a successful send but before the status update sends the
// post again.
package publishing
