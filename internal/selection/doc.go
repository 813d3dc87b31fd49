// Package selection picks the single item to publish next.
//
// All summarized items inside the recency window are offered to the
// generative-text collaborator at once. Its answer is accepted only when it
// names exactly one offered candidate by URL; anything else leaves every
// item where it was until the next cycle. At most one item holds the
// selected status at any time, and the stage does nothing while that slot
// is taken.
package selection
