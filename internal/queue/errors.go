package queue

import "errors"

var (
	// ErrInvalidTransition is returned when an item is not in a status that
	// may precede the requested one. Callers usually treat it as "another
	// run got there first".
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrSelectionHeld is returned when selecting an item while another
	// item already holds the selection.
	ErrSelectionHeld = errors.New("another item is already selected")

	// ErrItemNotFound is returned by transitions that target a missing id.
	ErrItemNotFound = errors.New("item not found")
)
