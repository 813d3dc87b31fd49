package api

import (
	"cmp"
	"slices"
	"time"
)

// SortItemsNewestFirst returns a copy of items ordered by creation time,
// newest first. Items created in the same millisecond fall back to ID.
func SortItemsNewestFirst(items []Item) []Item {
	if len(items) == 0 {
		return nil
	}
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b Item) int {
		if c := ParseTime(b.CreatedAt).Compare(ParseTime(a.CreatedAt)); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return sorted
}

// ParseTime reads a timestamp rendered by this package. Unparseable or
// empty values yield the zero time.
func ParseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	// RFC3339 parsing accepts fractional seconds, so one layout covers
	// both the millisecond DTO format and plain RFC3339 input.
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
