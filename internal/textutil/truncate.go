package textutil

import "unicode/utf8"

// Truncate returns the first max runes of value. The cut point depends only
// on the input, so the same text always truncates the same way. A max <= 0
// disables truncation.
func Truncate(value string, max int) (string, bool) {
	if max <= 0 || utf8.RuneCountInString(value) <= max {
		return value, false
	}
	count := 0
	for i := range value {
		if count == max {
			return value[:i], true
		}
		count++
	}
	return value, false
}
