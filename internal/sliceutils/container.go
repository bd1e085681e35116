package sliceutils

import "strings"

// Contains reports whether item is in slice, ignoring case
func Contains(slice []string, item string) bool {
	return IndexFold(slice, item) >= 0
}

// IndexFold returns the index of the first case-insensitive match of item
// in slice, or -1 if there is none.
func IndexFold(slice []string, item string) int {
	for i, s := range slice {
		if strings.EqualFold(s, item) {
			return i
		}
	}
	return -1
}
