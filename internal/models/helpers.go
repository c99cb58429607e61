// Package models defines data structures for the board conversation service.
package models

import "strings"

// MergeFlags returns the set union of current and added feature flags.
// Existing flags keep their order, new ones are appended in the order given.
// Blank entries and duplicates are dropped. The second result reports
// whether any flag was added.
func MergeFlags(current, added []string) ([]string, bool) {
	merged := make([]string, 0, len(current)+len(added))
	seen := make(map[string]bool, len(current)+len(added))
	for _, f := range current {
		f = strings.TrimSpace(f)
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		merged = append(merged, f)
	}
	base := len(merged)
	for _, f := range added {
		f = strings.TrimSpace(f)
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		merged = append(merged, f)
	}
	return merged, len(merged) > base
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
