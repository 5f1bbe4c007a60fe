// Package assignment mutates a participant's claimed-quantity map. Adjust is
// the only mutation path for assignments, so the "no stored quantity below
// one" invariant lives entirely here.
package assignment

// Adjust returns a copy of assignments with the claim on itemID moved by
// delta. When the resulting quantity drops to zero or below, the key is
// removed entirely rather than stored at zero. The input map is never
// modified, so a failed store write leaves the caller's view untouched.
func Adjust(assignments map[string]int, itemID string, delta int) map[string]int {
	next := make(map[string]int, len(assignments)+1)
	for id, q := range assignments {
		next[id] = q
	}

	q := next[itemID] + delta
	if q <= 0 {
		delete(next, itemID)
	} else {
		next[itemID] = q
	}
	return next
}

// Prune drops non-positive entries from assignments in place and returns it.
// Stored maps are kept clean by Adjust; Prune guards reads from a store
// snapshot that predates that guarantee.
func Prune(assignments map[string]int) map[string]int {
	for id, q := range assignments {
		if q <= 0 {
			delete(assignments, id)
		}
	}
	return assignments
}
