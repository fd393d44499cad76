// Package dedupe tracks keys that have already been emitted so repeated
// records collapse to their first occurrence.
package dedupe

import "strings"

// keySeparator joins composite key parts; it cannot appear in ids.
const keySeparator = "\x1f"

// Key builds a composite key from its parts. Empty parts are kept so
// ("a", "", "b") and ("a", "b", "") stay distinct.
func Key(parts ...string) string {
	return strings.Join(parts, keySeparator)
}

// Set remembers every key recorded into it. Keys are never evicted, so the
// first occurrence of a key always wins. A Set is not safe for concurrent use.
type Set struct {
	seen map[string]struct{}
}

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{seen: make(map[string]struct{})}
}

// SeenAndRecord reports whether key was already recorded, recording it if not.
func (s *Set) SeenAndRecord(key string) bool {
	if _, ok := s.seen[key]; ok {
		return true
	}
	s.seen[key] = struct{}{}
	return false
}
