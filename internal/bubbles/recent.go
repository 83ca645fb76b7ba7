package bubbles

import "strings"

// RecentCapacity bounds the non-repeat window.
const RecentCapacity = 8

// Recent holds the most recently emitted texts, oldest first.
type Recent []string

// Remember returns a new window with text appended, keeping the last
// RecentCapacity entries. Blank text leaves the window unchanged.
func (r Recent) Remember(text string) Recent {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return r
	}

	next := make(Recent, 0, len(r)+1)
	next = append(next, r...)
	next = append(next, trimmed)
	if len(next) > RecentCapacity {
		next = next[len(next)-RecentCapacity:]
	}
	return next
}

// Contains reports whether the trimmed text is in the window.
func (r Recent) Contains(text string) bool {
	trimmed := strings.TrimSpace(text)
	for _, seen := range r {
		if seen == trimmed {
			return true
		}
	}
	return false
}
