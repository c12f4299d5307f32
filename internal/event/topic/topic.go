package topic

import "strings"

// Topic is a hierarchical event type using dot notation.
// Examples: "character.updated", "relationship.strengthened", "chapter.written"
type Topic string

// Wildcard constants for subscription patterns.
const (
	// WildcardSingle matches exactly one segment.
	WildcardSingle = "*"

	// WildcardMulti matches zero or more segments.
	WildcardMulti = "**"

	// Separator separates topic segments.
	Separator = "."
)

// String returns the topic as a string.
func (t Topic) String() string {
	return string(t)
}

// Segments returns the topic split by the separator.
func (t Topic) Segments() []string {
	if t == "" {
		return nil
	}
	return strings.Split(string(t), Separator)
}

// Base returns the last segment of the topic.
//
// Example: "relationship.mutual.created" -> "created"
func (t Topic) Base() string {
	s := string(t)
	idx := strings.LastIndex(s, Separator)
	if idx < 0 {
		return s
	}
	return s[idx+1:]
}

// HasPrefix returns true if the topic starts with the given prefix
// on a segment boundary.
//
// Example: "relationship.mutual.created" has prefix "relationship.mutual"
// but not "relationship.mut".
func (t Topic) HasPrefix(prefix Topic) bool {
	if prefix == "" {
		return true
	}
	s := string(t)
	p := string(prefix)
	if !strings.HasPrefix(s, p) {
		return false
	}
	if len(s) == len(p) {
		return true
	}
	return s[len(p)] == '.'
}

// IsWildcard returns true if the topic contains any wildcard characters.
// Wildcard topics are valid subscription patterns but cannot be published.
func (t Topic) IsWildcard() bool {
	return strings.Contains(string(t), WildcardSingle)
}

// IsValid returns true if the topic is well formed.
// A valid topic is non-empty, does not start or end with a separator,
// and contains no empty segments.
func (t Topic) IsValid() bool {
	s := string(t)
	if s == "" {
		return false
	}
	if strings.HasPrefix(s, Separator) || strings.HasSuffix(s, Separator) {
		return false
	}
	if strings.Contains(s, Separator+Separator) {
		return false
	}
	return true
}

// Matches returns true if this topic matches the given pattern.
// The pattern may contain wildcards:
//   - "*" matches exactly one segment
//   - "**" matches zero or more segments
func (t Topic) Matches(pattern Topic) bool {
	return matchSegments(t.Segments(), pattern.Segments())
}

// matchSegments performs recursive pattern matching on topic segments.
func matchSegments(topic, pattern []string) bool {
	ti, pi := 0, 0

	for pi < len(pattern) {
		if pattern[pi] == WildcardMulti {
			// ** matches zero or more segments; try each split point
			for ti <= len(topic) {
				if matchSegments(topic[ti:], pattern[pi+1:]) {
					return true
				}
				ti++
			}
			return false
		}

		if ti >= len(topic) {
			return false
		}

		if pattern[pi] == WildcardSingle || pattern[pi] == topic[ti] {
			ti++
			pi++
		} else {
			return false
		}
	}

	// Pattern consumed - topic must also be consumed
	return ti == len(topic)
}
