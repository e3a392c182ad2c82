package query

import "strings"

// Wildcard is the multi-character wildcard of a field pattern.
const Wildcard = "%"

// Matches reports whether value satisfies pattern.
//
// A leading "=" asks for a case-insensitive exact match of the rest of the pattern.
// Otherwise "%" matches any run of characters; a pattern without "%" is a
// case-insensitive substring test. An empty value never matches a non-empty pattern.
func Matches(pattern, value string) bool {
	if value == "" {
		return pattern == ""
	}

	if exact, ok := strings.CutPrefix(pattern, "="); ok {
		return strings.EqualFold(exact, value)
	}

	p := strings.ToLower(pattern)
	v := strings.ToLower(value)

	if !strings.Contains(p, Wildcard) {
		return strings.Contains(v, p)
	}

	segments := strings.Split(p, Wildcard)
	initial := segments[0]
	final := segments[len(segments)-1]
	middle := segments[1 : len(segments)-1]

	if !strings.HasPrefix(v, initial) {
		return false
	}
	pos := len(initial)

	for _, part := range middle {
		if part == "" {
			continue
		}
		idx := strings.Index(v[pos:], part)
		if idx < 0 {
			return false
		}
		pos += idx + len(part)
	}

	return strings.HasSuffix(v[pos:], final)
}

// containsFold reports whether term is a case-insensitive substring of value.
func containsFold(value, term string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(term))
}
