package matching

import (
	"bytes"
	"fmt"
	"regexp"
)

// BodyMatcher checks a raw request body against literal and regex
// conditions.
type BodyMatcher struct {
	equals   []byte
	contains []byte
	pattern  *regexp.Regexp
}

// CompileBody builds a matcher. equals takes precedence over contains; a
// non-empty pattern must match as well. It returns nil when no condition is
// set.
func CompileBody(equals, contains, pattern string) (*BodyMatcher, error) {
	if equals == "" && contains == "" && pattern == "" {
		return nil, nil
	}
	m := &BodyMatcher{}
	switch {
	case equals != "":
		m.equals = []byte(equals)
	case contains != "":
		m.contains = []byte(contains)
	}
	if pattern != "" {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid body pattern %q: %w", pattern, err)
		}
		m.pattern = re
	}
	return m, nil
}

// Match reports whether body satisfies every condition. A nil matcher
// matches any body.
func (m *BodyMatcher) Match(body []byte) bool {
	if m == nil {
		return true
	}
	if m.equals != nil && !bytes.Equal(body, m.equals) {
		return false
	}
	if m.contains != nil && !bytes.Contains(body, m.contains) {
		return false
	}
	if m.pattern != nil && !m.pattern.Match(body) {
		return false
	}
	return true
}
