package matching

import (
	"net/http"
	"net/url"
	"strings"
)

// MatchMethod reports whether the request method is one of allowed.
// Comparison is case-insensitive. An empty list allows every method.
func MatchMethod(allowed []string, method string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, m := range allowed {
		if m == "*" || strings.EqualFold(m, method) {
			return true
		}
	}
	return false
}

// MatchHeaders reports whether every expected header matches.
// Header names are case-insensitive; values may use wildcards, see
// MatchHeaderPattern.
func MatchHeaders(expected map[string]string, headers http.Header) bool {
	for name, pattern := range expected {
		if !MatchHeaderPattern(name, pattern, headers) {
			return false
		}
	}
	return true
}

// MatchHeaderPattern checks if a header matches a pattern.
// Supports exact values, prefix (value*), suffix (*value) and contains
// (*value*) patterns. A lone "*" only requires the header to be present.
func MatchHeaderPattern(name, pattern string, headers http.Header) bool {
	actual := headers.Get(name)
	if actual == "" {
		return false
	}

	hasPrefix := strings.HasPrefix(pattern, "*")
	hasSuffix := strings.HasSuffix(pattern, "*")

	switch {
	case pattern == "*":
		return true
	case !strings.Contains(pattern, "*"):
		return actual == pattern
	case hasSuffix && !hasPrefix:
		return strings.HasPrefix(actual, strings.TrimSuffix(pattern, "*"))
	case hasPrefix && !hasSuffix:
		return strings.HasSuffix(actual, strings.TrimPrefix(pattern, "*"))
	case hasPrefix && hasSuffix:
		return strings.Contains(actual, strings.Trim(pattern, "*"))
	}
	return false
}

// MatchQueryParams reports whether every expected query parameter has the
// expected value. A value of "*" only requires presence.
func MatchQueryParams(expected map[string]string, params url.Values) bool {
	for name, value := range expected {
		if value == "*" {
			if _, ok := params[name]; !ok {
				return false
			}
			continue
		}
		if params.Get(name) != value {
			return false
		}
	}
	return true
}
