// Package parse provides string parsing utilities for CLI commands.
package parse

import (
	"fmt"
	"net/http"
	"strings"
)

// KeyValue parses a "key:value" or "key=value" string.
// If delimiters are provided, uses the first one found; otherwise defaults to ':'.
// Returns the key, value, and a boolean indicating success.
func KeyValue(s string, delimiters ...rune) (key, value string, ok bool) {
	if len(delimiters) == 0 {
		delimiters = []rune{':'}
	}

	for i, c := range s {
		for _, d := range delimiters {
			if c == d {
				return s[:i], s[i+1:], true
			}
		}
	}
	return "", "", false
}

// Header parses "-H" style "Name: value" strings into an http.Header.
// Values are trimmed; repeated names accumulate.
func Header(lines []string) (http.Header, error) {
	h := make(http.Header, len(lines))
	for _, line := range lines {
		key, value, ok := KeyValue(line, ':')
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid header %q, expected \"Name: value\"", line)
		}
		h.Add(key, strings.TrimSpace(value))
	}
	return h, nil
}
