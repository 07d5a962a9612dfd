// Package flags provides flag types for CLI commands.
package flags

import (
	"net/http"
	"slices"
	"strings"

	"github.com/getmockd/routeset/pkg/cli/internal/parse"
)

// Header collects repeatable "-H 'Name: value'" flags into an http.Header.
// Malformed values are rejected when the flag is parsed. Values are not split
// on commas.
type Header struct {
	header http.Header
	lines  []string
}

func (h *Header) String() string {
	return strings.Join(h.lines, ", ")
}

func (h *Header) Set(value string) error {
	parsed, err := parse.Header([]string{value})
	if err != nil {
		return err
	}
	if h.header == nil {
		h.header = make(http.Header)
	}
	for k, v := range parsed {
		h.header[k] = append(h.header[k], v...)
	}
	h.lines = append(h.lines, value)
	return nil
}

func (h *Header) Type() string {
	return "header"
}

// Header returns a copy of the collected headers. It is never nil.
func (h *Header) Header() http.Header {
	out := make(http.Header, len(h.header))
	for k, v := range h.header {
		out[k] = slices.Clone(v)
	}
	return out
}
