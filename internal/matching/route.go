package matching

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Kind classifies a route template by how it matches paths.
type Kind int

// Route kinds, from most to least specific.
const (
	KindExact Kind = iota
	KindPattern
	KindNamed
	KindWildcard
)

func (k Kind) String() string {
	switch k {
	case KindExact:
		return "exact"
	case KindPattern:
		return "pattern"
	case KindNamed:
		return "named"
	case KindWildcard:
		return "wildcard"
	default:
		return "unknown"
	}
}

// ErrInvalidRoute is returned by CompileRoute for unusable templates.
var ErrInvalidRoute = errors.New("invalid route")

type segmentKind int

// Segment kinds in precedence order.
const (
	segLiteral segmentKind = iota
	segGlob
	segParam
	segWildcard
)

type segment struct {
	kind  segmentKind
	value string // literal text, glob pattern or parameter name
}

// Route is a compiled route template. Routes are immutable and safe for
// concurrent use.
type Route struct {
	// Template is the original path or regex.
	Template string
	Kind     Kind

	segments []segment
	re       *regexp.Regexp
}

// CompileRoute compiles either a path template or a regex path pattern.
// Exactly one of path and pattern must be set.
//
// Path templates are made of "/"-separated segments, each one of:
//   - literal text: "users"
//   - a named parameter: "{id}"
//   - a single-segment wildcard: "*", or a trailing "*" matching the rest
//   - a glob within a segment: "*.json"
func CompileRoute(path, pattern string) (*Route, error) {
	switch {
	case path != "" && pattern != "":
		return nil, fmt.Errorf("%w: path and pathPattern are mutually exclusive", ErrInvalidRoute)
	case pattern != "":
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: pathPattern %q: %w", ErrInvalidRoute, pattern, err)
		}
		return &Route{Template: pattern, Kind: KindPattern, re: re}, nil
	case path == "":
		return nil, fmt.Errorf("%w: path or pathPattern is required", ErrInvalidRoute)
	}

	if !strings.HasPrefix(path, "/") {
		return nil, fmt.Errorf("%w: path %q must start with /", ErrInvalidRoute, path)
	}

	r := &Route{Template: path, Kind: KindExact}
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return r, nil
	}

	for part := range strings.SplitSeq(trimmed, "/") {
		seg, err := parseSegment(part)
		if err != nil {
			return nil, fmt.Errorf("%w: path %q: %w", ErrInvalidRoute, path, err)
		}
		r.segments = append(r.segments, seg)
		switch seg.kind {
		case segParam:
			r.Kind = max(r.Kind, KindNamed)
		case segGlob, segWildcard:
			r.Kind = KindWildcard
		}
	}
	return r, nil
}

func parseSegment(part string) (segment, error) {
	switch {
	case part == "":
		return segment{}, errors.New("empty segment")
	case part == "*":
		return segment{kind: segWildcard}, nil
	case strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}"):
		name := part[1 : len(part)-1]
		if name == "" || strings.ContainsAny(name, "{}*") {
			return segment{}, fmt.Errorf("bad parameter %q", part)
		}
		return segment{kind: segParam, value: name}, nil
	case strings.ContainsAny(part, "{}"):
		return segment{}, fmt.Errorf("parameter must span the whole segment: %q", part)
	case strings.Contains(part, "*"):
		if !doublestar.ValidatePattern(part) {
			return segment{}, fmt.Errorf("bad glob %q", part)
		}
		return segment{kind: segGlob, value: part}, nil
	default:
		return segment{kind: segLiteral, value: part}, nil
	}
}

// Literal reports whether the route only matches its own template verbatim.
func (r *Route) Literal() bool {
	return r.Kind == KindExact
}

// Match reports whether path matches the route and returns any captured
// values: named parameters by name, regex named groups by name, and
// wildcard segments by position ("0", "1", ...). Captures are nil when the
// route captures nothing.
func (r *Route) Match(path string) (map[string]string, bool) {
	switch r.Kind {
	case KindExact:
		return nil, path == r.Template
	case KindPattern:
		return r.matchPattern(path)
	default:
		return r.matchSegments(path)
	}
}

func (r *Route) matchPattern(path string) (map[string]string, bool) {
	match := r.re.FindStringSubmatch(path)
	if match == nil {
		return nil, false
	}

	var captures map[string]string
	for i, name := range r.re.SubexpNames() {
		if i == 0 || name == "" || i >= len(match) {
			continue
		}
		if captures == nil {
			captures = make(map[string]string)
		}
		captures[name] = match[i]
	}
	return captures, true
}

func (r *Route) matchSegments(path string) (map[string]string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) == 1 && parts[0] == "" {
		parts = parts[:0]
	}

	last := len(r.segments) - 1
	trailingWildcard := last >= 0 && r.segments[last].kind == segWildcard

	switch {
	case trailingWildcard && len(parts) < last:
		return nil, false
	case !trailingWildcard && len(parts) != len(r.segments):
		return nil, false
	}

	var captures map[string]string
	capture := func(k, v string) {
		if captures == nil {
			captures = make(map[string]string)
		}
		captures[k] = v
	}

	wildcards := 0
	for i, seg := range r.segments {
		if i == last && trailingWildcard {
			capture(strconv.Itoa(wildcards), strings.Join(parts[i:], "/"))
			break
		}

		part := parts[i]
		switch seg.kind {
		case segLiteral:
			if part != seg.value {
				return nil, false
			}
		case segParam:
			capture(seg.value, part)
		case segWildcard:
			capture(strconv.Itoa(wildcards), part)
			wildcards++
		case segGlob:
			if ok, _ := doublestar.Match(seg.value, part); !ok {
				return nil, false
			}
		}
	}
	return captures, true
}
