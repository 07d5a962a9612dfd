package matching

import "cmp"

// Specificity scores per route kind. Higher is more specific.
const (
	// ScorePathExact is the specificity of a literal path.
	ScorePathExact = 15

	// ScorePathPattern is the specificity of a regex path pattern.
	// Between exact (15) and named params (12).
	ScorePathPattern = 14

	// ScorePathNamedParams is the specificity of a path with named parameters.
	ScorePathNamedParams = 12

	// ScorePathWildcard is the specificity of a wildcard path.
	ScorePathWildcard = 10
)

// Specificity returns the specificity score of the route's kind.
func (r *Route) Specificity() int {
	switch r.Kind {
	case KindExact:
		return ScorePathExact
	case KindPattern:
		return ScorePathPattern
	case KindNamed:
		return ScorePathNamedParams
	default:
		return ScorePathWildcard
	}
}

// class groups kinds whose relative order is fixed regardless of segments:
// literal paths, then regex patterns, then parameterized templates.
func (r *Route) class() int {
	switch r.Kind {
	case KindExact:
		return 0
	case KindPattern:
		return 1
	default:
		return 2
	}
}

// ComparePrecedence orders two routes by specificity. It returns a negative
// number when a should be tried before b, a positive number when after, and
// zero when neither is more specific.
//
// Literal paths come first, then regex patterns, then templates. Templates are
// compared segment by segment (literal, glob, parameter, wildcard); when one
// is a prefix of the other the shorter one wins, so "/files" precedes
// "/files/*".
func ComparePrecedence(a, b *Route) int {
	if c := cmp.Compare(a.class(), b.class()); c != 0 {
		return c
	}
	if a.Kind == KindPattern {
		return 0
	}

	for i := range min(len(a.segments), len(b.segments)) {
		if c := cmp.Compare(a.segments[i].kind, b.segments[i].kind); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a.segments), len(b.segments))
}
