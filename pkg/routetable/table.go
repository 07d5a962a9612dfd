// Package routetable builds the ordered, scored candidate list for a set of
// endpoints and produces per-request candidate sets from it.
package routetable

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/getmockd/routeset/internal/matching"
	"github.com/getmockd/routeset/pkg/candidate"
	"github.com/getmockd/routeset/pkg/endpoint"
)

// Errors returned by Build.
var (
	ErrDuplicateID = errors.New("duplicate endpoint id")
	ErrNilEndpoint = errors.New("nil endpoint")
)

type entry struct {
	candidate candidate.Candidate
	route     *matching.Route
}

// Table is an immutable route table. It is safe for concurrent use; the
// candidate sets it produces are not.
type Table struct {
	entries    []entry
	candidates []candidate.Candidate
	endpoints  []*endpoint.Endpoint

	// literal is set when every route is an exact path; byPath then holds
	// the precomputed candidates for each path.
	literal bool
	byPath  map[string][]candidate.Candidate
}

// Build compiles the endpoints' routes, orders them by Order and then by
// route precedence, and assigns scores. Endpoints that are equally specific
// share a score; the score increases each time a strictly less specific
// endpoint follows.
func Build(endpoints []*endpoint.Endpoint) (*Table, error) {
	entries := make([]entry, 0, len(endpoints))
	seen := make(map[string]struct{}, len(endpoints))

	for i, ep := range endpoints {
		if ep == nil {
			return nil, fmt.Errorf("%w at index %d", ErrNilEndpoint, i)
		}
		if ep.ID != "" {
			if _, dup := seen[ep.ID]; dup {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateID, ep.ID)
			}
			seen[ep.ID] = struct{}{}
		}

		route, err := matching.CompileRoute(ep.Path, ep.PathPattern)
		if err != nil {
			return nil, fmt.Errorf("endpoint %s: %w", ep, err)
		}
		entries = append(entries, entry{
			candidate: candidate.Candidate{Endpoint: ep},
			route:     route,
		})
	}

	slices.SortStableFunc(entries, compareEntries)

	t := &Table{
		entries:    entries,
		candidates: make([]candidate.Candidate, len(entries)),
		endpoints:  make([]*endpoint.Endpoint, len(entries)),
		literal:    true,
		byPath:     make(map[string][]candidate.Candidate),
	}

	score := 0
	for i := range entries {
		if i > 0 && compareEntries(entries[i-1], entries[i]) != 0 {
			score++
		}
		entries[i].candidate.Score = score
		t.candidates[i] = entries[i].candidate
		t.endpoints[i] = entries[i].candidate.Endpoint

		if entries[i].route.Literal() {
			path := entries[i].route.Template
			t.byPath[path] = append(t.byPath[path], entries[i].candidate)
		} else {
			t.literal = false
		}
	}

	return t, nil
}

func compareEntries(a, b entry) int {
	if c := cmp.Compare(a.candidate.Endpoint.Order, b.candidate.Endpoint.Order); c != 0 {
		return c
	}
	return matching.ComparePrecedence(a.route, b.route)
}

// Candidates returns the ordered candidate list. The slice is shared and
// must not be modified.
func (t *Table) Candidates() []candidate.Candidate {
	return t.candidates
}

// Endpoints returns the endpoints in candidate order. The slice is shared
// and must not be modified.
func (t *Table) Endpoints() []*endpoint.Endpoint {
	return t.endpoints
}

// Len returns the number of endpoints in the table.
func (t *Table) Len() int {
	return len(t.entries)
}

// Lookup returns a fresh candidate set holding, in table order, every
// endpoint whose route matches path. Route parameters captured by the match
// become the candidate's values.
func (t *Table) Lookup(path string) (*candidate.Set, error) {
	if t.literal {
		return candidate.New(t.byPath[path]), nil
	}

	var (
		eps    []*endpoint.Endpoint
		values []endpoint.Values
		scores []int
	)
	for i := range t.entries {
		e := &t.entries[i]
		captures, ok := e.route.Match(path)
		if !ok {
			continue
		}

		var v endpoint.Values
		if len(captures) > 0 {
			v = make(endpoint.Values, len(captures))
			for k, s := range captures {
				v[k] = s
			}
		}
		eps = append(eps, e.candidate.Endpoint)
		values = append(values, v)
		scores = append(scores, e.candidate.Score)
	}
	return candidate.NewFromParallel(eps, values, scores)
}

// Kind describes how the route at candidate position i matches paths:
// "exact", "pattern", "named" or "wildcard".
func (t *Table) Kind(i int) string {
	return t.entries[i].route.Kind.String()
}

// Suggest returns up to n endpoints whose path templates are close to path
// by edit distance, nearest first. Routes that already match path and regex
// routes are never suggested.
func (t *Table) Suggest(path string, n int) []*endpoint.Endpoint {
	templates := make([]string, len(t.entries))
	for i, e := range t.entries {
		if e.route.Kind == matching.KindPattern {
			continue
		}
		if _, ok := e.route.Match(path); ok {
			continue
		}
		templates[i] = e.candidate.Endpoint.Path
	}

	misses := matching.NearMisses(path, templates, n)
	out := make([]*endpoint.Endpoint, len(misses))
	for i, m := range misses {
		out[i] = t.entries[m.Index].candidate.Endpoint
	}
	return out
}
