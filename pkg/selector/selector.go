// Package selector picks the winning endpoint from a candidate set once all
// policies have run.
package selector

import (
	"errors"
	"fmt"
	"strings"

	"github.com/getmockd/routeset/pkg/candidate"
	"github.com/getmockd/routeset/pkg/endpoint"
)

// ErrNoMatch is returned when no candidate is valid.
var ErrNoMatch = errors.New("no matching endpoint")

// Result is the selected candidate.
type Result struct {
	Endpoint *endpoint.Endpoint
	Values   endpoint.Values
	Score    int

	// Index is the winner's position in the set.
	Index int
}

// AmbiguousMatchError is returned in strict mode when more than one valid
// candidate shares the winning score.
type AmbiguousMatchError struct {
	Score     int
	Endpoints []*endpoint.Endpoint
}

func (e *AmbiguousMatchError) Error() string {
	names := make([]string, len(e.Endpoints))
	for i, ep := range e.Endpoints {
		names[i] = ep.String()
	}
	return fmt.Sprintf("ambiguous match at score %d: %s", e.Score, strings.Join(names, ", "))
}

// Option configures Select.
type Option func(*options)

type options struct {
	strict bool
}

// Strict makes Select fail with *AmbiguousMatchError when the winner's score
// is shared by another valid candidate.
func Strict(strict bool) Option {
	return func(o *options) { o.strict = strict }
}

// Select returns the first valid candidate in position order.
func Select(set *candidate.Set, opts ...Option) (*Result, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var (
		winner *Result
		tied   []*endpoint.Endpoint
	)
	for i, st := range set.All() {
		if !st.Valid() {
			continue
		}
		if winner == nil {
			winner = &Result{Endpoint: st.Endpoint, Values: st.Values, Score: st.Score, Index: i}
			if !o.strict {
				break
			}
			continue
		}
		if st.Score == winner.Score {
			tied = append(tied, st.Endpoint)
		}
	}

	if winner == nil {
		return nil, ErrNoMatch
	}
	if len(tied) > 0 {
		return nil, &AmbiguousMatchError{
			Score:     winner.Score,
			Endpoints: append([]*endpoint.Endpoint{winner.Endpoint}, tied...),
		}
	}
	return winner, nil
}
