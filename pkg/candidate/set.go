package candidate

import (
	"errors"
	"fmt"
	"iter"
	"slices"

	"github.com/getmockd/routeset/pkg/endpoint"
)

// Errors returned by Set operations. Both indicate a caller bug rather than
// bad request data.
var (
	ErrIndexOutOfRange  = errors.New("candidate index out of range")
	ErrArgumentMismatch = errors.New("candidate argument lengths differ")
)

// Candidate is an endpoint paired with its precedence score, as produced by
// a route table. Lower scores take precedence.
type Candidate struct {
	Endpoint *endpoint.Endpoint
	Score    int
}

// State is one slot of a Set.
type State struct {
	// Endpoint is the candidate endpoint; nil marks a tombstone.
	Endpoint *endpoint.Endpoint

	// Values holds parameters captured for this candidate. It may be shared
	// with other slots.
	Values endpoint.Values

	// Score is the precedence score. The set never recomputes it.
	Score int

	valid bool
}

// Valid reports whether the slot is eligible for selection.
func (s *State) Valid() bool {
	return s.valid && s.Endpoint != nil
}

// Set is the ordered, index-addressable working set for one routing attempt.
type Set struct {
	states []State
}

// New creates a set with one valid slot per candidate, in order.
// The candidates slice is not retained or modified.
func New(candidates []Candidate) *Set {
	s := &Set{states: make([]State, len(candidates))}
	for i, c := range candidates {
		s.states[i] = State{Endpoint: c.Endpoint, Score: c.Score, valid: true}
	}
	return s
}

// NewFromParallel creates a set from precomputed parallel slices: slot i gets
// endpoints[i], values[i] and scores[i]. It returns ErrArgumentMismatch if the
// slices differ in length.
func NewFromParallel(endpoints []*endpoint.Endpoint, values []endpoint.Values, scores []int) (*Set, error) {
	if len(values) != len(endpoints) || len(scores) != len(endpoints) {
		return nil, fmt.Errorf("%w: %d endpoints, %d values, %d scores",
			ErrArgumentMismatch, len(endpoints), len(values), len(scores))
	}

	s := &Set{states: make([]State, len(endpoints))}
	for i, ep := range endpoints {
		s.states[i] = State{Endpoint: ep, Values: values[i], Score: scores[i], valid: true}
	}
	return s, nil
}

// Count returns the number of slots.
func (s *Set) Count() int {
	return len(s.states)
}

// At returns a handle to the slot at index i. Writes through the handle are
// visible to later reads. The handle is invalidated by any ReplaceWithList
// call that inserts more than one endpoint.
func (s *Set) At(i int) (*State, error) {
	if err := s.check(i); err != nil {
		return nil, err
	}
	return &s.states[i], nil
}

// Update calls fn with the slot at index i.
func (s *Set) Update(i int, fn func(*State)) error {
	if err := s.check(i); err != nil {
		return err
	}
	fn(&s.states[i])
	return nil
}

// IsValid reports whether the slot at index i is eligible for selection.
// Tombstoned slots are never valid.
func (s *Set) IsValid(i int) (bool, error) {
	if err := s.check(i); err != nil {
		return false, err
	}
	return s.states[i].Valid(), nil
}

// SetValidity sets the validity flag of the slot at index i. The endpoint,
// values and score are left alone, so revalidating a tombstone still reports
// it invalid.
func (s *Set) SetValidity(i int, valid bool) error {
	if err := s.check(i); err != nil {
		return err
	}
	s.states[i].valid = valid
	return nil
}

// Replace overwrites the endpoint and values of the slot at index i and marks
// it valid. A nil endpoint tombstones the slot instead: endpoint and values
// are cleared and the slot becomes invalid. The score is kept either way and
// the count never changes.
func (s *Set) Replace(i int, ep *endpoint.Endpoint, values endpoint.Values) error {
	if err := s.check(i); err != nil {
		return err
	}
	s.replace(i, ep, values)
	return nil
}

// ReplaceWithList replaces the slot at index i with the given endpoints, all
// sharing values. Zero endpoints tombstone the slot and one endpoint behaves
// like Replace. With k > 1 endpoints the slot is spliced out and k valid
// slots inherit its score; later slots shift by k-1.
func (s *Set) ReplaceWithList(i int, eps []*endpoint.Endpoint, values endpoint.Values) error {
	if err := s.check(i); err != nil {
		return err
	}

	switch len(eps) {
	case 0:
		s.replace(i, nil, nil)
		return nil
	case 1:
		s.replace(i, eps[0], values)
		return nil
	}

	score := s.states[i].Score
	n := len(s.states)
	k := len(eps)

	s.states = slices.Grow(s.states, k-1)[:n+k-1]
	copy(s.states[i+k:], s.states[i+1:n])
	for j, ep := range eps {
		s.states[i+j] = State{Endpoint: ep, Values: values, Score: score, valid: true}
	}
	return nil
}

// All iterates over the slots in positional order.
func (s *Set) All() iter.Seq2[int, *State] {
	return func(yield func(int, *State) bool) {
		for i := range s.states {
			if !yield(i, &s.states[i]) {
				return
			}
		}
	}
}

func (s *Set) replace(i int, ep *endpoint.Endpoint, values endpoint.Values) {
	st := &s.states[i]
	if ep == nil {
		st.Endpoint = nil
		st.Values = nil
		st.valid = false
		return
	}
	st.Endpoint = ep
	st.Values = values
	st.valid = true
}

func (s *Set) check(i int) error {
	if i < 0 || i >= len(s.states) {
		return fmt.Errorf("%w: index %d, count %d", ErrIndexOutOfRange, i, len(s.states))
	}
	return nil
}
