// Package policy implements the matching policies that narrow a candidate
// set down to the endpoints eligible for a request.
//
// Policies run in ascending Order. Each one sees the cumulative effect of
// the policies before it and may invalidate candidates, replace them, or fan
// a candidate out into several. Policies skip candidates that are already
// invalid.
//
// A policy instance is shared by every request routed through a pipeline, so
// Apply must not mutate policy state. Work that depends only on the route
// table (compiling expressions, parsing JSONPath) belongs in Prepare.
package policy

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/getmockd/routeset/pkg/candidate"
	"github.com/getmockd/routeset/pkg/endpoint"
	"github.com/getmockd/routeset/pkg/logging"
)

// Policy is a single matching policy.
type Policy interface {
	// Name identifies the policy in logs and errors.
	Name() string

	// Order positions the policy in the pipeline. Lower runs first.
	Order() int

	// AppliesTo reports whether any of the endpoints carries metadata the
	// policy acts on. Policies that do not apply are left out of the
	// pipeline.
	AppliesTo(endpoints []*endpoint.Endpoint) bool

	// Apply narrows set for the request.
	Apply(r *Request, set *candidate.Set) error
}

// Expander is implemented by policies that insert candidates into the set.
// After an expander inserts any, the pipeline runs the policies ordered
// before it again, so inserted candidates are held to their own conditions.
// Those policies must give the same verdict when run twice on a candidate.
type Expander interface {
	Expand(r *Request, set *candidate.Set) (inserted bool, err error)
}

// Preparer is implemented by policies that precompute per-endpoint state.
// Prepare is called once, before the first Apply.
type Preparer interface {
	Prepare(endpoints []*endpoint.Endpoint) error
}

// Pipeline runs policies in order against a candidate set.
type Pipeline struct {
	policies []Policy
	log      *slog.Logger
}

// NewPipeline keeps the policies that apply to endpoints, prepares them and
// sorts them by Order. Policies with equal Order keep their given order.
// endpoints must include every endpoint a candidate set may hold, fan-out
// targets included, since targets are checked against their own conditions
// once inserted.
func NewPipeline(endpoints []*endpoint.Endpoint, log *slog.Logger, policies ...Policy) (*Pipeline, error) {
	if log == nil {
		log = logging.Nop()
	}

	p := &Pipeline{log: log}
	for _, pol := range policies {
		if !pol.AppliesTo(endpoints) {
			continue
		}
		if prep, ok := pol.(Preparer); ok {
			if err := prep.Prepare(endpoints); err != nil {
				return nil, fmt.Errorf("prepare %s policy: %w", pol.Name(), err)
			}
		}
		p.policies = append(p.policies, pol)
	}

	slices.SortStableFunc(p.policies, func(a, b Policy) int {
		return a.Order() - b.Order()
	})
	return p, nil
}

// Policies returns the active policies in execution order.
func (p *Pipeline) Policies() []Policy {
	return p.policies
}

// Apply runs every policy against set. It stops early once no candidate is
// valid.
func (p *Pipeline) Apply(r *Request, set *candidate.Set) error {
	for i, pol := range p.policies {
		if !hasValid(set) {
			return nil
		}

		exp, ok := pol.(Expander)
		if !ok {
			if err := p.apply(r, set, pol); err != nil {
				return err
			}
			continue
		}

		inserted, err := exp.Expand(r, set)
		if err != nil {
			return fmt.Errorf("%s policy: %w", pol.Name(), err)
		}
		p.logApplied(r, set, pol)
		if !inserted {
			continue
		}
		for _, prev := range p.policies[:i] {
			if _, ok := prev.(Expander); ok || !hasValid(set) {
				continue
			}
			if err := p.apply(r, set, prev); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Pipeline) apply(r *Request, set *candidate.Set, pol Policy) error {
	if err := pol.Apply(r, set); err != nil {
		return fmt.Errorf("%s policy: %w", pol.Name(), err)
	}
	p.logApplied(r, set, pol)
	return nil
}

func (p *Pipeline) logApplied(r *Request, set *candidate.Set, pol Policy) {
	if p.log.Enabled(r.Context(), slog.LevelDebug) {
		p.log.Debug("policy applied",
			"policy", pol.Name(),
			"candidates", set.Count(),
			"valid", countValid(set),
		)
	}
}

func hasValid(set *candidate.Set) bool {
	for _, st := range set.All() {
		if st.Valid() {
			return true
		}
	}
	return false
}

func countValid(set *candidate.Set) int {
	n := 0
	for _, st := range set.All() {
		if st.Valid() {
			n++
		}
	}
	return n
}

// filter invalidates every valid candidate for which keep returns false.
func filter(set *candidate.Set, keep func(st *candidate.State) bool) error {
	for i, st := range set.All() {
		if !st.Valid() || keep(st) {
			continue
		}
		if err := set.SetValidity(i, false); err != nil {
			return err
		}
	}
	return nil
}

func anyEndpoint(endpoints []*endpoint.Endpoint, pred func(*endpoint.Endpoint) bool) bool {
	return slices.ContainsFunc(endpoints, func(ep *endpoint.Endpoint) bool {
		return ep != nil && pred(ep)
	})
}
