package policy

import (
	"fmt"

	"github.com/getmockd/routeset/pkg/candidate"
	"github.com/getmockd/routeset/pkg/endpoint"
)

// Resolver expands an endpoint into the endpoints that replace it.
type Resolver interface {
	// Resolve returns the replacement endpoints. ok is false if the
	// endpoint has a fan-out that cannot be resolved.
	Resolve(ep *endpoint.Endpoint) (targets []*endpoint.Endpoint, ok bool)
}

// StaticResolver resolves FanOut IDs through a fixed set of endpoints.
type StaticResolver map[string]*endpoint.Endpoint

// NewStaticResolver indexes endpoints by ID.
func NewStaticResolver(endpoints []*endpoint.Endpoint) StaticResolver {
	r := make(StaticResolver, len(endpoints))
	for _, ep := range endpoints {
		if ep != nil && ep.ID != "" {
			r[ep.ID] = ep
		}
	}
	return r
}

// Resolve looks up every ID in ep.Metadata.FanOut.
func (r StaticResolver) Resolve(ep *endpoint.Endpoint) ([]*endpoint.Endpoint, bool) {
	ids := ep.Metadata.FanOut
	targets := make([]*endpoint.Endpoint, 0, len(ids))
	for _, id := range ids {
		t, ok := r[id]
		if !ok {
			return nil, false
		}
		targets = append(targets, t)
	}
	return targets, true
}

// FanOutPolicy replaces each valid candidate that declares a FanOut with
// the resolved target endpoints. The targets take the replaced candidate's
// position and score and share its values. Targets are not expanded again.
//
// The source candidate's conditions decide whether it is expanded at all.
// FanOutPolicy is an Expander, so in a pipeline the targets are then checked
// against their own conditions.
type FanOutPolicy struct {
	resolver Resolver
}

// NewFanOutPolicy creates a fan-out policy.
func NewFanOutPolicy(resolver Resolver) *FanOutPolicy {
	return &FanOutPolicy{resolver: resolver}
}

func (p *FanOutPolicy) Name() string { return "fanout" }
func (p *FanOutPolicy) Order() int   { return OrderFanOut }

func (p *FanOutPolicy) AppliesTo(endpoints []*endpoint.Endpoint) bool {
	return anyEndpoint(endpoints, func(ep *endpoint.Endpoint) bool {
		return len(ep.Metadata.FanOut) > 0
	})
}

func (p *FanOutPolicy) Apply(r *Request, set *candidate.Set) error {
	_, err := p.Expand(r, set)
	return err
}

// Expand replaces every fan-out candidate and reports whether any target was
// inserted.
func (p *FanOutPolicy) Expand(_ *Request, set *candidate.Set) (bool, error) {
	inserted := false
	for i := 0; i < set.Count(); {
		st, err := set.At(i)
		if err != nil {
			return inserted, err
		}
		if !st.Valid() || len(st.Endpoint.Metadata.FanOut) == 0 {
			i++
			continue
		}

		targets, ok := p.resolver.Resolve(st.Endpoint)
		if !ok {
			return inserted, fmt.Errorf("endpoint %s: unresolved fan-out %v", st.Endpoint, st.Endpoint.Metadata.FanOut)
		}

		// st is stale once the splice below grows the set.
		if err := set.ReplaceWithList(i, targets, st.Values); err != nil {
			return inserted, err
		}
		inserted = inserted || len(targets) > 0
		i += max(len(targets), 1)
	}
	return inserted, nil
}
