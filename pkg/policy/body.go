package policy

import (
	"fmt"

	"github.com/getmockd/routeset/internal/matching"
	"github.com/getmockd/routeset/pkg/candidate"
	"github.com/getmockd/routeset/pkg/endpoint"
)

// BodyPolicy invalidates candidates whose raw body conditions (BodyEquals,
// BodyContains, BodyPattern) do not hold.
type BodyPolicy struct {
	matchers map[*endpoint.Endpoint]*matching.BodyMatcher
}

// NewBodyPolicy creates a body policy.
func NewBodyPolicy() *BodyPolicy {
	return &BodyPolicy{}
}

func (p *BodyPolicy) Name() string { return "body" }
func (p *BodyPolicy) Order() int   { return OrderBody }

func (p *BodyPolicy) AppliesTo(endpoints []*endpoint.Endpoint) bool {
	return anyEndpoint(endpoints, hasBodyConditions)
}

// Prepare compiles the body patterns of every endpoint.
func (p *BodyPolicy) Prepare(endpoints []*endpoint.Endpoint) error {
	p.matchers = make(map[*endpoint.Endpoint]*matching.BodyMatcher)
	for _, ep := range endpoints {
		if ep == nil || !hasBodyConditions(ep) {
			continue
		}
		md := ep.Metadata
		m, err := matching.CompileBody(md.BodyEquals, md.BodyContains, md.BodyPattern)
		if err != nil {
			return fmt.Errorf("endpoint %s: %w", ep, err)
		}
		p.matchers[ep] = m
	}
	return nil
}

func (p *BodyPolicy) Apply(r *Request, set *candidate.Set) error {
	return filter(set, func(st *candidate.State) bool {
		return p.matchers[st.Endpoint].Match(r.Body)
	})
}

func hasBodyConditions(ep *endpoint.Endpoint) bool {
	md := ep.Metadata
	return md.BodyEquals != "" || md.BodyContains != "" || md.BodyPattern != ""
}
