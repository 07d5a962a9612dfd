package policy

import (
	"fmt"
	"maps"

	"github.com/getmockd/routeset/internal/matching"
	"github.com/getmockd/routeset/pkg/candidate"
	"github.com/getmockd/routeset/pkg/endpoint"
)

// JSONPathPolicy matches candidates' BodyJSONPath conditions against the
// JSON request body. Values extracted by the conditions are added to the
// candidate's values under sanitized keys ("$.user.id" becomes "user_id").
type JSONPathPolicy struct {
	matchers map[*endpoint.Endpoint]*matching.JSONPathMatcher
}

// NewJSONPathPolicy creates a JSONPath policy.
func NewJSONPathPolicy() *JSONPathPolicy {
	return &JSONPathPolicy{}
}

func (p *JSONPathPolicy) Name() string { return "jsonpath" }
func (p *JSONPathPolicy) Order() int   { return OrderJSONPath }

func (p *JSONPathPolicy) AppliesTo(endpoints []*endpoint.Endpoint) bool {
	return anyEndpoint(endpoints, func(ep *endpoint.Endpoint) bool {
		return len(ep.Metadata.BodyJSONPath) > 0
	})
}

// Prepare compiles the JSONPath expressions of every endpoint.
func (p *JSONPathPolicy) Prepare(endpoints []*endpoint.Endpoint) error {
	p.matchers = make(map[*endpoint.Endpoint]*matching.JSONPathMatcher)
	for _, ep := range endpoints {
		if ep == nil || len(ep.Metadata.BodyJSONPath) == 0 {
			continue
		}
		m, err := matching.CompileJSONPath(ep.Metadata.BodyJSONPath)
		if err != nil {
			return fmt.Errorf("endpoint %s: %w", ep, err)
		}
		p.matchers[ep] = m
	}
	return nil
}

func (p *JSONPathPolicy) Apply(r *Request, set *candidate.Set) error {
	for i, st := range set.All() {
		if !st.Valid() {
			continue
		}
		m, ok := p.matchers[st.Endpoint]
		if !ok {
			continue
		}

		data, _ := r.JSON()
		extracted, ok := m.Match(data)
		if !ok {
			if err := set.SetValidity(i, false); err != nil {
				return err
			}
			continue
		}
		if len(extracted) > 0 {
			// Values may be shared with other candidates.
			v := st.Values.Clone()
			maps.Copy(v, extracted)
			st.Values = v
		}
	}
	return nil
}
