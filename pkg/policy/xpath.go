package policy

import (
	"fmt"

	"github.com/getmockd/routeset/internal/matching"
	"github.com/getmockd/routeset/pkg/candidate"
	"github.com/getmockd/routeset/pkg/endpoint"
)

// XPathPolicy matches candidates' BodyXPath conditions against an XML
// request body. A body that is not XML fails every condition.
type XPathPolicy struct {
	matchers map[*endpoint.Endpoint]*matching.XPathMatcher
}

// NewXPathPolicy creates an XPath policy.
func NewXPathPolicy() *XPathPolicy {
	return &XPathPolicy{}
}

func (p *XPathPolicy) Name() string { return "xpath" }
func (p *XPathPolicy) Order() int   { return OrderXPath }

func (p *XPathPolicy) AppliesTo(endpoints []*endpoint.Endpoint) bool {
	return anyEndpoint(endpoints, func(ep *endpoint.Endpoint) bool {
		return len(ep.Metadata.BodyXPath) > 0
	})
}

// Prepare compiles the XPath expressions of every endpoint.
func (p *XPathPolicy) Prepare(endpoints []*endpoint.Endpoint) error {
	p.matchers = make(map[*endpoint.Endpoint]*matching.XPathMatcher)
	for _, ep := range endpoints {
		if ep == nil || len(ep.Metadata.BodyXPath) == 0 {
			continue
		}
		m, err := matching.CompileXPath(ep.Metadata.BodyXPath)
		if err != nil {
			return fmt.Errorf("endpoint %s: %w", ep, err)
		}
		p.matchers[ep] = m
	}
	return nil
}

func (p *XPathPolicy) Apply(r *Request, set *candidate.Set) error {
	return filter(set, func(st *candidate.State) bool {
		m, ok := p.matchers[st.Endpoint]
		if !ok {
			return true
		}
		doc, _ := r.XML()
		return m.Match(doc)
	})
}
