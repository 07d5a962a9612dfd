package policy

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/getmockd/routeset/internal/matching"
	"github.com/getmockd/routeset/pkg/candidate"
	"github.com/getmockd/routeset/pkg/endpoint"
)

// Default policy orders.
const (
	OrderHost       = -100
	OrderMethod     = -50
	OrderHeader     = 0
	OrderQuery      = 10
	OrderClaims     = 20
	OrderBody       = 25
	OrderJSONPath   = 30
	OrderXPath      = 32
	OrderGraphQL    = 35
	OrderExpression = 40
	OrderFanOut     = 100
)

// MethodPolicy invalidates candidates whose Methods exclude the request
// method.
type MethodPolicy struct{}

func (MethodPolicy) Name() string { return "method" }
func (MethodPolicy) Order() int   { return OrderMethod }

func (MethodPolicy) AppliesTo(endpoints []*endpoint.Endpoint) bool {
	return anyEndpoint(endpoints, func(ep *endpoint.Endpoint) bool {
		return len(ep.Metadata.Methods) > 0
	})
}

func (MethodPolicy) Apply(r *Request, set *candidate.Set) error {
	method := r.HTTP.Method
	return filter(set, func(st *candidate.State) bool {
		return matching.MatchMethod(st.Endpoint.Metadata.Methods, method)
	})
}

// HostPolicy invalidates candidates whose Hosts patterns do not match the
// request host. Patterns are globs ("*.example.com"); a pattern with a port
// is compared with the host and port, otherwise the port is ignored.
type HostPolicy struct{}

func (HostPolicy) Name() string { return "host" }
func (HostPolicy) Order() int   { return OrderHost }

func (HostPolicy) AppliesTo(endpoints []*endpoint.Endpoint) bool {
	return anyEndpoint(endpoints, func(ep *endpoint.Endpoint) bool {
		return len(ep.Metadata.Hosts) > 0
	})
}

func (HostPolicy) Apply(r *Request, set *candidate.Set) error {
	host, hostPort := r.Host(), r.HostPort()
	return filter(set, func(st *candidate.State) bool {
		return MatchHost(st.Endpoint.Metadata.Hosts, host, hostPort)
	})
}

// MatchHost reports whether any pattern matches. An empty pattern list
// matches every host.
func MatchHost(patterns []string, host, hostPort string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, p := range patterns {
		p = strings.ToLower(p)
		target := host
		if strings.Contains(p, ":") {
			target = hostPort
		}
		if ok, err := doublestar.Match(p, target); err == nil && ok {
			return true
		}
	}
	return false
}

// HeaderPolicy invalidates candidates whose required headers are missing or
// do not match.
type HeaderPolicy struct{}

func (HeaderPolicy) Name() string { return "header" }
func (HeaderPolicy) Order() int   { return OrderHeader }

func (HeaderPolicy) AppliesTo(endpoints []*endpoint.Endpoint) bool {
	return anyEndpoint(endpoints, func(ep *endpoint.Endpoint) bool {
		return len(ep.Metadata.Headers) > 0
	})
}

func (HeaderPolicy) Apply(r *Request, set *candidate.Set) error {
	return filter(set, func(st *candidate.State) bool {
		return matching.MatchHeaders(st.Endpoint.Metadata.Headers, r.HTTP.Header)
	})
}

// QueryPolicy invalidates candidates whose required query parameters are
// missing or do not match.
type QueryPolicy struct{}

func (QueryPolicy) Name() string { return "query" }
func (QueryPolicy) Order() int   { return OrderQuery }

func (QueryPolicy) AppliesTo(endpoints []*endpoint.Endpoint) bool {
	return anyEndpoint(endpoints, func(ep *endpoint.Endpoint) bool {
		return len(ep.Metadata.Query) > 0
	})
}

func (QueryPolicy) Apply(r *Request, set *candidate.Set) error {
	params := r.HTTP.URL.Query()
	return filter(set, func(st *candidate.State) bool {
		return matching.MatchQueryParams(st.Endpoint.Metadata.Query, params)
	})
}
