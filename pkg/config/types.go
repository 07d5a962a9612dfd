package config

import (
	"github.com/google/uuid"

	"github.com/getmockd/routeset/pkg/endpoint"
	"github.com/getmockd/routeset/pkg/matcher"
	"github.com/getmockd/routeset/pkg/policy"
)

// CurrentVersion is the route file format version.
const CurrentVersion = "1"

// RouteFile is the root of a route file.
type RouteFile struct {
	Version string        `json:"version" yaml:"version"`
	Name    string        `json:"name,omitempty" yaml:"name,omitempty"`
	Routes  []RouteConfig `json:"routes" yaml:"routes"`
}

// RouteConfig defines one endpoint.
type RouteConfig struct {
	// ID is generated when empty.
	ID          string `json:"id,omitempty" yaml:"id,omitempty"`
	Name        string `json:"name,omitempty" yaml:"name,omitempty"`
	Path        string `json:"path,omitempty" yaml:"path,omitempty"`
	PathPattern string `json:"pathPattern,omitempty" yaml:"pathPattern,omitempty"`
	Order       int    `json:"order,omitempty" yaml:"order,omitempty"`

	// Internal routes are only reachable as fan-out targets and need no path.
	Internal bool `json:"internal,omitempty" yaml:"internal,omitempty"`

	endpoint.Metadata `yaml:",inline"`

	Response *endpoint.Response `json:"response,omitempty" yaml:"response,omitempty"`
}

// RouteSet is a route file resolved into endpoints.
type RouteSet struct {
	// Routes are routable by path, in file order.
	Routes []*endpoint.Endpoint

	// Internal holds the internal routes.
	Internal []*endpoint.Endpoint

	// Resolver resolves fan-outs over Routes and Internal.
	Resolver policy.StaticResolver
}

// Endpoints converts the routes to endpoints. Routes without an ID get a
// generated one.
func (f *RouteFile) Endpoints() *RouteSet {
	set := &RouteSet{}
	for i := range f.Routes {
		ep := f.Routes[i].endpoint()
		if f.Routes[i].Internal {
			set.Internal = append(set.Internal, ep)
		} else {
			set.Routes = append(set.Routes, ep)
		}
	}
	set.Resolver = policy.NewStaticResolver(set.All())
	return set
}

// All returns every endpoint, routable ones first.
func (s *RouteSet) All() []*endpoint.Endpoint {
	all := make([]*endpoint.Endpoint, 0, len(s.Routes)+len(s.Internal))
	all = append(all, s.Routes...)
	return append(all, s.Internal...)
}

// Matcher builds a matcher over the route set.
func (s *RouteSet) Matcher(cfg matcher.Config) (*matcher.Matcher, error) {
	cfg.Resolver = s.Resolver
	return matcher.Build(s.Routes, s.Internal, cfg)
}

func (r *RouteConfig) endpoint() *endpoint.Endpoint {
	id := r.ID
	if id == "" {
		id = "route-" + uuid.NewString()
	}
	return &endpoint.Endpoint{
		ID:          id,
		DisplayName: r.Name,
		Path:        r.Path,
		PathPattern: r.PathPattern,
		Order:       r.Order,
		Metadata:    r.Metadata,
		Response:    r.Response,
	}
}
