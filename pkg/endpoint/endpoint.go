// Package endpoint defines the routable targets that requests are matched to.
package endpoint

import "maps"

// Endpoint is a routable target. Endpoints are immutable once a route table
// has been built from them and are shared by every request routed through it.
type Endpoint struct {
	// ID uniquely identifies the endpoint within a route table.
	ID string `json:"id" yaml:"id"`

	// DisplayName is a human-readable label used in logs and diagnostics.
	DisplayName string `json:"displayName,omitempty" yaml:"displayName,omitempty"`

	// Path is a route template: "/users", "/users/{id}" or "/files/*".
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// PathPattern is an RE2 regex matched against the request path.
	// Mutually exclusive with Path.
	PathPattern string `json:"pathPattern,omitempty" yaml:"pathPattern,omitempty"`

	// Order ranks endpoints before path specificity is considered.
	// Lower values are tried first.
	Order int `json:"order,omitempty" yaml:"order,omitempty"`

	Metadata Metadata  `json:"metadata" yaml:"metadata"`
	Response *Response `json:"response,omitempty" yaml:"response,omitempty"`
}

// Metadata holds the constraints that matching policies evaluate.
type Metadata struct {
	Methods      []string          `json:"methods,omitempty" yaml:"methods,omitempty"`
	Hosts        []string          `json:"hosts,omitempty" yaml:"hosts,omitempty"`
	Headers      map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Query        map[string]string `json:"query,omitempty" yaml:"query,omitempty"`
	BodyJSONPath map[string]any    `json:"bodyJsonPath,omitempty" yaml:"bodyJsonPath,omitempty"`
	Claims       map[string]string `json:"claims,omitempty" yaml:"claims,omitempty"`

	// Raw body conditions. BodyEquals takes precedence over BodyContains;
	// BodyPattern is an RE2 regex checked in addition to either.
	BodyEquals   string `json:"bodyEquals,omitempty" yaml:"bodyEquals,omitempty"`
	BodyContains string `json:"bodyContains,omitempty" yaml:"bodyContains,omitempty"`
	BodyPattern  string `json:"bodyPattern,omitempty" yaml:"bodyPattern,omitempty"`

	// BodyXPath maps XPath expressions to the text expected at them in an
	// XML body.
	BodyXPath map[string]string `json:"bodyXPath,omitempty" yaml:"bodyXPath,omitempty"`

	GraphQL *GraphQLMatch `json:"graphql,omitempty" yaml:"graphql,omitempty"`

	// When is a boolean expression evaluated against the request.
	When string `json:"when,omitempty" yaml:"when,omitempty"`

	// FanOut lists endpoint IDs that replace this endpoint during matching.
	FanOut []string `json:"fanOut,omitempty" yaml:"fanOut,omitempty"`
}

// GraphQLMatch selects GraphQL requests by operation. Empty fields match
// anything.
type GraphQLMatch struct {
	OperationName string `json:"operationName,omitempty" yaml:"operationName,omitempty"`
	// OperationType is "query", "mutation" or "subscription".
	OperationType string `json:"operationType,omitempty" yaml:"operationType,omitempty"`
}

// Response is the canned response written when the endpoint wins.
type Response struct {
	StatusCode int               `json:"statusCode" yaml:"statusCode"`
	Headers    map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body       string            `json:"body,omitempty" yaml:"body,omitempty"`
}

// String returns the display name, falling back to the ID.
func (e *Endpoint) String() string {
	if e == nil {
		return "<nil>"
	}
	if e.DisplayName != "" {
		return e.DisplayName
	}
	return e.ID
}

// Template returns whichever of Path or PathPattern is set.
func (e *Endpoint) Template() string {
	if e.PathPattern != "" {
		return e.PathPattern
	}
	return e.Path
}

// Values holds parameters captured for a single candidate, such as route
// parameters or JSONPath extractions.
//
// Several candidates may share one Values map. Code that needs to write to a
// map it did not create must Clone it first.
type Values map[string]any

// Clone returns a shallow copy. Cloning nil yields an empty, writable map.
func (v Values) Clone() Values {
	out := make(Values, len(v)+1)
	maps.Copy(out, v)
	return out
}

// String returns the value for key formatted as a string, or "" if absent.
func (v Values) String(key string) string {
	val, ok := v[key]
	if !ok || val == nil {
		return ""
	}
	if s, ok := val.(string); ok {
		return s
	}
	return stringify(val)
}
