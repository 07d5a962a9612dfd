package policy

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/beevik/etree"

	"github.com/getmockd/routeset/internal/matching"
)

// Request is the request being routed, with its body already read.
// Derived views are computed on first use and cached.
type Request struct {
	HTTP *http.Request
	Body []byte

	jsonParsed bool
	jsonData   any

	xmlParsed bool
	xmlDoc    *etree.Document

	gqlParsed bool
	gqlOp     *matching.GraphQLOperation

	env *exprEnv
}

// NewRequest wraps r. body is the full request body; r.Body is not read.
func NewRequest(r *http.Request, body []byte) *Request {
	return &Request{HTTP: r, Body: body}
}

// Context returns the request context.
func (r *Request) Context() context.Context {
	return r.HTTP.Context()
}

// Host returns the lower-cased request host without a port.
func (r *Request) Host() string {
	host := r.HTTP.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.ToLower(host)
}

// HostPort returns the lower-cased request host including any port.
func (r *Request) HostPort() string {
	return strings.ToLower(r.HTTP.Host)
}

// JSON returns the body decoded as JSON. ok is false when the body is empty
// or not valid JSON.
func (r *Request) JSON() (data any, ok bool) {
	if !r.jsonParsed {
		r.jsonParsed = true
		if len(r.Body) > 0 {
			if err := json.Unmarshal(r.Body, &r.jsonData); err != nil {
				r.jsonData = nil
			}
		}
	}
	return r.jsonData, r.jsonData != nil
}

// XML returns the body parsed as an XML document. ok is false when the body
// is empty or not well-formed XML.
func (r *Request) XML() (doc *etree.Document, ok bool) {
	if !r.xmlParsed {
		r.xmlParsed = true
		if len(r.Body) > 0 {
			d := etree.NewDocument()
			if err := d.ReadFromBytes(r.Body); err == nil && d.Root() != nil {
				r.xmlDoc = d
			}
		}
	}
	return r.xmlDoc, r.xmlDoc != nil
}

// GraphQL returns the GraphQL operation the request executes, taken from a
// JSON body {"query", "operationName"} or, for GET, from the query string.
// ok is false when the request carries no parsable operation.
func (r *Request) GraphQL() (op matching.GraphQLOperation, ok bool) {
	if !r.gqlParsed {
		r.gqlParsed = true
		query, name := r.graphQLParams()
		if query != "" {
			if parsed, err := matching.ParseGraphQLOperation(query, name); err == nil {
				r.gqlOp = &parsed
			}
		}
	}
	if r.gqlOp == nil {
		return matching.GraphQLOperation{}, false
	}
	return *r.gqlOp, true
}

func (r *Request) graphQLParams() (query, name string) {
	if r.HTTP.Method == http.MethodGet {
		q := r.HTTP.URL.Query()
		return q.Get("query"), q.Get("operationName")
	}
	data, ok := r.JSON()
	if !ok {
		return "", ""
	}
	obj, ok := data.(map[string]any)
	if !ok {
		return "", ""
	}
	query, _ = obj["query"].(string)
	name, _ = obj["operationName"].(string)
	return query, name
}
