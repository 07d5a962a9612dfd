package matcher

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/routeset/pkg/endpoint"
	"github.com/getmockd/routeset/pkg/routetable"
	"github.com/getmockd/routeset/pkg/selector"
)

func testRoutes() (routes, internal []*endpoint.Endpoint) {
	routes = []*endpoint.Endpoint{
		{ID: "me", Path: "/users/me", Metadata: endpoint.Metadata{Methods: []string{"GET"}}},
		{ID: "user", Path: "/users/{id}", Metadata: endpoint.Metadata{Methods: []string{"GET"}}},
		{ID: "user-beta", Path: "/users/{id}", Order: -1, Metadata: endpoint.Metadata{
			Methods: []string{"GET"},
			Headers: map[string]string{"X-Beta": "1"},
		}},
		{ID: "create-premium", Path: "/users", Metadata: endpoint.Metadata{
			Methods:      []string{"POST"},
			BodyJSONPath: map[string]any{"$.tier": "premium"},
		}},
		{ID: "create", Path: "/users", Metadata: endpoint.Metadata{Methods: []string{"POST"}}},
		{ID: "files", Path: "/files/*"},
		{ID: "regional", Path: "/region", Metadata: endpoint.Metadata{FanOut: []string{"eu", "us"}}},
	}
	internal = []*endpoint.Endpoint{
		{ID: "eu"},
		{ID: "us"},
	}
	return routes, internal
}

func newMatcher(t *testing.T, cfg Config) *Matcher {
	t.Helper()
	routes, internal := testRoutes()
	m, err := Build(routes, internal, cfg)
	require.NoError(t, err)
	return m
}

func TestMatcher_Match(t *testing.T) {
	m := newMatcher(t, Config{})

	tests := []struct {
		name    string
		method  string
		target  string
		header  string
		body    string
		wantID  string
		wantVal map[string]any
		wantErr error
	}{
		{name: "literal beats param", method: "GET", target: "/users/me", wantID: "me"},
		{name: "param", method: "GET", target: "/users/42", wantID: "user", wantVal: map[string]any{"id": "42"}},
		{name: "order wins with header", method: "GET", target: "/users/42", header: "1", wantID: "user-beta"},
		{name: "method filters", method: "DELETE", target: "/users/42", wantErr: selector.ErrNoMatch},
		{name: "body", method: "POST", target: "/users", body: `{"tier":"premium"}`, wantID: "create-premium", wantVal: map[string]any{"tier": "premium"}},
		{name: "body fallback", method: "POST", target: "/users", body: `{"tier":"free"}`, wantID: "create"},
		{name: "wildcard", method: "GET", target: "/files/a/b.txt", wantID: "files", wantVal: map[string]any{"0": "a/b.txt"}},
		{name: "fan-out", method: "GET", target: "/region", wantID: "eu"},
		{name: "unknown path", method: "GET", target: "/nope", wantErr: selector.ErrNoMatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			if tt.header != "" {
				r.Header.Set("X-Beta", tt.header)
			}

			res, err := m.Match(r)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, res.Endpoint.ID)
			for k, v := range tt.wantVal {
				assert.Equal(t, v, res.Values[k], k)
			}
		})
	}
}

func TestMatcher_RestoresBody(t *testing.T) {
	m := newMatcher(t, Config{})
	r := httptest.NewRequest("POST", "/users", strings.NewReader(`{"tier":"premium"}`))

	_, err := m.Match(r)
	require.NoError(t, err)

	body, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"tier":"premium"}`, string(body))
}

func TestMatcher_BodyTooLarge(t *testing.T) {
	m := newMatcher(t, Config{MaxBodySize: 4})
	r := httptest.NewRequest("POST", "/users", strings.NewReader(`{"tier":"premium"}`))

	_, err := m.Match(r)
	assert.ErrorIs(t, err, ErrBodyTooLarge)
}

func TestMatcher_Explain(t *testing.T) {
	m := newMatcher(t, Config{})
	r := httptest.NewRequest("GET", "/region", nil)

	set, err := m.Explain(r)
	require.NoError(t, err)
	require.Equal(t, 2, set.Count())

	var ids []string
	for _, st := range set.All() {
		ids = append(ids, st.Endpoint.ID)
	}
	assert.Equal(t, []string{"eu", "us"}, ids)
}

func TestMatcher_BodyFormats(t *testing.T) {
	routes := []*endpoint.Endpoint{
		{ID: "soap-add", Path: "/soap", Metadata: endpoint.Metadata{
			BodyXPath: map[string]string{"//Body/Add/a": "1"},
		}},
		{ID: "soap-any", Path: "/soap", Metadata: endpoint.Metadata{BodyContains: "Envelope"}},
		{ID: "gql-mutation", Path: "/graphql", Metadata: endpoint.Metadata{
			GraphQL: &endpoint.GraphQLMatch{OperationType: "mutation"},
		}},
		{ID: "gql-query", Path: "/graphql"},
	}
	m, err := Build(routes, nil, Config{})
	require.NoError(t, err)

	tests := []struct {
		target string
		body   string
		wantID string
	}{
		{"/soap", `<Envelope><Body><Add><a>1</a></Add></Body></Envelope>`, "soap-add"},
		{"/soap", `<Envelope><Body><Add><a>2</a></Add></Body></Envelope>`, "soap-any"},
		{"/graphql", `{"query":"mutation Save { save }"}`, "gql-mutation"},
		{"/graphql", `{"query":"{ users { id } }"}`, "gql-query"},
	}
	for _, tt := range tests {
		t.Run(tt.wantID, func(t *testing.T) {
			res, err := m.Match(httptest.NewRequest("POST", tt.target, strings.NewReader(tt.body)))
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, res.Endpoint.ID)
		})
	}
}

func TestMatcher_Strict(t *testing.T) {
	routes := []*endpoint.Endpoint{
		{ID: "a", Path: "/x"},
		{ID: "b", Path: "/x"},
	}
	m, err := Build(routes, nil, Config{Strict: true})
	require.NoError(t, err)

	_, err = m.Match(httptest.NewRequest("GET", "/x", nil))
	var amb *selector.AmbiguousMatchError
	require.ErrorAs(t, err, &amb)
	assert.Len(t, amb.Endpoints, 2)
}

func TestMatcher_FanOutTargetConditions(t *testing.T) {
	routes := []*endpoint.Endpoint{
		{ID: "regional", Path: "/region", Metadata: endpoint.Metadata{FanOut: []string{"eu", "us"}}},
	}
	internal := []*endpoint.Endpoint{
		{ID: "eu", Metadata: endpoint.Metadata{Headers: map[string]string{"X-Region": "eu"}}},
		{ID: "us", Metadata: endpoint.Metadata{Headers: map[string]string{"X-Region": "us"}}},
	}

	for _, strict := range []bool{false, true} {
		m, err := Build(routes, internal, Config{Strict: strict})
		require.NoError(t, err)

		tests := []struct {
			region  string
			wantID  string
			wantErr error
		}{
			{"eu", "eu", nil},
			{"us", "us", nil},
			{"", "", selector.ErrNoMatch},
		}
		for _, tt := range tests {
			r := httptest.NewRequest("GET", "/region", nil)
			if tt.region != "" {
				r.Header.Set("X-Region", tt.region)
			}
			res, err := m.Match(r)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr, "region=%q strict=%v", tt.region, strict)
				continue
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, res.Endpoint.ID, "region=%q strict=%v", tt.region, strict)
		}
	}
}

func TestMatcher_StrictFanOutTie(t *testing.T) {
	// Targets inherit the source's score, so unconditioned targets tie.
	m := newMatcher(t, Config{Strict: true})

	_, err := m.Match(httptest.NewRequest("GET", "/region", nil))
	var amb *selector.AmbiguousMatchError
	require.ErrorAs(t, err, &amb)
	ids := make([]string, len(amb.Endpoints))
	for i, ep := range amb.Endpoints {
		ids[i] = ep.ID
	}
	assert.Equal(t, []string{"eu", "us"}, ids)
}

func TestBuild_Errors(t *testing.T) {
	_, err := Build([]*endpoint.Endpoint{{ID: "a", Path: "/a"}, {ID: "a", Path: "/b"}}, nil, Config{})
	assert.ErrorIs(t, err, routetable.ErrDuplicateID)

	_, err = Build([]*endpoint.Endpoint{{ID: "a", Path: "/a", Metadata: endpoint.Metadata{When: "nope("}}}, nil, Config{})
	assert.Error(t, err)
}

func TestNew_NilPipeline(t *testing.T) {
	table, err := routetable.Build([]*endpoint.Endpoint{{ID: "a", Path: "/a"}})
	require.NoError(t, err)

	res, err := New(table, nil, Config{}).Match(httptest.NewRequest("GET", "/a", nil))
	require.NoError(t, err)
	assert.Equal(t, "a", res.Endpoint.ID)
	assert.Same(t, table, New(table, nil, Config{}).Table())
}
