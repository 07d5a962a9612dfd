package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/routeset/pkg/candidate"
	"github.com/getmockd/routeset/pkg/endpoint"
)

func TestCompileExpression(t *testing.T) {
	tests := []struct {
		src     string
		wantErr bool
	}{
		{`method == "GET"`, false},
		{`headers["X-Beta"] == "1" && query.page != ""`, false},
		{`values.id == "7"`, false},
		{`body.user.tier == "premium"`, false},
		{`method`, true},
		{`method ==`, true},
		{`unknown == 1`, true},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := CompileExpression(tt.src)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestExpressionPolicy(t *testing.T) {
	beta := &endpoint.Endpoint{ID: "beta", Metadata: endpoint.Metadata{When: `headers["X-Beta"] == "1"`}}
	seven := &endpoint.Endpoint{ID: "seven", Metadata: endpoint.Metadata{When: `values.id == "7"`}}
	premium := &endpoint.Endpoint{ID: "premium", Metadata: endpoint.Metadata{When: `body.user.tier == "premium"`}}
	open := &endpoint.Endpoint{ID: "open"}
	eps := []*endpoint.Endpoint{beta, seven, premium, open}

	p := NewExpressionPolicy(nil)
	require.True(t, p.AppliesTo(eps))
	require.NoError(t, p.Prepare(eps))

	tests := []struct {
		name   string
		header string
		id     string
		body   string
		want   []string
	}{
		{"nothing", "", "1", "", []string{"open"}},
		{"header", "1", "1", "", []string{"beta", "open"}},
		{"values", "", "7", "", []string{"seven", "open"}},
		{"body", "", "1", `{"user":{"tier":"premium"}}`, []string{"premium", "open"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newReq("POST", "/users/"+tt.id, tt.body)
			if tt.header != "" {
				req.HTTP.Header.Set("X-Beta", tt.header)
			}
			set := newSet(beta, seven, premium, open)
			values := endpoint.Values{"id": tt.id}
			for i := range set.Count() {
				require.NoError(t, set.Update(i, func(st *candidate.State) { st.Values = values }))
			}

			require.NoError(t, p.Apply(req, set))
			assert.Equal(t, tt.want, validIDs(set))
		})
	}
}
