package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/routeset/pkg/endpoint"
)

func TestBodyPolicy(t *testing.T) {
	exact := &endpoint.Endpoint{ID: "exact", Metadata: endpoint.Metadata{BodyEquals: "ping"}}
	urgent := &endpoint.Endpoint{ID: "urgent", Metadata: endpoint.Metadata{BodyContains: "urgent"}}
	numbered := &endpoint.Endpoint{ID: "numbered", Metadata: endpoint.Metadata{BodyPattern: `^\d+$`}}
	open := &endpoint.Endpoint{ID: "open"}
	eps := []*endpoint.Endpoint{exact, urgent, numbered, open}

	p := NewBodyPolicy()
	require.True(t, p.AppliesTo(eps))
	require.False(t, p.AppliesTo([]*endpoint.Endpoint{open}))
	require.NoError(t, p.Prepare(eps))

	tests := []struct {
		body string
		want []string
	}{
		{"ping", []string{"exact", "open"}},
		{"this is urgent", []string{"urgent", "open"}},
		{"12345", []string{"numbered", "open"}},
		{"", []string{"open"}},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			set := newSet(eps...)
			require.NoError(t, p.Apply(newReq("POST", "/", tt.body), set))
			assert.Equal(t, tt.want, validIDs(set))
		})
	}
}

func TestBodyPolicy_PrepareInvalid(t *testing.T) {
	bad := &endpoint.Endpoint{ID: "bad", Metadata: endpoint.Metadata{BodyPattern: "(["}}
	err := NewBodyPolicy().Prepare([]*endpoint.Endpoint{bad})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "endpoint bad")
}
