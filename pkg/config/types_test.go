package config

import (
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/routeset/pkg/matcher"
)

func TestRouteFile_Endpoints(t *testing.T) {
	file, err := LoadFromFile(filepath.Join("testdata", "routes.yaml"))
	require.NoError(t, err)

	set := file.Endpoints()
	require.Len(t, set.Routes, 5)
	require.Len(t, set.Internal, 2)
	assert.Len(t, set.All(), 7)

	health := set.Routes[3]
	assert.Equal(t, "/health", health.Path)
	assert.True(t, strings.HasPrefix(health.ID, "route-"), health.ID)

	beta := set.Routes[2]
	assert.Equal(t, "Beta user", beta.String())
	assert.Equal(t, -1, beta.Order)

	targets, ok := set.Resolver.Resolve(set.Routes[4])
	require.True(t, ok)
	require.Len(t, targets, 2)
	assert.Same(t, set.Internal[0], targets[0])
}

func TestRouteSet_Matcher(t *testing.T) {
	file, err := LoadFromFile(filepath.Join("testdata", "routes.yaml"))
	require.NoError(t, err)

	m, err := file.Endpoints().Matcher(matcher.Config{})
	require.NoError(t, err)

	tests := []struct {
		target string
		beta   string
		want   string
	}{
		{"/users/me", "", "me"},
		{"/users/7", "", "user"},
		{"/users/7", "1", "user-beta"},
		{"/users/0", "1", "user"},
		{"/region", "", "eu"},
	}
	for _, tt := range tests {
		t.Run(tt.target+tt.beta, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.target, nil)
			if tt.beta != "" {
				r.Header.Set("X-Beta", tt.beta)
			}
			res, err := m.Match(r)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Endpoint.ID)
		})
	}
}
