package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/routeset/pkg/endpoint"
)

func paths(errs ValidationErrors) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Path
	}
	return out
}

func TestRouteFile_Validate(t *testing.T) {
	tests := []struct {
		name      string
		file      RouteFile
		wantPaths []string
	}{
		{
			name: "valid",
			file: RouteFile{Version: "1", Routes: []RouteConfig{
				{ID: "a", Path: "/a", Metadata: endpoint.Metadata{FanOut: []string{"b"}}},
				{ID: "b", Internal: true},
				{PathPattern: `^/x/\d+$`},
			}},
		},
		{
			name:      "missing version",
			file:      RouteFile{Routes: []RouteConfig{{ID: "a", Path: "/a"}}},
			wantPaths: []string{"version"},
		},
		{
			name:      "unsupported version",
			file:      RouteFile{Version: "2"},
			wantPaths: []string{"version"},
		},
		{
			name: "path and pattern",
			file: RouteFile{Version: "1", Routes: []RouteConfig{
				{ID: "a", Path: "/a", PathPattern: "^/a$"},
			}},
			wantPaths: []string{"routes[0]"},
		},
		{
			name: "internal with path",
			file: RouteFile{Version: "1", Routes: []RouteConfig{
				{ID: "a", Path: "/a", Internal: true},
			}},
			wantPaths: []string{"routes[0]"},
		},
		{
			name: "self fan-out",
			file: RouteFile{Version: "1", Routes: []RouteConfig{
				{ID: "a", Path: "/a", Metadata: endpoint.Metadata{FanOut: []string{"a"}}},
			}},
			wantPaths: []string{"routes[0].fanOut[0]"},
		},
		{
			name: "bad metadata",
			file: RouteFile{Version: "1", Routes: []RouteConfig{
				{ID: "a", Path: "/a", Metadata: endpoint.Metadata{
					Hosts:        []string{"[bad"},
					BodyJSONPath: map[string]any{"$[": 1},
					When:         "1 +",
				}},
			}},
			wantPaths: []string{"routes[0].hosts[0]", "routes[0].bodyJsonPath", "routes[0].when"},
		},
		{
			name: "bad body conditions",
			file: RouteFile{Version: "1", Routes: []RouteConfig{
				{ID: "a", Path: "/a", Metadata: endpoint.Metadata{
					BodyPattern: "([",
					BodyXPath:   map[string]string{"//a[": "1"},
					GraphQL:     &endpoint.GraphQLMatch{OperationType: "fragment"},
				}},
			}},
			wantPaths: []string{"routes[0].bodyPattern", "routes[0].bodyXPath", "routes[0].graphql.operationType"},
		},
		{
			name: "bad status",
			file: RouteFile{Version: "1", Routes: []RouteConfig{
				{ID: "a", Path: "/a", Response: &endpoint.Response{StatusCode: 1000}},
			}},
			wantPaths: []string{"routes[0].response.statusCode"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.file.Validate()
			if tt.wantPaths == nil {
				assert.NoError(t, err)
				return
			}
			var errs ValidationErrors
			require.ErrorAs(t, err, &errs)
			assert.Equal(t, tt.wantPaths, paths(errs))
		})
	}
}

func TestValidateFile(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		for _, name := range []string{"routes.yaml", "routes.json"} {
			errs, err := ValidateFile(filepath.Join("testdata", name))
			require.NoError(t, err, name)
			assert.Empty(t, errs, name)
		}
	})

	t.Run("semantic errors", func(t *testing.T) {
		errs, err := ValidateFile(filepath.Join("testdata", "invalid.yaml"))
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{
			"routes[1].id",
			"routes[0].fanOut[0]",
			"routes[1].when",
			"routes[2]",
		}, paths(errs))
	})

	t.Run("schema errors", func(t *testing.T) {
		errs, err := ValidateFile(filepath.Join("testdata", "schema-invalid.yaml"))
		require.NoError(t, err)
		got := paths(errs)
		assert.Contains(t, got, "routes[0].path")
		assert.Contains(t, got, "routes[0].response.statusCode")
		assert.Contains(t, errs.Error(), "methdos")
	})

	t.Run("unreadable", func(t *testing.T) {
		_, err := ValidateFile(filepath.Join("testdata", "missing.yaml"))
		assert.ErrorIs(t, err, ErrFileNotFound)
	})
}

func TestValidateData_BadSyntax(t *testing.T) {
	_, err := ValidateData([]byte("{"), false)
	assert.ErrorIs(t, err, ErrInvalidJSON)

	_, err = ValidateData([]byte("routes: ["), true)
	assert.ErrorIs(t, err, ErrInvalidYAML)
}

func TestPointerToPath(t *testing.T) {
	tests := map[string]string{
		"":                          "",
		"/version":                  "version",
		"/routes/2":                 "routes[2]",
		"/routes/0/response/status": "routes[0].response.status",
		"/routes/1/fanOut/3":        "routes[1].fanOut[3]",
	}
	for in, want := range tests {
		assert.Equal(t, want, pointerToPath(in), in)
	}
}
