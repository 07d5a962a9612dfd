package matching

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, body string) any {
	t.Helper()
	var data any
	require.NoError(t, json.Unmarshal([]byte(body), &data))
	return data
}

func TestJSONPathMatcher_Match(t *testing.T) {
	exists := func(b bool) map[string]any { return map[string]any{"exists": b} }

	tests := []struct {
		name       string
		conditions map[string]any
		body       string
		wantMatch  bool
	}{
		{"string field", map[string]any{"$.status": "active"}, `{"status": "active"}`, true},
		{"string mismatch", map[string]any{"$.status": "active"}, `{"status": "inactive"}`, false},
		{"number float", map[string]any{"$.count": float64(42)}, `{"count": 42}`, true},
		{"number int from yaml", map[string]any{"$.count": 42}, `{"count": 42}`, true},
		{"number mismatch", map[string]any{"$.count": 42}, `{"count": 43}`, false},
		{"bool", map[string]any{"$.enabled": false}, `{"enabled": false}`, true},
		{"null", map[string]any{"$.deleted": nil}, `{"deleted": null}`, true},
		{"nested", map[string]any{"$.user.address.city": "NYC"}, `{"user": {"address": {"city": "NYC"}}}`, true},
		{"intermediate missing", map[string]any{"$.user.address.city": "NYC"}, `{"user": {}}`, false},
		{"array index", map[string]any{"$.items[1].name": "second"}, `{"items": [{"name": "first"}, {"name": "second"}]}`, true},
		{"root array", map[string]any{"$[0].id": 1}, `[{"id": 1}, {"id": 2}]`, true},
		{"wildcard any", map[string]any{"$.items[*].type": "premium"}, `{"items": [{"type": "basic"}, {"type": "premium"}]}`, true},
		{"wildcard none", map[string]any{"$.items[*].type": "gold"}, `{"items": [{"type": "basic"}]}`, false},
		{"exists present", map[string]any{"$.token": exists(true)}, `{"token": "abc"}`, true},
		{"exists missing", map[string]any{"$.token": exists(true)}, `{"name": "x"}`, false},
		{"absent missing", map[string]any{"$.deleted": exists(false)}, `{"name": "x"}`, true},
		{"absent present", map[string]any{"$.deleted": exists(false)}, `{"deleted": true}`, false},
		{
			"all conditions must hold",
			map[string]any{"$.a": "1", "$.b": "2"},
			`{"a": "1", "b": "3"}`,
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := CompileJSONPath(tt.conditions)
			require.NoError(t, err)

			_, ok := m.Match(decode(t, tt.body))
			assert.Equal(t, tt.wantMatch, ok)
		})
	}
}

func TestJSONPathMatcher_MatchedValues(t *testing.T) {
	m, err := CompileJSONPath(map[string]any{
		"$.user.name":   "John",
		"$.items[0].id": map[string]any{"exists": true},
		"$.gone":        map[string]any{"exists": false},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, m.Len())

	matched, ok := m.Match(decode(t, `{"user": {"name": "John"}, "items": [{"id": 7}]}`))
	require.True(t, ok)
	assert.Equal(t, map[string]any{
		"user_name":  "John",
		"items_0_id": float64(7),
	}, matched)
}

func TestJSONPathMatcher_NoData(t *testing.T) {
	m, err := CompileJSONPath(map[string]any{"$.a": "b"})
	require.NoError(t, err)

	_, ok := m.Match(nil)
	assert.False(t, ok)

	empty, err := CompileJSONPath(nil)
	require.NoError(t, err)
	matched, ok := empty.Match(nil)
	assert.True(t, ok)
	assert.Nil(t, matched)
}

func TestCompileJSONPath_Invalid(t *testing.T) {
	_, err := CompileJSONPath(map[string]any{"$[": "x"})
	assert.Error(t, err)
}

func TestSanitizeJSONPathKey(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"$.user.name", "user_name"},
		{"$.items[0].id", "items_0_id"},
		{"$.items[*].sku", "items_sku"},
		{"$['key']", "key"},
		{"name", "name"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeJSONPathKey(tt.path))
		})
	}
}
