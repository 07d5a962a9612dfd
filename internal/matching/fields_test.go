package matching

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchMethod(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		method  string
		want    bool
	}{
		{"no constraint", nil, "DELETE", true},
		{"exact", []string{"GET"}, "GET", true},
		{"case insensitive", []string{"get"}, "GET", true},
		{"one of many", []string{"GET", "POST"}, "POST", true},
		{"star", []string{"*"}, "PATCH", true},
		{"mismatch", []string{"GET"}, "POST", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchMethod(tt.allowed, tt.method))
		})
	}
}

func TestMatchHeaderPattern(t *testing.T) {
	headers := http.Header{}
	headers.Set("Content-Type", "application/json; charset=utf-8")
	headers.Set("X-Tenant", "acme")

	tests := []struct {
		name    string
		header  string
		pattern string
		want    bool
	}{
		{"exact", "X-Tenant", "acme", true},
		{"exact case-insensitive name", "x-tenant", "acme", true},
		{"exact mismatch", "X-Tenant", "globex", false},
		{"prefix", "Content-Type", "application/json*", true},
		{"suffix", "Content-Type", "*utf-8", true},
		{"contains", "Content-Type", "*json*", true},
		{"presence", "X-Tenant", "*", true},
		{"missing header", "X-Missing", "*", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchHeaderPattern(tt.header, tt.pattern, headers))
		})
	}

	assert.True(t, MatchHeaders(map[string]string{"X-Tenant": "acme", "Content-Type": "*json*"}, headers))
	assert.False(t, MatchHeaders(map[string]string{"X-Tenant": "acme", "X-Other": "1"}, headers))
	assert.True(t, MatchHeaders(nil, headers))
}

func TestMatchQueryParams(t *testing.T) {
	params := url.Values{"page": {"2"}, "flag": {""}}

	assert.True(t, MatchQueryParams(map[string]string{"page": "2"}, params))
	assert.False(t, MatchQueryParams(map[string]string{"page": "3"}, params))
	assert.True(t, MatchQueryParams(map[string]string{"flag": "*"}, params))
	assert.False(t, MatchQueryParams(map[string]string{"missing": "*"}, params))
	assert.True(t, MatchQueryParams(nil, params))
}
