package flags

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeader(t *testing.T) {
	var h Header
	assert.Equal(t, http.Header{}, h.Header())

	require.NoError(t, h.Set("X-Beta: 1"))
	require.NoError(t, h.Set("accept: a, b"))
	require.NoError(t, h.Set("Accept:c"))

	assert.Equal(t, http.Header{
		"X-Beta": {"1"},
		"Accept": {"a, b", "c"},
	}, h.Header())
	assert.Equal(t, "X-Beta: 1, accept: a, b, Accept:c", h.String())
	assert.Equal(t, "header", h.Type())

	assert.Error(t, h.Set("broken"))
	assert.Len(t, h.Header(), 2)
}
