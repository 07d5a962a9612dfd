package cli

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/http2"

	"github.com/getmockd/routeset/pkg/logging"
	"github.com/getmockd/routeset/pkg/matcher"
	"github.com/getmockd/routeset/pkg/metrics"
	"github.com/getmockd/routeset/pkg/router"
)

const serveRoutes = `version: "1"
routes:
  - id: user
    path: /users/{id}
    response:
      statusCode: 200
      body: "user {id}"
`

func writeRoutes(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "routes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestBuildHandler(t *testing.T) {
	f := &serveFlags{configPath: writeRoutes(t, serveRoutes), maxBodySize: matcher.DefaultMaxBodySize}

	h, routes, err := buildHandler(f, logging.Nop())
	require.NoError(t, err)
	assert.Equal(t, 1, routes)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/42", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user 42", rec.Body.String())
	assert.Equal(t, "user", rec.Header().Get(router.EndpointHeader))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBuildHandler_H2C(t *testing.T) {
	f := &serveFlags{configPath: writeRoutes(t, serveRoutes), h2c: true}
	h, _, err := buildHandler(f, logging.Nop())
	require.NoError(t, err)

	srv := httptest.NewServer(h)
	defer srv.Close()

	client := &http.Client{Transport: &http2.Transport{
		AllowHTTP: true,
		DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, network, addr)
		},
	}}
	resp, err := client.Get(srv.URL + "/users/9")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.ProtoMajor)
	assert.Equal(t, "user 9", string(body))
}

func TestBuildHandler_NoRoutes(t *testing.T) {
	f := &serveFlags{configPath: writeRoutes(t, "version: \"1\"\nroutes:\n  - id: eu\n    internal: true\n")}

	_, _, err := buildHandler(f, logging.Nop())
	assert.ErrorIs(t, err, ErrNoRoutes)
}

func TestServeLogger_AccessLog(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "access.jsonl")
	log, closeLog, err := serveLogger(logPath)
	require.NoError(t, err)

	f := &serveFlags{configPath: writeRoutes(t, serveRoutes)}
	h, _, err := buildHandler(f, log)
	require.NoError(t, err)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/users/7", nil))
	closeLog()

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"request routed"`)
	assert.Contains(t, string(data), `"endpoint":"user"`)
	assert.Contains(t, string(data), `"component":"router"`)
}

func TestServeLogger_NoAccessLog(t *testing.T) {
	log, closeLog, err := serveLogger("")
	require.NoError(t, err)
	defer closeLog()
	assert.Same(t, logger, log)
}

func TestBuildHandler_Metrics(t *testing.T) {
	reg := metrics.NewRegistry()
	routing, err := metrics.NewRouting(reg)
	require.NoError(t, err)

	f := &serveFlags{configPath: writeRoutes(t, serveRoutes), maxBodySize: matcher.DefaultMaxBodySize}
	h, _, err := buildHandler(f, logging.Nop(), router.WithMetrics(routing))
	require.NoError(t, err)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/users/1", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/missing", nil))

	rec := httptest.NewRecorder()
	metricsMux(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `routeset_requests_total{endpoint="user",status="200"} 1`)
	assert.Contains(t, rec.Body.String(), `routeset_requests_total{endpoint="none",status="404"} 1`)

	rec = httptest.NewRecorder()
	metricsMux(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/other", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
