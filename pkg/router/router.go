// Package router serves the canned responses of matched endpoints over HTTP.
package router

import (
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/getmockd/routeset/pkg/endpoint"
	"github.com/getmockd/routeset/pkg/httputil"
	"github.com/getmockd/routeset/pkg/logging"
	"github.com/getmockd/routeset/pkg/matcher"
	"github.com/getmockd/routeset/pkg/metrics"
	"github.com/getmockd/routeset/pkg/selector"
)

// EndpointHeader carries the ID of the endpoint that served the response.
const EndpointHeader = "X-Routeset-Endpoint"

// maxSuggestions bounds the templates suggested in a 404 body.
const maxSuggestions = 3

const tracerName = "github.com/getmockd/routeset/pkg/router"

var placeholderRe = regexp.MustCompile(`\{([A-Za-z0-9_.\-]+)\}`)

// Suggestion is a route template offered for a path that matched nothing.
type Suggestion struct {
	ID       string `json:"id"`
	Template string `json:"template"`
}

// Router is an http.Handler that writes the response of the endpoint each
// request matches.
type Router struct {
	matcher *matcher.Matcher
	log     *slog.Logger
	tracer  trace.Tracer
	metrics *metrics.Routing
}

// Option configures a Router.
type Option func(*Router)

// WithTracerProvider records a span per routed request with tp. The default
// is the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(rt *Router) {
		rt.tracer = tp.Tracer(tracerName)
	}
}

// WithMetrics records request counts and latencies in m.
func WithMetrics(m *metrics.Routing) Option {
	return func(rt *Router) {
		rt.metrics = m
	}
}

// New creates a router. log may be nil.
func New(m *matcher.Matcher, log *slog.Logger, opts ...Option) *Router {
	if log == nil {
		log = logging.Nop()
	}
	rt := &Router{matcher: m, log: log, tracer: otel.Tracer(tracerName)}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	ctx, span := rt.tracer.Start(r.Context(), "route",
		trace.WithAttributes(
			attribute.String("http.request.method", r.Method),
			attribute.String("url.path", r.URL.Path),
		))
	defer span.End()
	r = r.WithContext(ctx)

	res, err := rt.matcher.Match(r)
	if err != nil {
		status := rt.writeError(w, r, err)
		span.SetAttributes(attribute.Int("http.response.status_code", status))
		if status >= http.StatusInternalServerError {
			span.RecordError(err)
			span.SetStatus(codes.Error, "routing failed")
		}
		rt.metrics.Observe("", status, time.Since(start))
		rt.log.Debug("request not routed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"error", err,
			"duration", time.Since(start),
		)
		return
	}

	status := writeResponse(w, res)
	span.SetAttributes(
		attribute.String("routeset.endpoint.id", res.Endpoint.ID),
		attribute.Int("routeset.candidate.score", res.Score),
		attribute.Int("http.response.status_code", status),
	)
	rt.metrics.Observe(res.Endpoint.ID, status, time.Since(start))
	rt.log.Debug("request routed",
		"method", r.Method,
		"path", r.URL.Path,
		"endpoint", res.Endpoint.String(),
		"status", status,
		"duration", time.Since(start),
	)
}

func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, err error) int {
	var amb *selector.AmbiguousMatchError
	switch {
	case errors.Is(err, selector.ErrNoMatch):
		msg := "no endpoint matches " + r.Method + " " + r.URL.Path
		if s := rt.suggest(r.URL.Path); len(s) > 0 {
			httputil.WriteErrorWithDetails(w, http.StatusNotFound, httputil.CodeNoMatch, msg, s)
		} else {
			httputil.WriteNotFound(w, httputil.CodeNoMatch, msg)
		}
		return http.StatusNotFound
	case errors.Is(err, matcher.ErrBodyTooLarge):
		httputil.WriteBodyTooLarge(w, err.Error())
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &amb):
		ids := make([]string, len(amb.Endpoints))
		for i, ep := range amb.Endpoints {
			ids[i] = ep.ID
		}
		httputil.WriteErrorWithDetails(w, http.StatusInternalServerError, httputil.CodeAmbiguous, err.Error(), ids)
		return http.StatusInternalServerError
	default:
		rt.log.Error("routing failed", "method", r.Method, "path", r.URL.Path, "error", err)
		httputil.WriteInternalError(w, httputil.CodeInternal, err.Error())
		return http.StatusInternalServerError
	}
}

func (rt *Router) suggest(path string) []Suggestion {
	eps := rt.matcher.Table().Suggest(path, maxSuggestions)
	out := make([]Suggestion, len(eps))
	for i, ep := range eps {
		out[i] = Suggestion{ID: ep.ID, Template: ep.Template()}
	}
	return out
}

// writeResponse writes the endpoint's response with placeholders filled in.
// An endpoint without a response gets 204 No Content. A body without a
// configured Content-Type gets one detected from its content.
func writeResponse(w http.ResponseWriter, res *selector.Result) int {
	w.Header().Set(EndpointHeader, res.Endpoint.ID)

	resp := res.Endpoint.Response
	if resp == nil {
		w.WriteHeader(http.StatusNoContent)
		return http.StatusNoContent
	}

	for k, v := range resp.Headers {
		w.Header().Set(k, Expand(v, res.Values))
	}
	var body []byte
	if resp.Body != "" {
		body = []byte(Expand(resp.Body, res.Values))
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", mimetype.Detect(body).String())
		}
	}

	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if len(body) > 0 {
		_, _ = w.Write(body)
	}
	return status
}

// Expand replaces {name} placeholders with values. Placeholders without a
// value are left as they are.
func Expand(s string, values endpoint.Values) string {
	if len(values) == 0 {
		return s
	}
	return placeholderRe.ReplaceAllStringFunc(s, func(m string) string {
		key := m[1 : len(m)-1]
		if _, ok := values[key]; !ok {
			return m
		}
		return values.String(key)
	})
}
