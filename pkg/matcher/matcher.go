// Package matcher routes HTTP requests to endpoints. It looks up the path's
// candidates in a route table, narrows them with a policy pipeline and
// selects the winner.
package matcher

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"

	"github.com/getmockd/routeset/pkg/candidate"
	"github.com/getmockd/routeset/pkg/endpoint"
	"github.com/getmockd/routeset/pkg/logging"
	"github.com/getmockd/routeset/pkg/policy"
	"github.com/getmockd/routeset/pkg/routetable"
	"github.com/getmockd/routeset/pkg/selector"
)

// DefaultMaxBodySize is the largest request body read for matching (10MB).
const DefaultMaxBodySize = 10 << 20

// ErrBodyTooLarge is returned when the request body exceeds the limit.
var ErrBodyTooLarge = errors.New("request body too large")

// Config configures a Matcher.
type Config struct {
	// MaxBodySize bounds the body read for matching. Zero means
	// DefaultMaxBodySize.
	MaxBodySize int64

	// Strict rejects requests whose winning score is shared by another
	// valid candidate.
	Strict bool

	// ClaimsSecret verifies bearer tokens for claims routing. Without it
	// claims are read unverified.
	ClaimsSecret []byte

	// Resolver resolves fan-outs. Build defaults it to a StaticResolver
	// over every endpoint it is given.
	Resolver policy.Resolver

	Logger *slog.Logger
}

// Matcher is safe for concurrent use.
type Matcher struct {
	table    *routetable.Table
	pipeline *policy.Pipeline
	cfg      Config
	log      *slog.Logger
}

// New creates a matcher. pipeline may be nil when no policies apply.
func New(table *routetable.Table, pipeline *policy.Pipeline, cfg Config) *Matcher {
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = DefaultMaxBodySize
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &Matcher{table: table, pipeline: pipeline, cfg: cfg, log: log}
}

// Build creates a matcher with the standard policies. routes are routable
// by path; internal endpoints are reachable only as fan-out targets.
func Build(routes, internal []*endpoint.Endpoint, cfg Config) (*Matcher, error) {
	table, err := routetable.Build(routes)
	if err != nil {
		return nil, err
	}

	all := slices.Concat(routes, internal)
	resolver := cfg.Resolver
	if resolver == nil {
		resolver = policy.NewStaticResolver(all)
	}

	pipeline, err := policy.NewPipeline(all, cfg.Logger,
		policy.HostPolicy{},
		policy.MethodPolicy{},
		policy.HeaderPolicy{},
		policy.QueryPolicy{},
		policy.NewClaimsPolicy(cfg.ClaimsSecret, cfg.Logger),
		policy.NewBodyPolicy(),
		policy.NewJSONPathPolicy(),
		policy.NewXPathPolicy(),
		policy.GraphQLPolicy{},
		policy.NewExpressionPolicy(cfg.Logger),
		policy.NewFanOutPolicy(resolver),
	)
	if err != nil {
		return nil, err
	}
	return New(table, pipeline, cfg), nil
}

// Table returns the route table.
func (m *Matcher) Table() *routetable.Table {
	return m.table
}

// Match selects the endpoint for r. The body is read and r.Body replaced
// with a reader over the same bytes.
func (m *Matcher) Match(r *http.Request) (*selector.Result, error) {
	set, err := m.Explain(r)
	if err != nil {
		return nil, err
	}

	res, err := selector.Select(set, selector.Strict(m.cfg.Strict))
	if err != nil {
		m.log.Debug("no endpoint selected",
			"method", r.Method,
			"path", r.URL.Path,
			"candidates", set.Count(),
			"error", err,
		)
		return nil, err
	}

	m.log.Debug("endpoint selected",
		"method", r.Method,
		"path", r.URL.Path,
		"endpoint", res.Endpoint.String(),
		"score", res.Score,
		"index", res.Index,
	)
	return res, nil
}

// Explain returns the candidate set for r after every policy has run,
// without selecting.
func (m *Matcher) Explain(r *http.Request) (*candidate.Set, error) {
	body, err := m.readBody(r)
	if err != nil {
		return nil, err
	}

	set, err := m.table.Lookup(r.URL.Path)
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", r.URL.Path, err)
	}
	if m.pipeline != nil {
		if err := m.pipeline.Apply(policy.NewRequest(r, body), set); err != nil {
			return nil, err
		}
	}
	return set, nil
}

func (m *Matcher) readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	defer r.Body.Close()

	body, err := io.ReadAll(io.LimitReader(r.Body, m.cfg.MaxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	if int64(len(body)) > m.cfg.MaxBodySize {
		return nil, fmt.Errorf("%w: limit %d bytes", ErrBodyTooLarge, m.cfg.MaxBodySize)
	}
	return body, nil
}
