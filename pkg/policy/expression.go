package policy

import (
	"fmt"
	"log/slog"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/getmockd/routeset/pkg/candidate"
	"github.com/getmockd/routeset/pkg/endpoint"
	"github.com/getmockd/routeset/pkg/logging"
)

// exprEnv is the environment a When expression is evaluated against.
type exprEnv struct {
	Method  string            `expr:"method"`
	Path    string            `expr:"path"`
	Host    string            `expr:"host"`
	Headers map[string]string `expr:"headers"`
	Query   map[string]string `expr:"query"`
	Body    any               `expr:"body"`
	Values  map[string]any    `expr:"values"`
}

// exprEnv builds the request part of the expression environment once.
func (r *Request) exprEnv() exprEnv {
	if r.env == nil {
		e := &exprEnv{
			Method:  r.HTTP.Method,
			Path:    r.HTTP.URL.Path,
			Host:    r.Host(),
			Headers: make(map[string]string, len(r.HTTP.Header)),
			Query:   make(map[string]string),
		}
		for k, v := range r.HTTP.Header {
			if len(v) > 0 {
				e.Headers[k] = v[0]
			}
		}
		for k, v := range r.HTTP.URL.Query() {
			if len(v) > 0 {
				e.Query[k] = v[0]
			}
		}
		e.Body, _ = r.JSON()
		r.env = e
	}
	return *r.env
}

// ExpressionPolicy evaluates each candidate's When expression and
// invalidates candidates for which it is false. Expressions see method,
// path, host, headers (canonical names), query, body (decoded JSON) and the
// candidate's values:
//
//	headers["X-Beta"] == "1" && values.id != "0"
//
// An expression that fails at run time counts as false.
type ExpressionPolicy struct {
	programs map[*endpoint.Endpoint]*vm.Program
	log      *slog.Logger
}

// NewExpressionPolicy creates an expression policy. log may be nil.
func NewExpressionPolicy(log *slog.Logger) *ExpressionPolicy {
	if log == nil {
		log = logging.Nop()
	}
	return &ExpressionPolicy{log: log}
}

func (p *ExpressionPolicy) Name() string { return "expression" }
func (p *ExpressionPolicy) Order() int   { return OrderExpression }

func (p *ExpressionPolicy) AppliesTo(endpoints []*endpoint.Endpoint) bool {
	return anyEndpoint(endpoints, func(ep *endpoint.Endpoint) bool {
		return ep.Metadata.When != ""
	})
}

// Prepare compiles every When expression.
func (p *ExpressionPolicy) Prepare(endpoints []*endpoint.Endpoint) error {
	p.programs = make(map[*endpoint.Endpoint]*vm.Program)
	for _, ep := range endpoints {
		if ep == nil || ep.Metadata.When == "" {
			continue
		}
		program, err := CompileExpression(ep.Metadata.When)
		if err != nil {
			return fmt.Errorf("endpoint %s: %w", ep, err)
		}
		p.programs[ep] = program
	}
	return nil
}

// CompileExpression compiles a When expression against the request
// environment.
func CompileExpression(src string) (*vm.Program, error) {
	program, err := expr.Compile(src, expr.Env(exprEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", src, err)
	}
	return program, nil
}

func (p *ExpressionPolicy) Apply(r *Request, set *candidate.Set) error {
	return filter(set, func(st *candidate.State) bool {
		program, ok := p.programs[st.Endpoint]
		if !ok {
			return true
		}

		env := r.exprEnv()
		env.Values = st.Values

		out, err := expr.Run(program, env)
		if err != nil {
			p.log.Debug("expression failed",
				"endpoint", st.Endpoint.String(),
				"expression", st.Endpoint.Metadata.When,
				"error", err,
			)
			return false
		}
		matched, _ := out.(bool)
		return matched
	})
}
