package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/getmockd/routeset/internal/matching"
	"github.com/getmockd/routeset/pkg/policy"
)

//go:embed schema/routes.schema.json
var routeSchema string

// ValidationError is a single problem in a route file.
type ValidationError struct {
	// Path locates the problem, e.g. "routes[2].fanOut[0]".
	Path    string
	Message string
}

func (e ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// ValidationErrors lists every problem found in a route file.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "\n")
}

func (e *ValidationErrors) add(path, format string, args ...any) {
	*e = append(*e, ValidationError{Path: path, Message: fmt.Sprintf(format, args...)})
}

// Validate checks the route file for problems a router would reject:
// malformed routes, duplicate IDs, fan-outs to unknown routes, expressions
// and JSONPath conditions that do not compile. The error is a
// ValidationErrors.
func (f *RouteFile) Validate() error {
	var errs ValidationErrors

	switch f.Version {
	case CurrentVersion:
	case "":
		errs.add("version", "required")
	default:
		errs.add("version", "unsupported version %q, expected %q", f.Version, CurrentVersion)
	}

	ids := make(map[string]int, len(f.Routes))
	for i := range f.Routes {
		r := &f.Routes[i]
		if r.ID == "" {
			continue
		}
		if first, dup := ids[r.ID]; dup {
			errs.add(fmt.Sprintf("routes[%d].id", i), "duplicate id %q (first used by routes[%d])", r.ID, first)
			continue
		}
		ids[r.ID] = i
	}

	for i := range f.Routes {
		validateRoute(&f.Routes[i], fmt.Sprintf("routes[%d]", i), ids, &errs)
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func validateRoute(r *RouteConfig, path string, ids map[string]int, errs *ValidationErrors) {
	switch {
	case r.Internal && r.Path == "" && r.PathPattern == "":
	case r.Internal:
		errs.add(path, "internal routes cannot have a path")
	default:
		if _, err := matching.CompileRoute(r.Path, r.PathPattern); err != nil {
			errs.add(path, "%v", err)
		}
	}

	for j, host := range r.Hosts {
		if !doublestar.ValidatePattern(strings.ToLower(host)) {
			errs.add(fmt.Sprintf("%s.hosts[%d]", path, j), "invalid host pattern %q", host)
		}
	}

	if len(r.BodyJSONPath) > 0 {
		if _, err := matching.CompileJSONPath(r.BodyJSONPath); err != nil {
			errs.add(path+".bodyJsonPath", "%v", err)
		}
	}

	if _, err := matching.CompileBody(r.BodyEquals, r.BodyContains, r.BodyPattern); err != nil {
		errs.add(path+".bodyPattern", "%v", err)
	}

	if len(r.BodyXPath) > 0 {
		if _, err := matching.CompileXPath(r.BodyXPath); err != nil {
			errs.add(path+".bodyXPath", "%v", err)
		}
	}

	if gql := r.GraphQL; gql != nil {
		switch gql.OperationType {
		case "", "query", "mutation", "subscription":
		default:
			errs.add(path+".graphql.operationType", "unknown operation type %q", gql.OperationType)
		}
	}

	if r.When != "" {
		if _, err := policy.CompileExpression(r.When); err != nil {
			errs.add(path+".when", "%v", err)
		}
	}

	for j, target := range r.FanOut {
		p := fmt.Sprintf("%s.fanOut[%d]", path, j)
		switch {
		case target == r.ID:
			errs.add(p, "route cannot fan out to itself")
		default:
			if _, ok := ids[target]; !ok {
				errs.add(p, "unknown route %q", target)
			}
		}
	}

	if r.Response != nil && r.Response.StatusCode != 0 &&
		(r.Response.StatusCode < 100 || r.Response.StatusCode > 599) {
		errs.add(path+".response.statusCode", "invalid status code %d", r.Response.StatusCode)
	}
}

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("routes.schema.json", strings.NewReader(routeSchema)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}
	return compiler.Compile("routes.schema.json")
})

// ValidateFile checks a route file against the route file JSON Schema and,
// if that passes, against Validate. The returned error covers files that
// cannot be read or parsed; problems in the content are reported as
// ValidationErrors.
func ValidateFile(path string) (ValidationErrors, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return ValidateData(data, isYAML(path))
}

// ValidateData is ValidateFile for in-memory content.
func ValidateData(data []byte, yamlInput bool) (ValidationErrors, error) {
	doc, err := toJSONValue(data, yamlInput)
	if err != nil {
		return nil, err
	}

	schema, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("route file schema: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		var verr *jsonschema.ValidationError
		if !errors.As(err, &verr) {
			return nil, err
		}
		var errs ValidationErrors
		collectSchemaErrors(verr, &errs)
		return errs, nil
	}

	var file RouteFile
	if yamlInput {
		err = yaml.Unmarshal(data, &file)
	} else {
		err = json.Unmarshal(data, &file)
	}
	if err != nil {
		return nil, err
	}

	var errs ValidationErrors
	if err := file.Validate(); err != nil {
		errors.As(err, &errs)
	}
	return errs, nil
}

// toJSONValue decodes data into the generic form the schema validator
// expects. YAML is round-tripped through JSON so numbers and maps have JSON
// types.
func toJSONValue(data []byte, yamlInput bool) (any, error) {
	if yamlInput {
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
		}
		b, err := json.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
		}
		data = b
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return doc, nil
}

func collectSchemaErrors(err *jsonschema.ValidationError, errs *ValidationErrors) {
	if len(err.Causes) == 0 {
		*errs = append(*errs, ValidationError{Path: pointerToPath(err.InstanceLocation), Message: err.Message})
		return
	}
	for _, cause := range err.Causes {
		collectSchemaErrors(cause, errs)
	}
}

// pointerToPath converts a JSON pointer ("/routes/2/path") to the path
// notation used by Validate ("routes[2].path").
func pointerToPath(ptr string) string {
	var b strings.Builder
	for part := range strings.SplitSeq(strings.TrimPrefix(ptr, "/"), "/") {
		if part == "" {
			continue
		}
		if isIndex(part) {
			b.WriteString("[" + part + "]")
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(part)
	}
	return b.String()
}

func isIndex(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return s != ""
}
