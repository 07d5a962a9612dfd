package config

import (
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/getmockd/routeset/pkg/endpoint"
)

// methodOrder fixes the order routes are emitted in for each path.
var methodOrder = []string{
	http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch,
	http.MethodDelete, http.MethodHead, http.MethodOptions, http.MethodTrace,
}

// ImportOpenAPI converts an OpenAPI 3 document (YAML or JSON) into a route
// file with one route per operation. OpenAPI path templates are kept as they
// are. Required query parameters become presence checks, and the response is
// taken from the lowest 2xx response with a JSON example, if any.
func ImportOpenAPI(data []byte) (*RouteFile, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI document: %w", err)
	}
	if doc.Paths == nil {
		return nil, fmt.Errorf("OpenAPI document has no paths")
	}

	file := &RouteFile{Version: CurrentVersion}
	if doc.Info != nil {
		file.Name = doc.Info.Title
	}

	pathMap := doc.Paths.Map()
	ids := make(map[string]int)
	for _, path := range slices.Sorted(maps.Keys(pathMap)) {
		item := pathMap[path]
		ops := item.Operations()
		for _, method := range methodOrder {
			op, ok := ops[method]
			if !ok || op == nil {
				continue
			}
			route := operationToRoute(path, method, item, op)
			route.ID = uniqueID(route.ID, ids)
			file.Routes = append(file.Routes, route)
		}
	}

	if err := file.Validate(); err != nil {
		return nil, fmt.Errorf("imported routes are invalid: %w", err)
	}
	return file, nil
}

func operationToRoute(path, method string, item *openapi3.PathItem, op *openapi3.Operation) RouteConfig {
	route := RouteConfig{
		ID:   op.OperationID,
		Name: op.Summary,
		Path: path,
	}
	if route.ID == "" {
		route.ID = slugify(method + " " + path)
	}
	if route.Name == "" {
		route.Name = method + " " + path
	}
	route.Methods = []string{method}

	params := slices.Concat(item.Parameters, op.Parameters)
	for _, ref := range params {
		if ref == nil || ref.Value == nil {
			continue
		}
		p := ref.Value
		if p.In == openapi3.ParameterInQuery && p.Required {
			if route.Query == nil {
				route.Query = make(map[string]string)
			}
			route.Query[p.Name] = "*"
		}
	}

	route.Response = operationResponse(op)
	return route
}

// operationResponse picks the lowest 2xx response, falling back to 200 with
// no body.
func operationResponse(op *openapi3.Operation) *endpoint.Response {
	resp := &endpoint.Response{StatusCode: http.StatusOK}
	if op.Responses == nil {
		return resp
	}

	responses := op.Responses.Map()
	for _, code := range slices.Sorted(maps.Keys(responses)) {
		status, err := strconv.Atoi(code)
		if err != nil || status < 200 || status > 299 {
			continue
		}
		resp.StatusCode = status

		ref := responses[code]
		if ref == nil || ref.Value == nil {
			return resp
		}
		for _, ct := range slices.Sorted(maps.Keys(ref.Value.Content)) {
			if !strings.Contains(ct, "json") {
				continue
			}
			if body, ok := mediaExample(ref.Value.Content[ct]); ok {
				resp.Headers = map[string]string{"Content-Type": ct}
				resp.Body = body
				break
			}
		}
		return resp
	}
	return resp
}

func mediaExample(mt *openapi3.MediaType) (string, bool) {
	if mt == nil {
		return "", false
	}

	example := mt.Example
	if example == nil {
		for _, name := range slices.Sorted(maps.Keys(mt.Examples)) {
			if ref := mt.Examples[name]; ref != nil && ref.Value != nil && ref.Value.Value != nil {
				example = ref.Value.Value
				break
			}
		}
	}
	if example == nil && mt.Schema != nil && mt.Schema.Value != nil {
		example = mt.Schema.Value.Example
	}
	if example == nil {
		return "", false
	}

	b, err := json.Marshal(example)
	if err != nil {
		return "", false
	}
	return string(b), true
}

// slugify turns "GET /users/{id}" into "get-users-id".
func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func uniqueID(id string, seen map[string]int) string {
	n := seen[id]
	seen[id] = n + 1
	if n == 0 {
		return id
	}
	return fmt.Sprintf("%s-%d", id, n+1)
}
