package matching

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/ohler55/ojg/jp"
)

// JSONPathMatcher evaluates a set of JSONPath conditions against a decoded
// JSON document. Expressions are parsed once by CompileJSONPath.
type JSONPathMatcher struct {
	conditions []jsonPathCondition
}

type jsonPathCondition struct {
	path     string
	key      string
	expr     jp.Expr
	expected any
}

// CompileJSONPath parses every JSONPath expression in conditions. The map
// values are the expected results; {"exists": bool} checks presence only.
func CompileJSONPath(conditions map[string]any) (*JSONPathMatcher, error) {
	paths := make([]string, 0, len(conditions))
	for p := range conditions {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	m := &JSONPathMatcher{conditions: make([]jsonPathCondition, 0, len(paths))}
	for _, p := range paths {
		x, err := jp.ParseString(p)
		if err != nil {
			return nil, fmt.Errorf("invalid JSONPath expression %q: %w", p, err)
		}
		m.conditions = append(m.conditions, jsonPathCondition{
			path:     p,
			key:      sanitizeJSONPathKey(p),
			expr:     x,
			expected: conditions[p],
		})
	}
	return m, nil
}

// Len returns the number of conditions.
func (m *JSONPathMatcher) Len() int {
	return len(m.conditions)
}

// Match evaluates every condition against data. All conditions must hold.
// Extracted values are returned keyed by a sanitized form of the path
// ("$.user.name" becomes "user_name").
func (m *JSONPathMatcher) Match(data any) (map[string]any, bool) {
	if len(m.conditions) == 0 {
		return nil, true
	}
	if data == nil {
		return nil, false
	}

	var matched map[string]any
	for _, c := range m.conditions {
		ok, value := c.match(data)
		if !ok {
			return nil, false
		}
		if value != nil {
			if matched == nil {
				matched = make(map[string]any, len(m.conditions))
			}
			matched[c.key] = value
		}
	}
	return matched, true
}

func (c *jsonPathCondition) match(data any) (bool, any) {
	results := c.expr.Get(data)

	if exists, ok := existenceCheck(c.expected); ok {
		if len(results) == 0 {
			return !exists, nil
		}
		if exists {
			return true, results[0]
		}
		return false, nil
	}

	// Wildcard paths may yield several results; any one may match.
	for _, r := range results {
		if valuesEqual(r, c.expected) {
			return true, r
		}
	}
	return false, nil
}

// existenceCheck recognizes the {"exists": bool} form of an expected value.
func existenceCheck(expected any) (exists bool, ok bool) {
	m, isMap := expected.(map[string]any)
	if !isMap || len(m) != 1 {
		return false, false
	}
	v, has := m["exists"]
	if !has {
		return false, false
	}
	b, _ := v.(bool)
	return b, true
}

// valuesEqual compares a JSON value with an expected value from a route
// file. Numbers compare by value regardless of Go type.
func valuesEqual(actual, expected any) bool {
	if actual == nil || expected == nil {
		return actual == nil && expected == nil
	}
	if reflect.DeepEqual(actual, expected) {
		return true
	}

	a, aNum := toFloat64(actual)
	e, eNum := toFloat64(expected)
	if aNum && eNum {
		return a == e
	}
	return false
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	default:
		return 0, false
	}
}

// sanitizeJSONPathKey converts a JSONPath expression to a valid key name.
// Example: "$.user.name" -> "user_name", "$.items[0].id" -> "items_0_id"
func sanitizeJSONPathKey(path string) string {
	if len(path) > 0 && path[0] == '$' {
		path = path[1:]
	}
	if len(path) > 0 && path[0] == '.' {
		path = path[1:]
	}

	result := make([]byte, 0, len(path))
	for i := 0; i < len(path); i++ {
		c := path[i]
		switch c {
		case '.', '[', ']', '*', '@', '?', '(', ')', ',', ' ', '\'', '"':
			if len(result) > 0 && result[len(result)-1] != '_' {
				result = append(result, '_')
			}
		default:
			result = append(result, c)
		}
	}

	for len(result) > 0 && result[len(result)-1] == '_' {
		result = result[:len(result)-1]
	}
	return string(result)
}
