package matching

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/beevik/etree"
)

// XPathMatcher evaluates XPath conditions against an XML document.
// Supported syntax is etree's XPath subset ("/a/b", "//b", "b[1]",
// "b[@id='x']"), plus a trailing "/@attr" selecting an attribute value.
type XPathMatcher struct {
	conditions []xpathCondition
}

type xpathCondition struct {
	expr     string
	path     etree.Path
	attr     string
	expected string
}

// CompileXPath compiles every expression in conditions. The map values are
// the expected text, compared after trimming whitespace.
func CompileXPath(conditions map[string]string) (*XPathMatcher, error) {
	m := &XPathMatcher{}
	for _, expr := range slices.Sorted(maps.Keys(conditions)) {
		elemPath, attr := expr, ""
		if i := strings.LastIndex(expr, "/@"); i >= 0 {
			elemPath, attr = expr[:i], expr[i+2:]
			if elemPath == "" || attr == "" {
				return nil, fmt.Errorf("invalid XPath expression %q", expr)
			}
		}
		p, err := etree.CompilePath(elemPath)
		if err != nil {
			return nil, fmt.Errorf("invalid XPath expression %q: %w", expr, err)
		}
		m.conditions = append(m.conditions, xpathCondition{
			expr:     expr,
			path:     p,
			attr:     attr,
			expected: conditions[expr],
		})
	}
	return m, nil
}

// Len returns the number of conditions.
func (m *XPathMatcher) Len() int {
	return len(m.conditions)
}

// Match reports whether every condition holds for doc. A nil document
// matches only an empty condition set.
func (m *XPathMatcher) Match(doc *etree.Document) bool {
	if len(m.conditions) == 0 {
		return true
	}
	if doc == nil {
		return false
	}
	for _, c := range m.conditions {
		actual, ok := c.extract(doc)
		if !ok || actual != c.expected {
			return false
		}
	}
	return true
}

func (c *xpathCondition) extract(doc *etree.Document) (string, bool) {
	elem := doc.FindElementPath(c.path)
	if elem == nil {
		return "", false
	}
	if c.attr == "" {
		return strings.TrimSpace(elem.Text()), true
	}
	a := elem.SelectAttr(c.attr)
	if a == nil {
		return "", false
	}
	return a.Value, true
}
