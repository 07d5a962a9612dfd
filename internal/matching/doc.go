// Package matching provides the request matching primitives used to build
// route tables and to implement matching policies.
//
// Route templates are compiled once with CompileRoute and matched against
// request paths with (*Route).Match:
//
//   - Exact paths: "/api/users"
//   - Named parameters: "/api/users/{id}"
//   - Wildcards: "/api/users/*", "/files/*.json"
//   - Regex patterns with named groups: `^/api/v(?P<version>\d+)/users$`
//
// ComparePrecedence orders compiled routes from most to least specific; the
// route table turns that order into candidate scores.
//
// The field helpers (MatchMethod, MatchHeaders, MatchQueryParams) and the
// body, JSONPath and XPath matchers evaluate the per-endpoint constraints
// that policies apply to a candidate set. NearMisses suggests templates for
// paths that matched nothing.
package matching
