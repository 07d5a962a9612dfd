// Package cli implements the routeset command-line interface:
//
//   - validate: check route files against the schema and routing rules
//   - candidates: show the ordered, scored candidates of a route table
//   - match: route a single request and show the decision
//   - serve: serve route file responses over HTTP
//   - add: append a route to a route file, interactively or from flags
//   - import-openapi: derive a route file from an OpenAPI 3 document
//   - version: show the routeset version
//
// Every flag can also be set with a ROUTESET_ environment variable named
// after it (ROUTESET_CONFIG, ROUTESET_LOG_LEVEL, ROUTESET_METRICS_ADDR).
// Flags given on the command line win.
//
// Usage:
//
//	routeset validate -c routes.yaml
//	routeset candidates -c 'routes/**/*.yaml' --path /users/42
//	routeset match -c routes.yaml --method GET --path /users/42 -H 'X-Beta: 1' --explain
//	routeset serve -c routes.yaml --addr :8080 --h2c --metrics-addr :9090
//	routeset add -c routes.yaml --path /health --status 204
//	routeset import-openapi petstore.yaml -o routes.yaml
package cli
