// Package metrics collects routing metrics and serves them in the Prometheus
// text exposition format (text/plain; version=0.0.4).
//
// A Registry holds labeled counters and histograms. Routing registers the
// metrics the router records per request:
//
//   - routeset_requests_total: requests by endpoint and status
//   - routeset_request_duration_seconds: routing and response latency by endpoint
//
// Usage:
//
//	reg := metrics.NewRegistry()
//	m, _ := metrics.NewRouting(reg)
//	rt := router.New(matcher, log, router.WithMetrics(m))
//	http.Handle("/metrics", reg.Handler())
package metrics
