package metrics

import (
	"strconv"
	"time"
)

// UnmatchedEndpoint labels requests that no endpoint served.
const UnmatchedEndpoint = "none"

// Routing records per-request routing metrics.
type Routing struct {
	Requests *Counter
	Duration *Histogram
}

// NewRouting registers the routing metrics with reg.
func NewRouting(reg *Registry) (*Routing, error) {
	requests, err := reg.NewCounter("routeset_requests_total",
		"Total routed requests by endpoint and response status", "endpoint", "status")
	if err != nil {
		return nil, err
	}
	duration, err := reg.NewHistogram("routeset_request_duration_seconds",
		"Time spent routing and answering a request", DefaultBuckets, "endpoint")
	if err != nil {
		return nil, err
	}
	return &Routing{Requests: requests, Duration: duration}, nil
}

// Observe records one request. An empty endpointID counts as unmatched.
func (m *Routing) Observe(endpointID string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if endpointID == "" {
		endpointID = UnmatchedEndpoint
	}
	_ = m.Requests.Inc(endpointID, strconv.Itoa(status))
	_ = m.Duration.Observe(d.Seconds(), endpointID)
}
