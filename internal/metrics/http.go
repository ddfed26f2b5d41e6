package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP Metrics
//
// These metrics track requests served by the demo object server.

var (
	// RequestDuration tracks object request latency.
	// Labels: endpoint (object, fetch_socket), status (success, error)
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fetchtrace_server_request_duration_seconds",
			Help:    "Demo server request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		},
		[]string{"endpoint", "status"},
	)

	// RangeRequestsTotal counts byte-range object requests by outcome.
	// Labels: status (partial, full, error)
	RangeRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetchtrace_server_range_requests_total",
			Help: "Total object requests by range handling outcome",
		},
		[]string{"status"},
	)

	// RateLimitedRequests counts requests that were throttled.
	// Labels: client_ip
	RateLimitedRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetchtrace_server_rate_limited_requests_total",
			Help: "Total requests subject to rate limiting",
		},
		[]string{"client_ip"},
	)

	// ActiveFetchSockets tracks open WebSocket fetch connections.
	ActiveFetchSockets = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fetchtrace_server_active_fetch_sockets",
			Help: "Number of open WebSocket fetch connections",
		},
	)
)
