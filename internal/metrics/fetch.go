package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch Metrics
//
// These metrics track intercepted byte-range fetch calls.
// Use them to spot chatty read patterns (many small fetches) versus
// well-coalesced ones (few large fetches).

var (
	// FetchDuration tracks the time spent inside the original fetch call.
	// Labels: variant (e.g., "http", "blob", "local", "ws")
	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fetchtrace_fetch_duration_seconds",
			Help:    "Duration of intercepted byte-range fetches in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~16s
		},
		[]string{"variant"},
	)

	// FetchSize tracks the actual payload size of each fetch in bytes.
	// Labels: variant
	FetchSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fetchtrace_fetch_size_bytes",
			Help:    "Payload size of intercepted fetches in bytes",
			Buckets: prometheus.ExponentialBuckets(64, 4, 12), // 64B to ~1GB
		},
		[]string{"variant"},
	)

	// FetchThroughput tracks per-fetch throughput in MB/s (decimal MB).
	// Labels: variant
	FetchThroughput = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fetchtrace_fetch_throughput_mbps",
			Help:    "Per-fetch throughput in MB/s",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 15), // 0.1 to ~1600 MB/s
		},
		[]string{"variant"},
	)

	// FetchesTotal counts intercepted fetches by outcome.
	// Labels: variant, status (success, error)
	// Failed fetches are counted here even though they never become
	// observations in the session log.
	FetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetchtrace_fetches_total",
			Help: "Total number of intercepted byte-range fetches",
		},
		[]string{"variant", "status"},
	)

	// FetchBytesTotal counts actual bytes transferred by successful fetches.
	// Labels: variant
	FetchBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetchtrace_fetch_bytes_total",
			Help: "Total bytes transferred by intercepted fetches",
		},
		[]string{"variant"},
	)
)

// RecordFetch records a successful intercepted fetch
func RecordFetch(variant string, bytes int, seconds float64) {
	FetchDuration.WithLabelValues(variant).Observe(seconds)
	FetchSize.WithLabelValues(variant).Observe(float64(bytes))
	FetchBytesTotal.WithLabelValues(variant).Add(float64(bytes))
	FetchesTotal.WithLabelValues(variant, "success").Inc()
	if seconds > 0 {
		FetchThroughput.WithLabelValues(variant).Observe(float64(bytes) / (seconds * 1_000_000))
	}
}

// RecordFetchError records an intercepted fetch that failed
func RecordFetchError(variant string) {
	FetchesTotal.WithLabelValues(variant, "error").Inc()
}
