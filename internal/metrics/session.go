package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Session Metrics
//
// These metrics track monitoring session lifecycle and the intercept
// registry. Use them to confirm sessions install and restore cleanly.

var (
	// ActiveSessions tracks monitoring sessions currently installed.
	// With the non-reentrant session model this is 0 or 1 in practice.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fetchtrace_active_sessions",
			Help: "Number of active monitoring sessions",
		},
	)

	// SessionsTotal counts completed install/uninstall cycles.
	SessionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fetchtrace_sessions_total",
			Help: "Total number of completed monitoring sessions",
		},
	)

	// SessionObservations tracks how many fetches a session recorded.
	SessionObservations = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fetchtrace_session_observations",
			Help:    "Observations recorded per monitoring session",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1 to ~2048
		},
	)

	// InterceptsTotal counts variant intercept attempts.
	// Labels: variant, status (installed, skipped)
	// A "skipped" intercept means the variant was not registered in
	// this build/environment; the session continues without it.
	InterceptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetchtrace_intercepts_total",
			Help: "Total variant intercept attempts by status",
		},
		[]string{"variant", "status"},
	)
)

// RecordSession records a completed monitoring session
func RecordSession(observations int) {
	SessionsTotal.Inc()
	SessionObservations.Observe(float64(observations))
}

// RecordIntercept records an installed variant intercept
func RecordIntercept(variant string) {
	InterceptsTotal.WithLabelValues(variant, "installed").Inc()
}

// RecordInterceptSkipped records a variant that could not be intercepted
func RecordInterceptSkipped(variant string) {
	InterceptsTotal.WithLabelValues(variant, "skipped").Inc()
}
