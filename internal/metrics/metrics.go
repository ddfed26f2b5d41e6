// Package metrics provides Prometheus metrics for monitored byte-range fetches.
//
// The metrics package is organized into logical modules:
//
//   - fetch.go: Per-fetch timing, size, and throughput metrics
//   - session.go: Monitoring session lifecycle and intercept tracking
//   - http.go: Demo server request and rate limiting metrics
//
// Usage Examples:
//
// Recording an intercepted fetch:
//
//	start := time.Now()
//	data, err := original(ctx, f, rangeStart, rangeEnd)
//	if err != nil {
//	    metrics.FetchesTotal.WithLabelValues(f.Variant(), "error").Inc()
//	    return nil, err
//	}
//	metrics.RecordFetch(f.Variant(), len(data), time.Since(start).Seconds())
//
// Recording a session:
//
//	metrics.ActiveSessions.Inc()
//	defer metrics.ActiveSessions.Dec()
//
// All metrics are automatically registered with Prometheus and exposed
// via the /metrics endpoint when the demo server starts.
package metrics
