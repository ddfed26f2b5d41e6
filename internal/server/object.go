package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/zulfikawr/fetchtrace/internal/blobstore"
	"github.com/zulfikawr/fetchtrace/internal/logging"
	"github.com/zulfikawr/fetchtrace/internal/metrics"
	"github.com/zulfikawr/fetchtrace/internal/protocol"
)

// handleObject serves byte-range reads of a stored object.
// Expects /o/{key} with an optional Range header.
func (s *Server) handleObject(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	status := "error"
	defer func() {
		metrics.RequestDuration.WithLabelValues("object", status).Observe(time.Since(startTime).Seconds())
	}()

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	key := strings.TrimPrefix(r.URL.Path, protocol.ObjectPathPrefix)
	if key == "" {
		http.Error(w, "missing key", http.StatusNotFound)
		return
	}

	size, err := s.Store.Stat(key)
	if err != nil {
		metrics.RangeRequestsTotal.WithLabelValues("error").Inc()
		if errors.Is(err, blobstore.ErrNotFound) || errors.Is(err, blobstore.ErrBadKey) {
			http.Error(w, "not found", http.StatusNotFound)
		} else {
			logging.Error("stat failed", zap.String("key", key), zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", "application/octet-stream")

	if r.Method == http.MethodHead {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		status = "success"
		return
	}

	// Apply rate limiting if configured
	var writer io.Writer = w
	if limiter := s.getRateLimiter(getClientIP(r)); limiter != nil {
		writer = &RateLimitedWriter{w: w, limiter: limiter}
		metrics.RateLimitedRequests.WithLabelValues(getClientIP(r)).Inc()
	}

	rangeHeader := r.Header.Get("Range")
	if rangeHeader == "" {
		// Full read: the exact access pattern the tracer exists to catch
		data, err := s.Store.Get(key)
		if err != nil {
			metrics.RangeRequestsTotal.WithLabelValues("error").Inc()
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		_, _ = writer.Write(data)
		metrics.RangeRequestsTotal.WithLabelValues("full").Inc()
		status = "success"
		return
	}

	start, end, ok := parseRangeHeader(rangeHeader, size)
	if !ok {
		metrics.RangeRequestsTotal.WithLabelValues("error").Inc()
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		http.Error(w, "invalid range", http.StatusRequestedRangeNotSatisfiable)
		return
	}

	data, err := s.Store.ReadRange(key, start, end)
	if err != nil {
		metrics.RangeRequestsTotal.WithLabelValues("error").Inc()
		logging.Error("range read failed", zap.String("key", key), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end-1, size))
	w.Header().Set("Content-Length", strconv.FormatInt(end-start, 10))
	w.WriteHeader(http.StatusPartialContent)
	_, _ = writer.Write(data)

	metrics.RangeRequestsTotal.WithLabelValues("partial").Inc()
	status = "success"
	logging.Debug("served range",
		zap.String("key", key),
		zap.Int64("start", start),
		zap.Int64("end", end))
}

// parseRangeHeader parses a single-range header of the forms
// bytes=a-b, bytes=a-, bytes=-n against an object of the given size,
// returning the half-open extent [start, end). Multi-range requests
// and extents outside the object are rejected.
func parseRangeHeader(header string, size int64) (int64, int64, bool) {
	spec, found := strings.CutPrefix(header, "bytes=")
	if !found || strings.Contains(spec, ",") {
		return 0, 0, false
	}

	first, last, found := strings.Cut(spec, "-")
	if !found {
		return 0, 0, false
	}

	if first == "" {
		// Suffix form: last n bytes
		n, err := strconv.ParseInt(last, 10, 64)
		if err != nil || n <= 0 {
			return 0, 0, false
		}
		if n > size {
			n = size
		}
		return size - n, size, size > 0
	}

	start, err := strconv.ParseInt(first, 10, 64)
	if err != nil || start < 0 || start >= size {
		return 0, 0, false
	}

	if last == "" {
		// Open-ended: to EOF
		return start, size, true
	}

	endIncl, err := strconv.ParseInt(last, 10, 64)
	if err != nil || endIncl < start {
		return 0, 0, false
	}
	if endIncl >= size {
		endIncl = size - 1
	}
	return start, endIncl + 1, true
}
