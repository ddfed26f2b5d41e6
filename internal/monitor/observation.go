package monitor

import "github.com/zulfikawr/fetchtrace/internal/ui"

// Observation records one intercepted byte-range fetch. Start and End
// are the requested half-open extent; Bytes is the length of the
// payload the original implementation actually returned, which is
// what all throughput math trusts.
type Observation struct {
	Source  string
	Start   int64
	End     int64
	Bytes   int64
	Elapsed float64
}

// Stats is the aggregate of a session's observations. Elapsed is the
// sum of per-fetch durations, not the wall-clock span of the session,
// so concurrent fetches add up rather than overlap.
type Stats struct {
	Requests     int
	BytesFetched int64
	Elapsed      float64
}

// Rate returns the aggregate throughput in MB/s. The second return is
// false when the summed elapsed time is too small to divide by.
func (s Stats) Rate() (float64, bool) {
	if roundsToZero(s.Elapsed) {
		return 0, false
	}
	return float64(s.BytesFetched) / (s.Elapsed * ui.MB), true
}

// roundsToZero reports whether an elapsed time displays as 0.00 s
func roundsToZero(seconds float64) bool {
	return seconds < 0.005
}

// rateLabel renders a throughput for display, with a placeholder
// instead of a division by a zero-displaying duration
func rateLabel(bytes int64, seconds float64) string {
	if roundsToZero(seconds) {
		return ui.RatePlaceholder
	}
	return ui.FormatRate(bytes, seconds)
}
