package ui

import "fmt"

// MB is the decimal megabyte used for all reported sizes and rates.
const MB = 1_000_000

// RatePlaceholder is printed when a duration is too small to measure.
const RatePlaceholder = "n/a"

// FormatMB formats a byte count as decimal megabytes with two decimals
// (e.g., "1.50"). Byte counts are reported in decimal units so rates
// line up with network throughput conventions, not MiB.
func FormatMB(bytes int64) string {
	return fmt.Sprintf("%.2f", float64(bytes)/MB)
}

// FormatRate formats a transfer rate in MB/s with two decimals. A
// non-positive elapsed time yields the placeholder instead of an
// infinite or divide-by-zero rate.
func FormatRate(bytes int64, seconds float64) string {
	if seconds <= 0 {
		return RatePlaceholder
	}
	return fmt.Sprintf("%.2f", float64(bytes)/(seconds*MB))
}

// FormatSeconds formats an elapsed time in seconds with two decimals
func FormatSeconds(seconds float64) string {
	return fmt.Sprintf("%.2f", seconds)
}

// FormatBytes formats bytes into human-readable string with appropriate units (e.g., "1.5 MB")
func FormatBytes(bytes int64) string {
	const unit = 1000
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "kMGTPE"[exp])
}
