package ui

import "testing"

func TestFormatMB(t *testing.T) {
	if got := FormatMB(1_000_000); got != "1.00" {
		t.Errorf("Expected 1.00, got %s", got)
	}

	if got := FormatMB(1_500_000); got != "1.50" {
		t.Errorf("Expected 1.50, got %s", got)
	}

	if got := FormatMB(0); got != "0.00" {
		t.Errorf("Expected 0.00, got %s", got)
	}
}

func TestFormatRate(t *testing.T) {
	// 1 MB in 0.2s = 5 MB/s
	if got := FormatRate(1_000_000, 0.2); got != "5.00" {
		t.Errorf("Expected 5.00, got %s", got)
	}

	// 1 MB in 0.1s = 10 MB/s
	if got := FormatRate(1_000_000, 0.1); got != "10.00" {
		t.Errorf("Expected 10.00, got %s", got)
	}

	// Zero elapsed must not divide by zero
	if got := FormatRate(1_000_000, 0); got != RatePlaceholder {
		t.Errorf("Expected placeholder, got %s", got)
	}

	if got := FormatRate(1_000_000, -1); got != RatePlaceholder {
		t.Errorf("Expected placeholder for negative elapsed, got %s", got)
	}
}

func TestFormatSeconds(t *testing.T) {
	if got := FormatSeconds(0.3000000001); got != "0.30" {
		t.Errorf("Expected 0.30, got %s", got)
	}
}

func TestFormatBytes(t *testing.T) {
	if got := FormatBytes(512); got != "512 B" {
		t.Errorf("Expected 512 B, got %s", got)
	}

	if got := FormatBytes(1_500_000); got != "1.5 MB" {
		t.Errorf("Expected 1.5 MB, got %s", got)
	}
}
