// Package monitor intercepts the byte-range fetches of remote file
// handles and reports per-fetch and aggregate statistics. It answers
// one diagnostic question: does a given read pattern issue efficient,
// coalesced range requests, or does it accidentally pull the whole
// object?
//
// A Monitor is a scoped session: Install swaps the fetch entry of
// every supported variant in the remote dispatch table for a timing
// wrapper, Uninstall restores the captured originals. The wrapper is
// transparent: arguments, results, and errors pass through unchanged,
// and failed fetches record nothing.
//
//	mon := monitor.New()
//	err := mon.Run(func() error {
//	    f, err := remote.OpenHTTP(ctx, url, nil)
//	    if err != nil {
//	        return err
//	    }
//	    defer f.Close()
//	    _, err = io.ReadAll(remote.NewBlockReader(ctx, f, 65536))
//	    return err
//	})
//	mon.Summary()
package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/zulfikawr/fetchtrace/internal/logging"
	"github.com/zulfikawr/fetchtrace/internal/metrics"
	"github.com/zulfikawr/fetchtrace/internal/remote"
	"github.com/zulfikawr/fetchtrace/internal/ui"
)

var (
	// ErrAlreadyActive is returned by Install on an active session
	ErrAlreadyActive = errors.New("monitor: session already active")

	// ErrNotActive is returned by Uninstall without a matching Install
	ErrNotActive = errors.New("monitor: session not active")
)

// Monitor is a monitoring session over the remote dispatch table.
// Configure the exported fields before Install; they must not change
// while the session is active.
type Monitor struct {
	// Targets lists the variant keys to intercept. Nil means every
	// registered variant. Unregistered targets are skipped, so a
	// target list may safely name variants absent from this build.
	Targets []string

	// Verbose prints a line per fetch (plus the per-source header)
	Verbose bool

	// Out receives the report lines, default os.Stdout
	Out io.Writer

	mu           sync.Mutex
	active       bool
	installed    []string
	observations []Observation
	seen         map[string]bool

	// now is the clock used around the original fetch call; tests
	// substitute a scripted clock for deterministic throughput
	now func() time.Time
}

// New returns a verbose Monitor writing to stdout
func New() *Monitor {
	return &Monitor{
		Verbose: true,
		Out:     os.Stdout,
		now:     time.Now,
	}
}

// Install resets the session's statistics and swaps the fetch entry
// of every target variant for the recording wrapper. It fails with
// ErrAlreadyActive if this session is already installed, and with the
// registry's error if another session holds one of the variants; in
// that case any entries swapped so far are restored.
func (m *Monitor) Install() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active {
		return ErrAlreadyActive
	}

	targets := m.Targets
	if targets == nil {
		targets = remote.Variants()
	}

	m.observations = nil
	m.seen = make(map[string]bool)
	m.installed = m.installed[:0]

	for _, variant := range targets {
		err := remote.Intercept(variant, m.wrap)
		if errors.Is(err, remote.ErrNotRegistered) {
			// Variant not present in this environment; monitoring
			// degrades to the variants that are
			logging.Debug("skipping unsupported variant", zap.String("variant", variant))
			metrics.RecordInterceptSkipped(variant)
			continue
		}
		if err != nil {
			for _, v := range m.installed {
				_ = remote.Restore(v)
			}
			m.installed = m.installed[:0]
			return err
		}
		m.installed = append(m.installed, variant)
		metrics.RecordIntercept(variant)
	}

	m.active = true
	metrics.ActiveSessions.Inc()
	logging.Info("monitoring installed", zap.Strings("variants", m.installed))
	return nil
}

// Uninstall restores the fetch entries captured by the matching
// Install. It is safe to call from a defer on every exit path; only a
// call without a prior Install fails, with ErrNotActive.
func (m *Monitor) Uninstall() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.active {
		return ErrNotActive
	}

	for _, variant := range m.installed {
		if err := remote.Restore(variant); err != nil {
			logging.Error("restore failed", zap.String("variant", variant), zap.Error(err))
		}
	}
	m.installed = m.installed[:0]
	m.active = false

	metrics.ActiveSessions.Dec()
	metrics.RecordSession(len(m.observations))
	logging.Info("monitoring uninstalled", zap.Int("observations", len(m.observations)))
	return nil
}

// Run executes fn inside a scoped session: Install, run, Uninstall on
// every exit path. fn's error is returned unchanged.
func (m *Monitor) Run(fn func() error) error {
	if err := m.Install(); err != nil {
		return err
	}
	defer func() { _ = m.Uninstall() }()
	return fn()
}

// Reset clears the accumulated observations
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observations = nil
	m.seen = make(map[string]bool)
}

// wrap builds the recording wrapper around a captured original
func (m *Monitor) wrap(next remote.FetchFunc) remote.FetchFunc {
	return func(ctx context.Context, f remote.File, start, end int64) ([]byte, error) {
		// Capture identity before the call; the timing window spans
		// only the original implementation
		source := f.Source()
		began := m.now()
		data, err := next(ctx, f, start, end)
		elapsed := m.now().Sub(began).Seconds()

		if err != nil {
			// Transparency: the failure reaches the caller exactly as
			// it would without instrumentation, and no observation is
			// recorded since the byte count is unverifiable
			metrics.RecordFetchError(f.Variant())
			return data, err
		}

		metrics.RecordFetch(f.Variant(), len(data), elapsed)
		m.record(f, Observation{
			Source:  source,
			Start:   start,
			End:     end,
			Bytes:   int64(len(data)),
			Elapsed: elapsed,
		})
		return data, nil
	}
}

// record appends an observation and prints its report lines
func (m *Monitor) record(f remote.File, obs Observation) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// A fetch that was in flight when Uninstall ran completes through
	// the old wrapper; its observation belongs to no session
	if !m.active {
		return
	}

	if m.Verbose {
		if !m.seen[obs.Source] {
			if size, ok := f.Size(); ok {
				m.printf("Reading %s (%s MB)", obs.Source, ui.FormatMB(size))
			} else {
				m.printf("Reading %s", obs.Source)
			}
		}
		// The line shows the requested extent; the rate trusts the
		// actual payload length
		m.printf("FETCH bytes %d-%d (%s MB/s)", obs.Start, obs.End, rateLabel(obs.Bytes, obs.Elapsed))
	}

	m.seen[obs.Source] = true
	m.observations = append(m.observations, obs)
}

// Stats returns the aggregate across all observations so far
func (m *Monitor) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	var stats Stats
	for _, obs := range m.observations {
		stats.Requests++
		stats.BytesFetched += obs.Bytes
		stats.Elapsed += obs.Elapsed
	}
	return stats
}

// Observations returns a copy of the session's observation log in
// completion order
func (m *Monitor) Observations() []Observation {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Observation, len(m.observations))
	copy(out, m.observations)
	return out
}

// Summary prints the aggregate report line. Callable whether or not
// the session is active; with no observations it reports that rather
// than dividing by zero.
func (m *Monitor) Summary() {
	stats := m.Stats()

	m.mu.Lock()
	defer m.mu.Unlock()

	if stats.Requests == 0 {
		m.printf("Summary: no fetches recorded.")
		return
	}
	m.printf("Summary: fetched %d bytes (%s MB) in %s s (%s MB/s) using %d requests.",
		stats.BytesFetched,
		ui.FormatMB(stats.BytesFetched),
		ui.FormatSeconds(stats.Elapsed),
		rateLabel(stats.BytesFetched, stats.Elapsed),
		stats.Requests)
}

// printf writes one bold-red report line; callers hold m.mu
func (m *Monitor) printf(format string, args ...interface{}) {
	out := m.Out
	if out == nil {
		out = os.Stdout
	}
	fmt.Fprintf(out, "%s%s%s\n", ui.Colors.BoldRed, fmt.Sprintf(format, args...), ui.Colors.Reset)
}
