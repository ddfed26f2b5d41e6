// Package remote provides file-like handles over byte-range capable
// backends. Every handle variant (HTTP, local, object store,
// WebSocket) implements the File interface and routes its fetches
// through a process-wide dispatch table, which is the extension point
// the monitor intercepts.
package remote

import (
	"context"
	"fmt"
)

// Variant keys for the built-in handle types
const (
	VariantHTTP  = "http"
	VariantLocal = "local"
	VariantBlob  = "blob"
	VariantWS    = "ws"
)

// File is a remote-file handle capable of byte-range fetches.
//
// FetchRange returns the bytes [start, end) of the backing resource.
// Implementations route the call through the dispatch table so that
// an installed monitor observes it; the raw transfer lives in the
// variant's registered FetchFunc.
type File interface {
	// FetchRange fetches the bytes [start, end)
	FetchRange(ctx context.Context, start, end int64) ([]byte, error)

	// Source returns a human-readable identifier (URL or path)
	Source() string

	// Size returns the declared total size, if known
	Size() (int64, bool)

	// Variant returns the handle's dispatch table key
	Variant() string

	// Close releases the handle
	Close() error
}

// checkRange validates a half-open byte extent
func checkRange(start, end int64) error {
	if start < 0 || end <= start {
		return fmt.Errorf("remote: invalid byte range [%d, %d)", start, end)
	}
	return nil
}
