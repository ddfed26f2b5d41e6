package protocol

import "time"

// Path prefixes
const (
	// ObjectPathPrefix is the URL path prefix for byte-range object reads
	ObjectPathPrefix = "/o/"

	// FetchSocketPath is the WebSocket endpoint for the ws fetch protocol
	FetchSocketPath = "/ws/fetch"
)

// Block sizes for the handle-level block reader
const (
	// DefaultBlockSize is the fetch granularity when none is configured
	DefaultBlockSize = 64 * 1024 // 64KB

	// MinBlockSize guards against pathological one-byte fetch storms
	MinBlockSize = 16
)

// Timeouts
const (
	// ReadHeaderTimeout is the maximum time to read request headers
	ReadHeaderTimeout = 5 * time.Second

	// WriteTimeout is the maximum time to write a response
	WriteTimeout = 15 * time.Minute

	// IdleTimeout is the maximum time a connection can be idle
	IdleTimeout = 5 * time.Minute

	// FetchSocketTimeout bounds a single ws fetch round trip
	FetchSocketTimeout = 2 * time.Minute
)

// WebSocket buffer sizes
const (
	FetchSocketReadBuffer  = 64 * 1024
	FetchSocketWriteBuffer = 256 * 1024
)
