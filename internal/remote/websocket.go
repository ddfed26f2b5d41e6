package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/zulfikawr/fetchtrace/internal/protocol"
)

func init() {
	Register(VariantWS, func(ctx context.Context, f File, start, end int64) ([]byte, error) {
		return f.(*WSFile).fetchRange(ctx, start, end)
	})
}

// WSFile is a file handle that fetches byte ranges over a WebSocket
// connection speaking the protocol package's fetch frames. It mainly
// exists to prove new variants slot into the dispatch table without
// the monitor changing.
type WSFile struct {
	mu     sync.Mutex // gorilla connections allow one concurrent writer/reader
	conn   *websocket.Conn
	rawURL string
	key    string
	size   int64
	sized  bool
}

// OpenWS dials a fetch socket. The URL carries the object key in its
// query, e.g. ws://host:port/ws/fetch?key=data.bin
func OpenWS(ctx context.Context, rawURL string) (*WSFile, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	key := u.Query().Get("key")
	if key == "" {
		return nil, fmt.Errorf("fetch socket URL needs a key parameter: %s", rawURL)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	f := &WSFile{conn: conn, rawURL: rawURL, key: key}

	// Probe the declared size; an error frame just leaves it unknown
	if err := f.writeRequest(protocol.FetchRequest{Op: protocol.OpStat, Key: key}); err != nil {
		_ = conn.Close()
		return nil, err
	}
	msgType, payload, err := conn.ReadMessage()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if msgType == websocket.TextMessage {
		var stat protocol.StatResponse
		if json.Unmarshal(payload, &stat) == nil && stat.Size > 0 {
			f.size, f.sized = stat.Size, true
		}
	}

	return f, nil
}

func (f *WSFile) writeRequest(req protocol.FetchRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return f.conn.WriteMessage(websocket.TextMessage, data)
}

// Source returns the socket URL
func (f *WSFile) Source() string {
	return f.rawURL
}

// Size returns the size reported by the stat handshake
func (f *WSFile) Size() (int64, bool) {
	return f.size, f.sized
}

// Variant returns the dispatch table key
func (f *WSFile) Variant() string {
	return VariantWS
}

// Close closes the socket
func (f *WSFile) Close() error {
	return f.conn.Close()
}

// FetchRange fetches the bytes [start, end) through the dispatch table
func (f *WSFile) FetchRange(ctx context.Context, start, end int64) ([]byte, error) {
	return Dispatch(ctx, f, start, end)
}

// fetchRange is the raw transfer registered in the dispatch table.
// The socket serializes requests, so concurrent fetches queue here.
func (f *WSFile) fetchRange(_ context.Context, start, end int64) ([]byte, error) {
	if err := checkRange(start, end); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	req := protocol.FetchRequest{Op: protocol.OpFetch, Key: f.key, Start: start, End: end}
	if err := f.writeRequest(req); err != nil {
		return nil, err
	}

	msgType, payload, err := f.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	if msgType == websocket.BinaryMessage {
		return payload, nil
	}

	var serverErr protocol.ErrorResponse
	if json.Unmarshal(payload, &serverErr) == nil && serverErr.Error != "" {
		return nil, fmt.Errorf("fetch socket: %s", serverErr.Error)
	}
	return nil, fmt.Errorf("fetch socket: unexpected frame type %d", msgType)
}
