package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/zulfikawr/fetchtrace/internal/protocol"
)

// fetchSocketServer is a minimal fetch-socket peer serving one object
func fetchSocketServer(t *testing.T, content []byte) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()

		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var req protocol.FetchRequest
			if err := json.Unmarshal(payload, &req); err != nil {
				return
			}

			switch req.Op {
			case protocol.OpStat:
				_ = conn.WriteJSON(protocol.StatResponse{Key: req.Key, Size: int64(len(content))})
			case protocol.OpFetch:
				if req.Start < 0 || req.End > int64(len(content)) || req.Start >= req.End {
					_ = conn.WriteJSON(protocol.ErrorResponse{Error: "invalid range"})
					continue
				}
				_ = conn.WriteMessage(websocket.BinaryMessage, content[req.Start:req.End])
			default:
				_ = conn.WriteJSON(protocol.ErrorResponse{Error: "unknown op"})
			}
		}
	}))
}

func wsURL(srv *httptest.Server, key string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + protocol.FetchSocketPath + "?key=" + key
}

func TestOpenWSAndFetch(t *testing.T) {
	content := []byte("0123456789abcdef")
	srv := fetchSocketServer(t, content)
	defer srv.Close()

	f, err := OpenWS(context.Background(), wsURL(srv, "data.bin"))
	if err != nil {
		t.Fatalf("OpenWS failed: %v", err)
	}
	defer func() { _ = f.Close() }()

	size, ok := f.Size()
	if !ok || size != int64(len(content)) {
		t.Errorf("Expected size %d, got %d (%v)", len(content), size, ok)
	}

	data, err := f.FetchRange(context.Background(), 8, 12)
	if err != nil {
		t.Fatalf("FetchRange failed: %v", err)
	}
	if string(data) != "89ab" {
		t.Errorf("Expected 89ab, got %s", data)
	}
}

func TestWSFetchServerError(t *testing.T) {
	srv := fetchSocketServer(t, []byte("short"))
	defer srv.Close()

	f, err := OpenWS(context.Background(), wsURL(srv, "data.bin"))
	if err != nil {
		t.Fatalf("OpenWS failed: %v", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.FetchRange(context.Background(), 0, 100); err == nil {
		t.Error("Expected error for out-of-bounds range")
	} else if !strings.Contains(err.Error(), "invalid range") {
		t.Errorf("Expected server error text, got: %v", err)
	}
}

func TestOpenWSMissingKey(t *testing.T) {
	srv := fetchSocketServer(t, nil)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + protocol.FetchSocketPath
	if _, err := OpenWS(context.Background(), url); err == nil {
		t.Error("Expected error for URL without key parameter")
	}
}
