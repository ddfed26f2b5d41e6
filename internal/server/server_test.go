package server

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/zulfikawr/fetchtrace/internal/blobstore"
	"github.com/zulfikawr/fetchtrace/internal/protocol"
	"github.com/zulfikawr/fetchtrace/internal/remote"
)

// newTestServer returns a handler-backed test server over a store
// holding one object
func newTestServer(t *testing.T, key string, content []byte) (*httptest.Server, *Server) {
	t.Helper()
	store, err := blobstore.Open(t.TempDir(), false)
	if err != nil {
		t.Fatalf("Open store failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if err := store.Put(key, content); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	s := &Server{Store: store}
	srv := httptest.NewServer(s.handler())
	t.Cleanup(srv.Close)
	return srv, s
}

func TestObjectFullGet(t *testing.T) {
	content := []byte("0123456789abcdef")
	srv, _ := newTestServer(t, "data.bin", content)

	resp, err := http.Get(srv.URL + "/o/data.bin")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !bytes.Equal(body, content) {
		t.Errorf("Body mismatch: %q", body)
	}
	if resp.Header.Get("Accept-Ranges") != "bytes" {
		t.Error("Expected Accept-Ranges: bytes")
	}
}

func TestObjectRangeGet(t *testing.T) {
	content := []byte("0123456789abcdef")
	srv, _ := newTestServer(t, "data.bin", content)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/o/data.bin", nil)
	req.Header.Set("Range", "bytes=4-9")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusPartialContent {
		t.Errorf("Expected 206, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "456789" {
		t.Errorf("Expected 456789, got %s", body)
	}
	if cr := resp.Header.Get("Content-Range"); cr != "bytes 4-9/16" {
		t.Errorf("Expected bytes 4-9/16, got %s", cr)
	}
}

func TestObjectHead(t *testing.T) {
	srv, _ := newTestServer(t, "data.bin", make([]byte, 4096))

	resp, err := http.Head(srv.URL + "/o/data.bin")
	if err != nil {
		t.Fatalf("HEAD failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.ContentLength != 4096 {
		t.Errorf("Expected Content-Length 4096, got %d", resp.ContentLength)
	}
}

func TestObjectInvalidRange(t *testing.T) {
	srv, _ := newTestServer(t, "data.bin", []byte("short"))

	for _, header := range []string{"bytes=99-200", "bytes=5-2", "bytes=x-y", "bytes=0-1,3-4"} {
		req, _ := http.NewRequest(http.MethodGet, srv.URL+"/o/data.bin", nil)
		req.Header.Set("Range", header)

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("GET failed: %v", err)
		}
		_ = resp.Body.Close()

		if resp.StatusCode != http.StatusRequestedRangeNotSatisfiable {
			t.Errorf("Range %q: expected 416, got %d", header, resp.StatusCode)
		}
	}
}

func TestObjectNotFound(t *testing.T) {
	srv, _ := newTestServer(t, "data.bin", []byte("x"))

	resp, err := http.Get(srv.URL + "/o/no-such-object")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", resp.StatusCode)
	}
}

func TestParseRangeHeader(t *testing.T) {
	cases := []struct {
		header     string
		size       int64
		start, end int64
		ok         bool
	}{
		{"bytes=0-9", 100, 0, 10, true},
		{"bytes=10-", 100, 10, 100, true},
		{"bytes=-20", 100, 80, 100, true},
		{"bytes=-200", 100, 0, 100, true},
		{"bytes=90-200", 100, 90, 100, true}, // clamp past EOF
		{"bytes=100-110", 100, 0, 0, false},  // start at EOF
		{"bytes=5-2", 100, 0, 0, false},
		{"bytes=0-1,5-6", 100, 0, 0, false}, // multi-range unsupported
		{"chunks=0-1", 100, 0, 0, false},
		{"bytes=-0", 100, 0, 0, false},
	}

	for _, c := range cases {
		start, end, ok := parseRangeHeader(c.header, c.size)
		if ok != c.ok || (ok && (start != c.start || end != c.end)) {
			t.Errorf("%q/%d: expected [%d, %d) ok=%v, got [%d, %d) ok=%v",
				c.header, c.size, c.start, c.end, c.ok, start, end, ok)
		}
	}
}

func TestHTTPVariantAgainstServer(t *testing.T) {
	content := bytes.Repeat([]byte("fetchtrace"), 1000)
	srv, _ := newTestServer(t, "data.bin", content)

	f, err := remote.OpenHTTP(context.Background(), srv.URL+"/o/data.bin", nil)
	if err != nil {
		t.Fatalf("OpenHTTP failed: %v", err)
	}

	size, ok := f.Size()
	if !ok || size != int64(len(content)) {
		t.Errorf("Expected size %d, got %d (%v)", len(content), size, ok)
	}

	got, err := io.ReadAll(remote.NewBlockReader(context.Background(), f, 1024))
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Error("Content mismatch through block reader")
	}
}

func TestFetchSocketAgainstServer(t *testing.T) {
	content := []byte("0123456789abcdef")
	srv, _ := newTestServer(t, "data.bin", content)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + protocol.FetchSocketPath + "?key=data.bin"
	f, err := remote.OpenWS(context.Background(), url)
	if err != nil {
		t.Fatalf("OpenWS failed: %v", err)
	}
	defer func() { _ = f.Close() }()

	size, ok := f.Size()
	if !ok || size != int64(len(content)) {
		t.Errorf("Expected size %d, got %d (%v)", len(content), size, ok)
	}

	data, err := f.FetchRange(context.Background(), 4, 8)
	if err != nil {
		t.Fatalf("FetchRange failed: %v", err)
	}
	if string(data) != "4567" {
		t.Errorf("Expected 4567, got %s", data)
	}

	// Missing objects surface as fetch errors, not hangs
	badURL := "ws" + strings.TrimPrefix(srv.URL, "http") + protocol.FetchSocketPath + "?key=missing"
	if bad, err := remote.OpenWS(context.Background(), badURL); err == nil {
		// Stat failures leave the size unknown; the fetch itself errors
		if _, err := bad.FetchRange(context.Background(), 0, 4); err == nil {
			t.Error("Expected error fetching missing object")
		}
		_ = bad.Close()
	}
}

func TestStartAndShutdown(t *testing.T) {
	store, err := blobstore.Open(t.TempDir(), false)
	if err != nil {
		t.Fatalf("Open store failed: %v", err)
	}
	defer func() { _ = store.Close() }()
	if err := store.Put("k", []byte("v")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	s := &Server{ListenAddr: "127.0.0.1:0", Store: store}
	base, err := s.Start()
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer func() { _ = s.Shutdown() }()

	resp, err := http.Get(base + "/health")
	if err != nil {
		t.Fatalf("Health check failed: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200 from /health, got %d", resp.StatusCode)
	}

	resp, err = http.Get(base + "/metrics")
	if err != nil {
		t.Fatalf("Metrics failed: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200 from /metrics, got %d", resp.StatusCode)
	}
}
