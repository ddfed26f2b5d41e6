package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// rangeServer serves content with proper Range support and records
// the Range headers it saw
func rangeServer(content []byte, seen *[]string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Length", strconv.Itoa(len(content)))
			return
		}

		rangeHeader := r.Header.Get("Range")
		if seen != nil {
			*seen = append(*seen, rangeHeader)
		}
		if rangeHeader == "" {
			_, _ = w.Write(content)
			return
		}

		var start, end int64
		if _, err := fmt.Sscanf(rangeHeader, "bytes=%d-%d", &start, &end); err != nil {
			http.Error(w, "bad range", http.StatusRequestedRangeNotSatisfiable)
			return
		}
		if end >= int64(len(content)) {
			end = int64(len(content)) - 1
		}
		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, len(content)))
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write(content[start : end+1])
	}))
}

func TestOpenHTTPSize(t *testing.T) {
	content := []byte("0123456789abcdef")
	srv := rangeServer(content, nil)
	defer srv.Close()

	f, err := OpenHTTP(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("OpenHTTP failed: %v", err)
	}
	defer func() { _ = f.Close() }()

	size, ok := f.Size()
	if !ok {
		t.Fatal("Expected size to be known after HEAD")
	}
	if size != int64(len(content)) {
		t.Errorf("Expected size %d, got %d", len(content), size)
	}

	if f.Variant() != VariantHTTP {
		t.Errorf("Expected variant http, got %s", f.Variant())
	}
	if f.Source() != srv.URL {
		t.Errorf("Expected source %s, got %s", srv.URL, f.Source())
	}
}

func TestHTTPFetchRange(t *testing.T) {
	content := []byte("0123456789abcdef")
	var seen []string
	srv := rangeServer(content, &seen)
	defer srv.Close()

	f, err := OpenHTTP(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("OpenHTTP failed: %v", err)
	}

	data, err := f.FetchRange(context.Background(), 4, 10)
	if err != nil {
		t.Fatalf("FetchRange failed: %v", err)
	}
	if string(data) != "456789" {
		t.Errorf("Expected 456789, got %s", data)
	}

	// The request must carry an inclusive Range header for [4, 10)
	if len(seen) != 1 || seen[0] != "bytes=4-9" {
		t.Errorf("Expected Range bytes=4-9, saw %v", seen)
	}
}

func TestHTTPFetchRangeIgnoredByServer(t *testing.T) {
	// A server that sends the full body despite the Range header
	content := []byte("0123456789")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(content)
	}))
	defer srv.Close()

	f, err := OpenHTTP(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("OpenHTTP failed: %v", err)
	}

	data, err := f.FetchRange(context.Background(), 2, 5)
	if err != nil {
		t.Fatalf("FetchRange failed: %v", err)
	}
	if string(data) != "234" {
		t.Errorf("Expected 234, got %s", data)
	}
}

func TestHTTPFetchRangeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	f, err := OpenHTTP(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("OpenHTTP failed: %v", err)
	}

	if _, err := f.FetchRange(context.Background(), 0, 10); err == nil {
		t.Error("Expected error from 403 response")
	} else if !strings.Contains(err.Error(), "403") {
		t.Errorf("Expected status in error, got: %v", err)
	}
}

func TestHTTPFetchRangeInvalid(t *testing.T) {
	srv := rangeServer([]byte("xx"), nil)
	defer srv.Close()

	f, err := OpenHTTP(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("OpenHTTP failed: %v", err)
	}

	if _, err := f.FetchRange(context.Background(), 5, 5); err == nil {
		t.Error("Expected error for empty range")
	}
	if _, err := f.FetchRange(context.Background(), -1, 5); err == nil {
		t.Error("Expected error for negative start")
	}
}

func TestHTTPFetchRangeConcurrent(t *testing.T) {
	// One handle fetched from many goroutines: fetchRange updates the
	// size from Content-Range while Size reads it, which must be safe
	// under the race detector
	content := []byte("0123456789abcdef0123456789abcdef")
	srv := rangeServer(content, nil)
	defer srv.Close()

	f, err := OpenHTTP(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("OpenHTTP failed: %v", err)
	}

	var wg sync.WaitGroup
	errCh := make(chan error, 8)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				start := int64((g*10 + i) % 16)
				if _, err := f.FetchRange(context.Background(), start, start+8); err != nil {
					errCh <- err
					return
				}
				if size, ok := f.Size(); ok && size != int64(len(content)) {
					errCh <- fmt.Errorf("size %d, want %d", size, len(content))
					return
				}
			}
		}(g)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Errorf("concurrent fetch failed: %v", err)
	}
}

func TestParseTotalSize(t *testing.T) {
	if size, ok := parseTotalSize("bytes 0-9/100"); !ok || size != 100 {
		t.Errorf("Expected 100, got %d (%v)", size, ok)
	}
	if _, ok := parseTotalSize("bytes 0-9/*"); ok {
		t.Error("Expected unknown size for */")
	}
	if _, ok := parseTotalSize(""); ok {
		t.Error("Expected unknown size for empty header")
	}
}
