package blobstore

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestPutGetRoundTrip(t *testing.T) {
	store, err := Open(t.TempDir(), false)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer func() { _ = store.Close() }()

	data := []byte("hello byte-range world")
	if err := store.Put("data/test.bin", data); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.Get("data/test.bin")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("Expected %q, got %q", data, got)
	}

	size, err := store.Stat("data/test.bin")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if size != int64(len(data)) {
		t.Errorf("Expected size %d, got %d", len(data), size)
	}
}

func TestCompressedRoundTrip(t *testing.T) {
	root := t.TempDir()
	store, err := Open(root, true)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer func() { _ = store.Close() }()

	// Repetitive content so compression actually shrinks it
	data := bytes.Repeat([]byte("0123456789abcdef"), 4096)
	if err := store.Put("big.bin", data); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// On disk it must be the encoded form
	fi, err := os.Stat(filepath.Join(root, "big.bin.zst"))
	if err != nil {
		t.Fatalf("Expected encoded object on disk: %v", err)
	}
	if fi.Size() >= int64(len(data)) {
		t.Errorf("Expected encoded size < %d, got %d", len(data), fi.Size())
	}

	got, err := store.Get("big.bin")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Error("Decoded content does not match original")
	}

	// Stat must report the logical size, not the on-disk size
	size, err := store.Stat("big.bin")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if size != int64(len(data)) {
		t.Errorf("Expected logical size %d, got %d", len(data), size)
	}
}

func TestReadRange(t *testing.T) {
	for _, compress := range []bool{false, true} {
		store, err := Open(t.TempDir(), compress)
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}

		data := []byte("0123456789")
		if err := store.Put("obj", data); err != nil {
			t.Fatalf("Put failed: %v", err)
		}

		got, err := store.ReadRange("obj", 2, 6)
		if err != nil {
			t.Fatalf("ReadRange failed (compress=%v): %v", compress, err)
		}
		if string(got) != "2345" {
			t.Errorf("Expected 2345, got %s", got)
		}

		// Past-EOF range is rejected, not truncated
		if _, err := store.ReadRange("obj", 5, 20); !errors.Is(err, ErrBadRange) {
			t.Errorf("Expected ErrBadRange, got %v", err)
		}

		if _, err := store.ReadRange("obj", -1, 5); !errors.Is(err, ErrBadRange) {
			t.Errorf("Expected ErrBadRange for negative start, got %v", err)
		}

		_ = store.Close()
	}
}

func TestGetMissing(t *testing.T) {
	store, err := Open(t.TempDir(), false)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer func() { _ = store.Close() }()

	if _, err := store.Get("no-such-key"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	if _, err := store.Stat("no-such-key"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestBadKeys(t *testing.T) {
	store, err := Open(t.TempDir(), false)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer func() { _ = store.Close() }()

	for _, key := range []string{"", "/etc/passwd", "../escape", "a/../../escape"} {
		if err := store.Put(key, []byte("x")); !errors.Is(err, ErrBadKey) {
			t.Errorf("Expected ErrBadKey for %q, got %v", key, err)
		}
	}
}

func TestList(t *testing.T) {
	store, err := Open(t.TempDir(), true)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.Put("a/b.bin", []byte("x")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Put("c.bin", []byte("y")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	keys, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("Expected 2 keys, got %d: %v", len(keys), keys)
	}
}
