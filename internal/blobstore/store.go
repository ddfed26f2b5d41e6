package blobstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// zstExt marks objects stored zstd-encoded on disk
const zstExt = ".zst"

var (
	// ErrNotFound is returned when no object exists under a key
	ErrNotFound = errors.New("blobstore: object not found")

	// ErrBadKey is returned for keys that would escape the store root
	ErrBadKey = errors.New("blobstore: invalid key")

	// ErrBadRange is returned for ranges outside [0, size)
	ErrBadRange = errors.New("blobstore: invalid byte range")
)

// Store is a local bucket of named objects, the object-storage
// analogue the blob file variant reads from. Objects are plain files
// under root, optionally zstd-encoded when the store was opened with
// compression enabled. Reads accept either encoding regardless of the
// write-side setting.
type Store struct {
	root     string
	compress bool
	enc      *zstd.Encoder
	dec      *zstd.Decoder
}

// Open opens (creating if needed) a store rooted at root.
func Open(root string, compress bool) (*Store, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("cannot create store root: %w", err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("cannot create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("cannot create zstd decoder: %w", err)
	}

	return &Store{root: root, compress: compress, enc: enc, dec: dec}, nil
}

// Root returns the store's root directory
func (s *Store) Root() string {
	return s.root
}

// Close releases the codec resources
func (s *Store) Close() error {
	_ = s.enc.Close()
	s.dec.Close()
	return nil
}

// cleanKey validates a key and resolves it below the store root
func (s *Store) cleanKey(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") {
		return "", ErrBadKey
	}
	clean := filepath.Clean(key)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", ErrBadKey
	}
	return filepath.Join(s.root, clean), nil
}

// Put stores data under key, zstd-encoded if the store compresses.
func (s *Store) Put(key string, data []byte) error {
	path, err := s.cleanKey(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("cannot create object directory: %w", err)
	}

	if s.compress {
		// EncodeAll writes the frame content size so Stat can read the
		// logical size back from the header without decoding
		encoded := s.enc.EncodeAll(data, make([]byte, 0, len(data)/2))
		return os.WriteFile(path+zstExt, encoded, 0644)
	}
	return os.WriteFile(path, data, 0644)
}

// locate finds the on-disk file for key, preferring the plain encoding
func (s *Store) locate(key string) (path string, compressed bool, err error) {
	path, err = s.cleanKey(key)
	if err != nil {
		return "", false, err
	}
	if _, statErr := os.Stat(path); statErr == nil {
		return path, false, nil
	}
	if _, statErr := os.Stat(path + zstExt); statErr == nil {
		return path + zstExt, true, nil
	}
	return "", false, ErrNotFound
}

// Get returns the full logical content of the object under key.
func (s *Store) Get(key string) ([]byte, error) {
	path, compressed, err := s.locate(key)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read object: %w", err)
	}
	if !compressed {
		return raw, nil
	}
	data, err := s.dec.DecodeAll(raw, nil)
	if err != nil {
		return nil, fmt.Errorf("cannot decode object: %w", err)
	}
	return data, nil
}

// Stat returns the logical (decoded) size of the object under key.
func (s *Store) Stat(key string) (int64, error) {
	path, compressed, err := s.locate(key)
	if err != nil {
		return 0, err
	}
	if !compressed {
		fi, err := os.Stat(path)
		if err != nil {
			return 0, fmt.Errorf("cannot stat object: %w", err)
		}
		return fi.Size(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("cannot read object: %w", err)
	}
	var header zstd.Header
	if err := header.Decode(raw); err == nil && header.HasFCS {
		return int64(header.FrameContentSize), nil
	}
	// Frame without a content size field; fall back to decoding
	data, err := s.dec.DecodeAll(raw, nil)
	if err != nil {
		return 0, fmt.Errorf("cannot decode object: %w", err)
	}
	return int64(len(data)), nil
}

// ReadRange returns the bytes [start, end) of the object under key.
func (s *Store) ReadRange(key string, start, end int64) ([]byte, error) {
	if start < 0 || end < start {
		return nil, ErrBadRange
	}

	path, compressed, err := s.locate(key)
	if err != nil {
		return nil, err
	}

	if compressed {
		data, err := s.Get(key)
		if err != nil {
			return nil, err
		}
		if end > int64(len(data)) {
			return nil, ErrBadRange
		}
		out := make([]byte, end-start)
		copy(out, data[start:end])
		return out, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open object: %w", err)
	}
	defer func() { _ = f.Close() }()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("cannot stat object: %w", err)
	}
	if end > fi.Size() {
		return nil, ErrBadRange
	}

	buf := make([]byte, end-start)
	if _, err := f.ReadAt(buf, start); err != nil {
		return nil, fmt.Errorf("cannot read object range: %w", err)
	}
	return buf, nil
}

// List returns the keys of all objects in the store.
func (s *Store) List() ([]string, error) {
	var keys []string
	err := filepath.Walk(s.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		keys = append(keys, strings.TrimSuffix(filepath.ToSlash(rel), zstExt))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cannot list store: %w", err)
	}
	return keys, nil
}
