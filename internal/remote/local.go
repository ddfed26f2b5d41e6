package remote

import (
	"context"
	"fmt"
	"os"
)

func init() {
	Register(VariantLocal, func(ctx context.Context, f File, start, end int64) ([]byte, error) {
		return f.(*LocalFile).fetchRange(ctx, start, end)
	})
}

// LocalFile is a file handle over the local filesystem. It exists so
// read patterns can be traced against local copies with the exact
// same instrumentation as remote ones.
type LocalFile struct {
	path string
	f    *os.File
	size int64
}

// OpenLocal opens a handle on a local file
func OpenLocal(path string) (*LocalFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &LocalFile{path: path, f: f, size: fi.Size()}, nil
}

// Source returns the file path
func (f *LocalFile) Source() string {
	return f.path
}

// Size returns the file size
func (f *LocalFile) Size() (int64, bool) {
	return f.size, true
}

// Variant returns the dispatch table key
func (f *LocalFile) Variant() string {
	return VariantLocal
}

// Close closes the underlying file
func (f *LocalFile) Close() error {
	return f.f.Close()
}

// FetchRange fetches the bytes [start, end) through the dispatch table
func (f *LocalFile) FetchRange(ctx context.Context, start, end int64) ([]byte, error) {
	return Dispatch(ctx, f, start, end)
}

// fetchRange is the raw transfer registered in the dispatch table
func (f *LocalFile) fetchRange(_ context.Context, start, end int64) ([]byte, error) {
	if err := checkRange(start, end); err != nil {
		return nil, err
	}
	if end > f.size {
		return nil, fmt.Errorf("range [%d, %d) beyond size %d", start, end, f.size)
	}

	buf := make([]byte, end-start)
	if _, err := f.f.ReadAt(buf, start); err != nil {
		return nil, err
	}
	return buf, nil
}
