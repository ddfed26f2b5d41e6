package remote

import (
	"context"

	"github.com/zulfikawr/fetchtrace/internal/blobstore"
)

func init() {
	Register(VariantBlob, func(ctx context.Context, f File, start, end int64) ([]byte, error) {
		return f.(*BlobFile).fetchRange(ctx, start, end)
	})
}

// BlobFile is a file handle over an object in a blobstore bucket, the
// object-storage-backed variant.
type BlobFile struct {
	store *blobstore.Store
	key   string
	size  int64
}

// OpenBlob opens a handle on the object stored under key
func OpenBlob(store *blobstore.Store, key string) (*BlobFile, error) {
	size, err := store.Stat(key)
	if err != nil {
		return nil, err
	}
	return &BlobFile{store: store, key: key, size: size}, nil
}

// Source returns the object identifier
func (f *BlobFile) Source() string {
	return "blob://" + f.key
}

// Size returns the object's logical size
func (f *BlobFile) Size() (int64, bool) {
	return f.size, true
}

// Variant returns the dispatch table key
func (f *BlobFile) Variant() string {
	return VariantBlob
}

// Close releases the handle; the store itself stays open
func (f *BlobFile) Close() error {
	return nil
}

// FetchRange fetches the bytes [start, end) through the dispatch table
func (f *BlobFile) FetchRange(ctx context.Context, start, end int64) ([]byte, error) {
	return Dispatch(ctx, f, start, end)
}

// fetchRange is the raw transfer registered in the dispatch table
func (f *BlobFile) fetchRange(_ context.Context, start, end int64) ([]byte, error) {
	if err := checkRange(start, end); err != nil {
		return nil, err
	}
	return f.store.ReadRange(f.key, start, end)
}
