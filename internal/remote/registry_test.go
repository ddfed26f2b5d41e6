package remote

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

// tableFile is a minimal handle for exercising the dispatch table
type tableFile struct {
	variant string
	source  string
}

func (f *tableFile) FetchRange(ctx context.Context, start, end int64) ([]byte, error) {
	return Dispatch(ctx, f, start, end)
}
func (f *tableFile) Source() string      { return f.source }
func (f *tableFile) Size() (int64, bool) { return 0, false }
func (f *tableFile) Variant() string     { return f.variant }
func (f *tableFile) Close() error        { return nil }

func TestRegisterAndDispatch(t *testing.T) {
	Register("reg-test", func(_ context.Context, _ File, start, end int64) ([]byte, error) {
		return make([]byte, end-start), nil
	})

	f := &tableFile{variant: "reg-test", source: "test://x"}
	data, err := f.FetchRange(context.Background(), 0, 10)
	if err != nil {
		t.Fatalf("FetchRange failed: %v", err)
	}
	if len(data) != 10 {
		t.Errorf("Expected 10 bytes, got %d", len(data))
	}

	if !Registered("reg-test") {
		t.Error("Expected reg-test to be registered")
	}
}

func TestDispatchUnregistered(t *testing.T) {
	f := &tableFile{variant: "never-registered"}
	if _, err := f.FetchRange(context.Background(), 0, 1); !errors.Is(err, ErrNotRegistered) {
		t.Errorf("Expected ErrNotRegistered, got %v", err)
	}
}

func TestInterceptWrapsAndRestores(t *testing.T) {
	Register("wrap-test", func(_ context.Context, _ File, start, end int64) ([]byte, error) {
		return []byte("original"), nil
	})

	original, _ := Lookup("wrap-test")

	var wrapped int
	err := Intercept("wrap-test", func(next FetchFunc) FetchFunc {
		return func(ctx context.Context, f File, start, end int64) ([]byte, error) {
			wrapped++
			return next(ctx, f, start, end)
		}
	})
	if err != nil {
		t.Fatalf("Intercept failed: %v", err)
	}

	f := &tableFile{variant: "wrap-test"}
	data, err := f.FetchRange(context.Background(), 0, 1)
	if err != nil {
		t.Fatalf("FetchRange failed: %v", err)
	}
	if string(data) != "original" {
		t.Errorf("Wrapper changed the result: %q", data)
	}
	if wrapped != 1 {
		t.Errorf("Expected wrapper to run once, ran %d times", wrapped)
	}

	if err := Restore("wrap-test"); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	// Restoration must put back the exact captured implementation
	restored, _ := Lookup("wrap-test")
	if reflect.ValueOf(restored).Pointer() != reflect.ValueOf(original).Pointer() {
		t.Error("Restored entry is not the captured original")
	}

	// The wrapper must be gone
	if _, err := f.FetchRange(context.Background(), 0, 1); err != nil {
		t.Fatalf("FetchRange after restore failed: %v", err)
	}
	if wrapped != 1 {
		t.Errorf("Wrapper still active after restore: ran %d times", wrapped)
	}
}

func TestInterceptTwiceFails(t *testing.T) {
	Register("double-test", func(_ context.Context, _ File, start, end int64) ([]byte, error) {
		return nil, nil
	})

	identity := func(next FetchFunc) FetchFunc { return next }

	if err := Intercept("double-test", identity); err != nil {
		t.Fatalf("First intercept failed: %v", err)
	}
	defer func() { _ = Restore("double-test") }()

	if err := Intercept("double-test", identity); !errors.Is(err, ErrIntercepted) {
		t.Errorf("Expected ErrIntercepted, got %v", err)
	}
}

func TestInterceptUnregistered(t *testing.T) {
	err := Intercept("no-such-variant", func(next FetchFunc) FetchFunc { return next })
	if !errors.Is(err, ErrNotRegistered) {
		t.Errorf("Expected ErrNotRegistered, got %v", err)
	}
}

func TestRestoreWithoutIntercept(t *testing.T) {
	Register("restore-test", func(_ context.Context, _ File, start, end int64) ([]byte, error) {
		return nil, nil
	})

	if err := Restore("restore-test"); !errors.Is(err, ErrNotIntercepted) {
		t.Errorf("Expected ErrNotIntercepted, got %v", err)
	}
}

func TestBuiltinVariantsRegistered(t *testing.T) {
	for _, variant := range []string{VariantHTTP, VariantLocal, VariantBlob, VariantWS} {
		if !Registered(variant) {
			t.Errorf("Expected built-in variant %s to be registered", variant)
		}
	}
}
