package remote

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// FetchFunc performs the raw byte-range transfer for a handle. The
// dispatch table maps variant keys to the FetchFunc currently in
// effect; swapping an entry changes the behavior of every handle of
// that variant, which is how the monitor interposes itself.
type FetchFunc func(ctx context.Context, f File, start, end int64) ([]byte, error)

var (
	// ErrNotRegistered means no variant with that key exists in this build
	ErrNotRegistered = errors.New("remote: variant not registered")

	// ErrIntercepted means the variant's entry is already swapped out
	ErrIntercepted = errors.New("remote: variant already intercepted")

	// ErrNotIntercepted means there is nothing to restore for the variant
	ErrNotIntercepted = errors.New("remote: variant not intercepted")
)

var (
	tabMu sync.RWMutex
	table = make(map[string]FetchFunc)
	saved = make(map[string]FetchFunc) // originals, held while intercepted
)

// Register installs the raw fetch implementation for a variant.
// Called from variant init functions; later registrations replace
// earlier ones, so a variant key has exactly one raw implementation.
func Register(variant string, fn FetchFunc) {
	tabMu.Lock()
	defer tabMu.Unlock()
	table[variant] = fn
}

// Registered reports whether a variant exists in the dispatch table
func Registered(variant string) bool {
	tabMu.RLock()
	defer tabMu.RUnlock()
	_, ok := table[variant]
	return ok
}

// Variants returns the keys of all registered variants, sorted
func Variants() []string {
	tabMu.RLock()
	defer tabMu.RUnlock()
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Lookup returns the FetchFunc currently in effect for a variant
func Lookup(variant string) (FetchFunc, bool) {
	tabMu.RLock()
	defer tabMu.RUnlock()
	fn, ok := table[variant]
	return fn, ok
}

// Dispatch routes a handle's fetch through the table entry for its
// variant. Handles call this from their FetchRange methods.
func Dispatch(ctx context.Context, f File, start, end int64) ([]byte, error) {
	tabMu.RLock()
	fn, ok := table[f.Variant()]
	tabMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, f.Variant())
	}
	return fn(ctx, f, start, end)
}

// Intercept swaps a variant's table entry for wrap(original), saving
// the original for Restore. At most one intercept can be active per
// variant; a second attempt fails rather than stacking wrappers.
func Intercept(variant string, wrap func(FetchFunc) FetchFunc) error {
	tabMu.Lock()
	defer tabMu.Unlock()

	fn, ok := table[variant]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotRegistered, variant)
	}
	if _, active := saved[variant]; active {
		return fmt.Errorf("%w: %s", ErrIntercepted, variant)
	}

	saved[variant] = fn
	table[variant] = wrap(fn)
	return nil
}

// Restore puts back the entry captured by the matching Intercept.
func Restore(variant string) error {
	tabMu.Lock()
	defer tabMu.Unlock()

	fn, active := saved[variant]
	if !active {
		return fmt.Errorf("%w: %s", ErrNotIntercepted, variant)
	}

	table[variant] = fn
	delete(saved, variant)
	return nil
}
