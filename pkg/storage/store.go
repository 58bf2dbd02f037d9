// Package storage defines the key-value backend used by the price cache
// and provides in-memory, bbolt, and Redis implementations.
package storage

import "context"

// Store is a minimal asynchronous key-value backend.
//
// A missing key is a normal result, not an error: Get returns ok=false and a
// nil error. Errors are reserved for backend failures (I/O, connectivity).
type Store interface {
	// Get returns the stored value for key, or ok=false if absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes the value for key. Deleting a missing key is a no-op.
	Delete(ctx context.Context, key string) error

	// Clear removes all keys.
	Clear(ctx context.Context) error

	// Keys returns all stored keys.
	Keys(ctx context.Context) ([]string, error)
}
