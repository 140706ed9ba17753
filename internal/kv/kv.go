// Package kv defines the key-value slot storage the portal persists into, with
// SQL (SQLite, Postgres), bbolt, Redis and in-memory backends.
package kv

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when a key has no value.
var ErrNotFound = errors.New("kv: key not found")

// Store is a flat key-value store. Values are opaque blobs; callers own the
// serialization. Keys may carry a '/'-separated prefix.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put overwrites the value stored under key.
	Put(ctx context.Context, key string, value []byte) error
	// PutIfAbsent atomically stores value under key unless a live value
	// already exists, and returns whichever value is stored afterwards.
	PutIfAbsent(ctx context.Context, key string, value []byte) ([]byte, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases the backend.
	Close() error
}

// Expirer is implemented by stores that can drop a value after a deadline.
type Expirer interface {
	PutWithExpiry(ctx context.Context, key string, value []byte, expiresAt time.Time) error
}

// PutWithExpiry stores a value that may be dropped after expiresAt. Backends
// without native expiry keep the value forever; callers that care must also
// check the deadline themselves.
func PutWithExpiry(ctx context.Context, s Store, key string, value []byte, expiresAt time.Time) error {
	if e, ok := s.(Expirer); ok {
		return e.PutWithExpiry(ctx, key, value, expiresAt)
	}
	return s.Put(ctx, key, value)
}
