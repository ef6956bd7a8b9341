package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no document is stored under the key.
var ErrNotFound = errors.New("key not found")

// Entry is a single key/document pair for batch writes.
type Entry struct {
	Key   string
	Value []byte
}

// KV is the persistence port: an opaque key-value medium holding one
// serialized document per key.
type KV interface {
	// Get returns the document stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous document.
	Set(ctx context.Context, key string, value []byte) error

	// Remove deletes the document under key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}

// Batcher is implemented by adapters that can write several documents atomically.
type Batcher interface {
	SetMany(ctx context.Context, entries []Entry) error
}
