package providers

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Get when a key has never been written.
var ErrKeyNotFound = errors.New("state store: key not found")

// Stable durable-storage keys. Each holds one JSON-serialized document.
const (
	StateKeyHistory   = "searchctx:history"
	StateKeyContext   = "searchctx:context"
	StateKeyPatterns  = "searchctx:patterns"
	StateKeySnapshots = "searchctx:snapshots"
)

// StateStore is the durable key-value persistence contract. Reads and
// writes may fail; callers treat failures as non-fatal and keep the
// in-memory state authoritative.
type StateStore interface {
	// Get retrieves the value stored under key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes the value stored under key
	Delete(ctx context.Context, key string) error

	// Close releases the underlying client
	Close() error
}
