package services

import (
	"context"
	"errors"
	"time"
)

// ErrKVMiss is returned when a key is absent or expired. History treats
// it as "nothing stored yet"; it is never a failure.
var ErrKVMiss = errors.New("kv: key not found")

// KVStore is the persistence capability the engine stores history
// through. Implementations must return ErrKVMiss for absent keys and be
// safe for concurrent use. A ttl of zero means no expiry.
type KVStore interface {
	// Get returns the value stored under key.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key with an optional expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Clear removes every key this store owns.
	Clear(ctx context.Context) error

	// Exists reports whether a key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// GetTTL returns the remaining lifetime of a key; zero when the key
	// is absent or has no expiry.
	GetTTL(ctx context.Context, key string) (time.Duration, error)

	// GetStats returns implementation-defined counters for the admin
	// surface.
	GetStats(ctx context.Context) (map[string]interface{}, error)

	// Close releases the underlying connections.
	Close() error
}
