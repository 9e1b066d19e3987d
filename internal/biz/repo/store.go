package repo

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key does not exist or has expired.
var ErrNotFound = errors.New("store: key not found")

// Store is the durable keyed store contract. Every key carries an
// optional TTL; expired keys behave exactly like absent keys.
type Store interface {
	// Get retrieves the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set writes the value. A zero ttl means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// SetNX writes only if the key is absent. Returns true if the
	// write happened.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Expire updates a key's TTL. Returns false if the key is absent.
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Incr atomically increments an integer value, creating it at 1.
	Incr(ctx context.Context, key string) (int64, error)

	// Exists reports whether a live value is present for key.
	Exists(ctx context.Context, key string) (bool, error)

	// RPush appends values to the list at key, creating it if absent.
	RPush(ctx context.Context, key string, values ...string) error

	// LRange returns list elements in [start, stop], inclusive, with
	// negative indexes counted from the end.
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)

	// LSet overwrites the element at index. Errors if out of range.
	LSet(ctx context.Context, key string, index int64, value string) error

	// LRem removes all elements equal to value.
	LRem(ctx context.Context, key, value string) error

	// LLen returns the list length, 0 for an absent key.
	LLen(ctx context.Context, key string) (int64, error)

	// Drain atomically returns all list elements and deletes the key.
	Drain(ctx context.Context, key string) ([]string, error)

	// Close releases underlying resources.
	Close() error
}

// Cleaner is implemented by stores that need periodic purging of
// expired rows.
type Cleaner interface {
	// PurgeExpired removes expired rows, returning how many went away.
	PurgeExpired(ctx context.Context) (int64, error)
}
