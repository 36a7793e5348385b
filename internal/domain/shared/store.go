package shared

import "context"

// KeyValueStore is a generic durable key/value store scoped by string keys.
// It has no cart-specific knowledge; callers own their key layout and value
// encoding. Implementations must be safe for concurrent use.
type KeyValueStore interface {
	// Get returns the stored value for key. The second return value is false
	// when the key is absent (absence is not an error).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Remove deletes key. Removing an absent key is a no-op.
	Remove(ctx context.Context, key string) error
}
