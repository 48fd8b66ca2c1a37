package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Store is the cache contract shared by both tiers.
// Values are opaque bytes; callers marshal their own types (see GetJSON/SetJSON).
type Store interface {
	// Get returns the cached value, or false when absent or expired.
	Get(ctx context.Context, namespace, query string) ([]byte, bool)

	// Set stores the value under the namespaced key with the given TTL.
	// Writes are idempotent upserts; last-write-wins is acceptable.
	Set(ctx context.Context, namespace, query string, value []byte, ttl time.Duration)

	// Delete removes the entry if present.
	Delete(ctx context.Context, namespace, query string)

	// FlushAll clears the cache and returns per-tier eviction counts.
	FlushAll(ctx context.Context) FlushCounts
}

// FlushCounts reports how many entries each tier dropped on flush.
type FlushCounts struct {
	Memory int `json:"memory"`
	Shared int `json:"shared"`
}

// GetJSON fetches and unmarshals a cached value.
func GetJSON[T any](ctx context.Context, s Store, namespace, query string) (T, bool) {
	var out T
	data, ok := s.Get(ctx, namespace, query)
	if !ok {
		return out, false
	}
	if err := json.Unmarshal(data, &out); err != nil {
		// Corrupt entry: treat as a miss and drop it.
		s.Delete(ctx, namespace, query)
		return out, false
	}
	return out, true
}

// SetJSON marshals and stores a value. Marshal failures are silently dropped;
// caching is always best-effort.
func SetJSON[T any](ctx context.Context, s Store, namespace, query string, value T, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	s.Set(ctx, namespace, query, data, ttl)
}
