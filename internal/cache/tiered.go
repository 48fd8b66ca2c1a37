package cache

import (
	"context"
	"time"
)

// TieredStore layers an optional shared tier over the in-process tier.
//
// Reads prefer the shared store and fall back to the in-process tier; writes
// go to both (write-through). When no shared tier is configured the memory
// tier serves alone.
type TieredStore struct {
	memory Store
	shared Store // nil when unconfigured
}

var _ Store = (*TieredStore)(nil)

// NewTieredStore builds the two-tier cache. shared may be nil.
func NewTieredStore(memory, shared Store) *TieredStore {
	return &TieredStore{memory: memory, shared: shared}
}

// Get prefers the shared tier, falling back to the in-process value.
// A shared-tier failure surfaces as a miss there, never as an error.
func (t *TieredStore) Get(ctx context.Context, namespace, query string) ([]byte, bool) {
	if t.shared != nil {
		if data, ok := t.shared.Get(ctx, namespace, query); ok {
			return data, true
		}
	}
	return t.memory.Get(ctx, namespace, query)
}

// Set always writes the in-process tier and writes through to the shared
// tier when configured.
func (t *TieredStore) Set(ctx context.Context, namespace, query string, value []byte, ttl time.Duration) {
	t.memory.Set(ctx, namespace, query, value, ttl)
	if t.shared != nil {
		t.shared.Set(ctx, namespace, query, value, ttl)
	}
}

// Delete removes the entry from both tiers.
func (t *TieredStore) Delete(ctx context.Context, namespace, query string) {
	t.memory.Delete(ctx, namespace, query)
	if t.shared != nil {
		t.shared.Delete(ctx, namespace, query)
	}
}

// FlushAll clears both tiers and merges the counts.
func (t *TieredStore) FlushAll(ctx context.Context) FlushCounts {
	counts := t.memory.FlushAll(ctx)
	if t.shared != nil {
		shared := t.shared.FlushAll(ctx)
		counts.Shared = shared.Shared
	}
	return counts
}
