package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMemorySize is the default in-process LRU capacity.
const DefaultMemorySize = 2048

// memoryEntry pairs a value with its expiry timestamp.
type memoryEntry struct {
	value   []byte
	expires time.Time
}

// MemoryStore is the bounded in-process tier. Entries expire passively on
// read; there is no background sweep. LRU eviction bounds memory.
type MemoryStore struct {
	lru *lru.Cache[string, memoryEntry]
	now func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an in-process cache with the given capacity.
func NewMemoryStore(size int) *MemoryStore {
	if size <= 0 {
		size = DefaultMemorySize
	}
	c, _ := lru.New[string, memoryEntry](size)
	return &MemoryStore{lru: c, now: time.Now}
}

// Get returns the value if present and unexpired. Expired entries are
// evicted lazily here.
func (m *MemoryStore) Get(_ context.Context, namespace, query string) ([]byte, bool) {
	key := Key(namespace, query)
	entry, ok := m.lru.Get(key)
	if !ok {
		return nil, false
	}
	if m.now().After(entry.expires) {
		m.lru.Remove(key)
		return nil, false
	}
	return entry.value, true
}

// Set stores the value, refreshing the expiry on every write.
func (m *MemoryStore) Set(_ context.Context, namespace, query string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	m.lru.Add(Key(namespace, query), memoryEntry{
		value:   value,
		expires: m.now().Add(ttl),
	})
}

// Delete removes the entry if present.
func (m *MemoryStore) Delete(_ context.Context, namespace, query string) {
	m.lru.Remove(Key(namespace, query))
}

// FlushAll clears the tier and reports how many entries were dropped.
func (m *MemoryStore) FlushAll(_ context.Context) FlushCounts {
	n := m.lru.Len()
	m.lru.Purge()
	return FlushCounts{Memory: n}
}
