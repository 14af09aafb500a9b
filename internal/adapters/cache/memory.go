package cache

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AlisDesai/SkillBridge-sub001/pkg/metrics"
)

// Default memory backend configuration constants.
const (
	defaultMemoryCapacity = 10_000
	evictFraction         = 0.3 // share of oldest entries dropped when full
)

// MemoryOption applies a configuration option to the MemoryBackend.
type MemoryOption func(*MemoryBackend)

// WithCapacity bounds the number of entries held in memory.
func WithCapacity(capacity int) MemoryOption {
	return func(b *MemoryBackend) {
		if capacity > 0 {
			b.capacity = capacity
		}
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(b *MemoryBackend) {
		if now != nil {
			b.now = now
		}
	}
}

// entry holds one cached value with its absolute expiry.
type entry struct {
	value  []byte
	expiry time.Time
}

// MemoryBackend is the bounded in-process fallback store.
//
// Expiry is lazy: an entry read past its expiry is treated as a miss and
// removed. On insert at capacity, expired entries are purged first; if the
// store is still full, the oldest 30% by insertion order are evicted.
type MemoryBackend struct {
	mu       sync.Mutex
	entries  map[string]*entry
	order    []string // insertion order, oldest first; may hold deleted keys
	capacity int
	now      func() time.Time

	evictions atomic.Int64
	closed    bool
}

// NewMemoryBackend creates a bounded in-memory backend.
func NewMemoryBackend(opts ...MemoryOption) *MemoryBackend {
	b := &MemoryBackend{
		entries:  make(map[string]*entry),
		capacity: defaultMemoryCapacity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Get returns the live value for key or ErrMiss. Expired entries are
// removed on read.
func (b *MemoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}
	e, ok := b.entries[key]
	if !ok {
		return nil, ErrMiss
	}
	if !b.now().Before(e.expiry) {
		delete(b.entries, key)
		return nil, ErrMiss
	}
	return e.value, nil
}

// Set stores value under key. Overwriting an existing key keeps its
// original insertion position for eviction ordering.
func (b *MemoryBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	if _, exists := b.entries[key]; !exists {
		if len(b.entries) >= b.capacity {
			b.makeRoom()
		}
		b.order = append(b.order, key)
	}
	b.entries[key] = &entry{value: value, expiry: b.now().Add(ttl)}
	metrics.UpdateFallbackCacheSize(len(b.entries))
	return nil
}

// makeRoom purges expired entries, then evicts the oldest 30% by insertion
// order if the store is still at or over capacity. Must be called with
// b.mu held.
func (b *MemoryBackend) makeRoom() {
	now := b.now()
	for key, e := range b.entries {
		if !now.Before(e.expiry) {
			delete(b.entries, key)
		}
	}
	b.compactOrder()
	if len(b.entries) < b.capacity {
		return
	}

	evict := int(float64(b.capacity) * evictFraction)
	if evict < 1 {
		evict = 1
	}
	evicted := 0
	for _, key := range b.order {
		if evicted >= evict {
			break
		}
		if _, ok := b.entries[key]; ok {
			delete(b.entries, key)
			evicted++
		}
	}
	b.compactOrder()
	b.evictions.Add(int64(evicted))
	metrics.RecordCacheEvictions(evicted)
}

// compactOrder drops order entries whose key no longer exists.
func (b *MemoryBackend) compactOrder() {
	live := b.order[:0]
	for _, key := range b.order {
		if _, ok := b.entries[key]; ok {
			live = append(live, key)
		}
	}
	b.order = live
}

// Delete removes a single key.
func (b *MemoryBackend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	delete(b.entries, key)
	return nil
}

// DeletePrefix removes every key starting with prefix.
func (b *MemoryBackend) DeletePrefix(_ context.Context, prefix string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	for key := range b.entries {
		if strings.HasPrefix(key, prefix) {
			delete(b.entries, key)
		}
	}
	b.compactOrder()
	return nil
}

// Len returns the current number of entries, expired ones included until
// their lazy removal.
func (b *MemoryBackend) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Evictions returns the total number of capacity evictions so far.
func (b *MemoryBackend) Evictions() int64 {
	return b.evictions.Load()
}

// Close marks the backend closed and drops all entries.
func (b *MemoryBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.entries = make(map[string]*entry)
	b.order = nil
	return nil
}
