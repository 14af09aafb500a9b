// Package cache provides the key/value store used to memoize ranked
// results, pairwise skill similarities, and per-user analytics.
//
// Two backends exist: a durable badger store shared across restarts and a
// bounded in-process fallback. The resilient store composes them behind a
// circuit breaker so that backend trouble degrades performance, never
// correctness: callers must treat the cache as a pure optimization.
package cache

import (
	"context"
	"time"
)

// TTL classes per cached namespace.
const (
	TTLMatchResults    = 1800 * time.Second
	TTLSkillSimilarity = 86400 * time.Second
	TTLAnalytics       = 3600 * time.Second
)

// Namespaces prefix every key. Match-result and analytics keys embed the
// user id right after the namespace so per-user invalidation is a prefix
// delete.
const (
	NamespaceMatch      = "match"
	NamespaceSimilarity = "similarity"
	NamespaceAnalytics  = "analytics"
)

// Store is the cache surface handed to the ranker and app service.
// Implementations swallow backend failures: Get reports a miss, Set and
// Delete become no-ops.
type Store interface {
	// Get unmarshals the cached value for key into dest and reports
	// whether a live entry was found.
	Get(ctx context.Context, key string, dest any) bool

	// Set stores value under key for ttl. Last write wins.
	Set(ctx context.Context, key string, value any, ttl time.Duration)

	// Delete removes a single key.
	Delete(ctx context.Context, key string)

	// DeletePrefix removes every key starting with prefix.
	DeletePrefix(ctx context.Context, prefix string)

	// Stats returns a point-in-time snapshot of cache counters.
	Stats(ctx context.Context) Stats

	// Close releases backend resources.
	Close() error
}

// Backend is the raw byte-level store implemented by the badger and
// in-memory backends. Unlike Store, backends surface their errors so the
// resilient layer can count failures and trip the breaker.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
	Close() error
}

// Stats is a snapshot of cache activity counters.
type Stats struct {
	Hits         int64  `json:"hits"`
	Misses       int64  `json:"misses"`
	Sets         int64  `json:"sets"`
	Deletes      int64  `json:"deletes"`
	Evictions    int64  `json:"evictions"`
	FallbackOps  int64  `json:"fallback_ops"`
	FallbackSize int    `json:"fallback_size"`
	BreakerState string `json:"breaker_state"`
}
