package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/AlisDesai/SkillBridge-sub001/pkg/logger"
	"github.com/AlisDesai/SkillBridge-sub001/pkg/metrics"
)

// Default breaker configuration constants.
const (
	defaultFailureThreshold = 5
	defaultBreakerCooldown  = 30 * time.Second
	defaultHalfOpenRequests = 2
)

// BreakerConfig parameterizes the circuit breaker guarding the durable
// backend.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens
	// the breaker.
	FailureThreshold uint32
	// Cooldown is how long the breaker stays open before half-opening.
	Cooldown time.Duration
	// HalfOpenRequests caps probe requests while half-open.
	HalfOpenRequests uint32
}

// ResilientOption applies a configuration option to the ResilientStore.
type ResilientOption func(*ResilientStore)

// WithBreakerConfig overrides the default breaker settings.
func WithBreakerConfig(cfg BreakerConfig) ResilientOption {
	return func(s *ResilientStore) {
		if cfg.FailureThreshold > 0 {
			s.breakerCfg.FailureThreshold = cfg.FailureThreshold
		}
		if cfg.Cooldown > 0 {
			s.breakerCfg.Cooldown = cfg.Cooldown
		}
		if cfg.HalfOpenRequests > 0 {
			s.breakerCfg.HalfOpenRequests = cfg.HalfOpenRequests
		}
	}
}

// WithLogger sets a custom logger for the store.
func WithLogger(log logger.Logger) ResilientOption {
	return func(s *ResilientStore) {
		if log != nil {
			s.logger = log
		}
	}
}

// ResilientStore implements Store over a durable primary backend with a
// bounded in-process fallback. A circuit breaker tracks consecutive
// primary failures; while open, calls short-circuit straight to the
// fallback without touching the primary. Errors never reach callers: a
// failed Get is a miss, a failed Set or Delete is a no-op on that backend.
type ResilientStore struct {
	primary    Backend
	fallback   *MemoryBackend
	breaker    *gobreaker.CircuitBreaker[[]byte]
	breakerCfg BreakerConfig
	logger     logger.Logger

	hits        atomic.Int64
	misses      atomic.Int64
	sets        atomic.Int64
	deletes     atomic.Int64
	fallbackOps atomic.Int64
}

// NewResilientStore builds the production cache: primary may be nil, in
// which case the store runs purely on the in-process fallback.
func NewResilientStore(primary Backend, fallback *MemoryBackend, opts ...ResilientOption) *ResilientStore {
	s := &ResilientStore{
		primary:  primary,
		fallback: fallback,
		breakerCfg: BreakerConfig{
			FailureThreshold: defaultFailureThreshold,
			Cooldown:         defaultBreakerCooldown,
			HalfOpenRequests: defaultHalfOpenRequests,
		},
		logger: logger.Get().Named("cache"),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "cache-primary",
		MaxRequests: s.breakerCfg.HalfOpenRequests,
		Timeout:     s.breakerCfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.breakerCfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.UpdateCacheBreakerState(to.String())
			s.logger.Warn(context.Background(), "cache breaker state change",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			// A miss is a successful round trip, not a backend failure.
			return err == nil || errors.Is(err, ErrMiss)
		},
	})
	return s
}

// Get unmarshals the cached value for key into dest. Any backend or
// decode failure is reported as a miss.
func (s *ResilientStore) Get(ctx context.Context, key string, dest any) bool {
	data, err := s.primaryGet(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			s.fallbackOps.Add(1)
			metrics.RecordCacheFallback()
			data, err = s.fallback.Get(ctx, key)
		} else {
			// Primary answered authoritatively; still consult the
			// fallback in case the entry was written while degraded.
			data, err = s.fallback.Get(ctx, key)
		}
	}
	if err != nil {
		s.misses.Add(1)
		metrics.RecordCacheMiss()
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		s.logger.Warn(ctx, "cache entry undecodable; treating as miss",
			logger.String("key", key), logger.Error(err))
		s.Delete(ctx, key)
		s.misses.Add(1)
		metrics.RecordCacheMiss()
		return false
	}
	s.hits.Add(1)
	metrics.RecordCacheHit()
	return true
}

// primaryGet reads through the breaker. With no primary configured it
// reports a plain miss so Get falls through to the fallback.
func (s *ResilientStore) primaryGet(ctx context.Context, key string) ([]byte, error) {
	if s.primary == nil {
		return nil, ErrMiss
	}
	return s.breaker.Execute(func() ([]byte, error) {
		return s.primary.Get(ctx, key)
	})
}

// Set serializes value and writes it to both backends. The fallback write
// keeps reads warm during primary outages; last write wins on conflicts.
func (s *ResilientStore) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	if !ValidKey(key) || ttl <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn(ctx, "cache value not serializable; skipping set",
			logger.String("key", key), logger.Error(err))
		return
	}

	if s.primary != nil {
		if _, err := s.breaker.Execute(func() ([]byte, error) {
			return nil, s.primary.Set(ctx, key, data, ttl)
		}); err != nil {
			s.fallbackOps.Add(1)
			metrics.RecordCacheFallback()
		}
	}
	if err := s.fallback.Set(ctx, key, data, ttl); err != nil {
		s.logger.Warn(ctx, "fallback cache set failed", logger.String("key", key), logger.Error(err))
	}
	s.sets.Add(1)
	metrics.RecordCacheSet()
}

// Delete removes key from both backends.
func (s *ResilientStore) Delete(ctx context.Context, key string) {
	if s.primary != nil {
		if _, err := s.breaker.Execute(func() ([]byte, error) {
			return nil, s.primary.Delete(ctx, key)
		}); err != nil {
			s.fallbackOps.Add(1)
			metrics.RecordCacheFallback()
		}
	}
	if err := s.fallback.Delete(ctx, key); err != nil {
		s.logger.Warn(ctx, "fallback cache delete failed", logger.String("key", key), logger.Error(err))
	}
	s.deletes.Add(1)
}

// DeletePrefix removes every key under prefix from both backends.
func (s *ResilientStore) DeletePrefix(ctx context.Context, prefix string) {
	if prefix == "" {
		return
	}
	if s.primary != nil {
		if _, err := s.breaker.Execute(func() ([]byte, error) {
			return nil, s.primary.DeletePrefix(ctx, prefix)
		}); err != nil {
			s.fallbackOps.Add(1)
			metrics.RecordCacheFallback()
			s.logger.Warn(ctx, "primary prefix delete failed",
				logger.String("prefix", prefix), logger.Error(err))
		}
	}
	if err := s.fallback.DeletePrefix(ctx, prefix); err != nil {
		s.logger.Warn(ctx, "fallback prefix delete failed",
			logger.String("prefix", prefix), logger.Error(err))
	}
	s.deletes.Add(1)
}

// Stats returns a snapshot of cache counters and breaker state.
func (s *ResilientStore) Stats(_ context.Context) Stats {
	return Stats{
		Hits:         s.hits.Load(),
		Misses:       s.misses.Load(),
		Sets:         s.sets.Load(),
		Deletes:      s.deletes.Load(),
		Evictions:    s.fallback.Evictions(),
		FallbackOps:  s.fallbackOps.Load(),
		FallbackSize: s.fallback.Len(),
		BreakerState: s.breaker.State().String(),
	}
}

// Close closes both backends.
func (s *ResilientStore) Close() error {
	var errs []error
	if s.primary != nil {
		if err := s.primary.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.fallback.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
