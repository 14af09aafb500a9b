// Package config defines the match-engine configuration: weight profiles,
// quality thresholds, feature rollout rules, cache and ranker tuning.
//
// Conventions:
//   - One immutable Config is built at startup and injected into every
//     component; no runtime mutation path exists.
//   - Validation failures are collected into a single startup error and
//     prevent normal operation instead of surfacing mid-request.
package config

import (
	"time"

	"github.com/AlisDesai/SkillBridge-sub001/internal/domain/compat"
)

// DefaultProfileName is the weight profile used when a request does not
// name one.
const DefaultProfileName = "default"

// CacheConfig tunes the cache store.
type CacheConfig struct {
	// Dir is the badger data directory. Empty disables the durable
	// backend and runs purely on the in-process fallback.
	Dir string `koanf:"dir"`

	// CallTimeoutMS bounds each durable-backend call.
	CallTimeoutMS int `koanf:"call_timeout_ms"`

	// MemoryCapacity bounds the in-process fallback entry count.
	MemoryCapacity int `koanf:"memory_capacity"`

	// BreakerFailureThreshold is the consecutive-failure count that opens
	// the circuit breaker.
	BreakerFailureThreshold int `koanf:"breaker_failure_threshold"`

	// BreakerCooldownMS is how long the breaker stays open before
	// half-opening.
	BreakerCooldownMS int `koanf:"breaker_cooldown_ms"`
}

// CallTimeout returns the backend call timeout as a duration.
func (c CacheConfig) CallTimeout() time.Duration {
	return time.Duration(c.CallTimeoutMS) * time.Millisecond
}

// BreakerCooldown returns the breaker cooldown as a duration.
func (c CacheConfig) BreakerCooldown() time.Duration {
	return time.Duration(c.BreakerCooldownMS) * time.Millisecond
}

// RankerConfig tunes the match ranker.
type RankerConfig struct {
	// BatchSize bounds concurrent candidate scoring.
	BatchSize int `koanf:"batch_size"`

	// MinScore filters out matches below this 0-100 floor.
	MinScore int `koanf:"min_score"`

	// PageSize is the default result page size.
	PageSize int `koanf:"page_size"`

	// InvalidationWorkers sets the cache-invalidation worker count.
	InvalidationWorkers int `koanf:"invalidation_workers"`

	// InvalidationQueueSize bounds the pending invalidation backlog.
	InvalidationQueueSize int `koanf:"invalidation_queue_size"`
}

// ThresholdsConfig holds the descriptive quality tiers. Strictly
// ascending order is enforced at load.
type ThresholdsConfig struct {
	MinimumMatch   int `koanf:"minimum_match"`
	GoodMatch      int `koanf:"good_match"`
	ExcellentMatch int `koanf:"excellent_match"`
	PerfectMatch   int `koanf:"perfect_match"`
}

// Thresholds converts the config section into the domain type.
func (t ThresholdsConfig) Thresholds() compat.Thresholds {
	return compat.Thresholds{
		MinimumMatch:   t.MinimumMatch,
		GoodMatch:      t.GoodMatch,
		ExcellentMatch: t.ExcellentMatch,
		PerfectMatch:   t.PerfectMatch,
	}
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// MetricsAddr configures the observability listen address, e.g. ":9090".
	MetricsAddr string `koanf:"metrics_addr"`

	// WeightProfiles maps profile names to factor weight maps. Each
	// profile must sum to 1.0 within tolerance, and "default" must exist.
	WeightProfiles map[string]map[string]float64 `koanf:"weight_profiles"`

	// Thresholds are the descriptive quality tiers.
	Thresholds ThresholdsConfig `koanf:"thresholds"`

	// Features maps feature names to rollout rules.
	Features map[string]FeatureFlag `koanf:"features"`

	Cache  CacheConfig  `koanf:"cache"`
	Ranker RankerConfig `koanf:"ranker"`
}

// New returns the built-in defaults. Load layers file and environment
// overrides on top.
func New() *Config {
	return &Config{
		LogLevel:    "info",
		MetricsAddr: ":9090",
		WeightProfiles: map[string]map[string]float64{
			DefaultProfileName: compat.DefaultWeights(),
		},
		Thresholds: ThresholdsConfig{
			MinimumMatch:   30,
			GoodMatch:      50,
			ExcellentMatch: 70,
			PerfectMatch:   85,
		},
		Features: map[string]FeatureFlag{},
		Cache: CacheConfig{
			Dir:                     "",
			CallTimeoutMS:           250,
			MemoryCapacity:          10_000,
			BreakerFailureThreshold: 5,
			BreakerCooldownMS:       30_000,
		},
		Ranker: RankerConfig{
			BatchSize:             8,
			MinScore:              0,
			PageSize:              20,
			InvalidationWorkers:   2,
			InvalidationQueueSize: 4096,
		},
	}
}

// Weights returns the named weight profile, falling back to the default
// profile for unknown names.
func (c *Config) Weights(profile string) compat.Weights {
	if w, ok := c.WeightProfiles[profile]; ok {
		return w
	}
	return c.WeightProfiles[DefaultProfileName]
}
