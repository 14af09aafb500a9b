package config

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/AlisDesai/SkillBridge-sub001/internal/domain/compat"
)

// weightSumTolerance is how far a profile's weight sum may deviate from 1.0.
const weightSumTolerance = 0.01

// envSections are the top-level config sections addressable from the
// environment, e.g. SKILLBRIDGE_CACHE_MEMORY_CAPACITY sets
// cache.memory_capacity. Keys without a section prefix stay top-level.
var envSections = []string{"cache", "ranker", "thresholds", "features", "weight_profiles"}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if SKILLBRIDGE_CONFIG is set
//  3. env (prefix SKILLBRIDGE_)
//
// Map-valued sections merge key-wise with the base; scalar and array
// values replace it outright (koanf's layered-merge semantics).
//
// The returned Config has passed full validation; any violation aborts the
// load with every problem joined into one error.
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("SKILLBRIDGE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrLoadConfig, err)
		}
	}

	// Environment variables: SKILLBRIDGE_LOG_LEVEL, SKILLBRIDGE_CACHE_DIR,
	// SKILLBRIDGE_RANKER_PAGE_SIZE, ... A leading section name maps onto
	// the nested koanf path; the remaining underscores stay literal so the
	// keys match the struct tags.
	envProvider := env.Provider("SKILLBRIDGE_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "skillbridge_")
		for _, section := range envSections {
			if strings.HasPrefix(s, section+"_") {
				return section + "." + strings.TrimPrefix(s, section+"_")
			}
		}
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrLoadConfig, err)
	}

	if err := cfg.Validate(ctx); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the whole configuration and collects every violation
// into one error so operators see the full list at startup.
func (c *Config) Validate(_ context.Context) error {
	var problems []error

	if _, ok := c.WeightProfiles[DefaultProfileName]; !ok {
		problems = append(problems, fmt.Errorf("weight profile %q is required", DefaultProfileName))
	}
	for name, weights := range c.WeightProfiles {
		if err := validateWeights(name, weights); err != nil {
			problems = append(problems, err)
		}
	}

	if err := validateThresholds(c.Thresholds); err != nil {
		problems = append(problems, err)
	}

	for name, flag := range c.Features {
		if flag.RolloutPercentage < 0 || flag.RolloutPercentage > 100 {
			problems = append(problems, fmt.Errorf("feature %q: rollout percentage %d out of range 0-100", name, flag.RolloutPercentage))
		}
	}

	if c.Cache.MemoryCapacity <= 0 {
		problems = append(problems, errors.New("cache memory capacity must be positive"))
	}
	if c.Ranker.BatchSize <= 0 {
		problems = append(problems, errors.New("ranker batch size must be positive"))
	}
	if c.Ranker.MinScore < 0 || c.Ranker.MinScore > 100 {
		problems = append(problems, fmt.Errorf("ranker min score %d out of range 0-100", c.Ranker.MinScore))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(problems...))
	}
	return nil
}

// validateWeights checks one profile: known factor names and a weight sum
// of 1.0 within tolerance.
func validateWeights(profile string, weights map[string]float64) error {
	known := make(map[string]struct{}, len(compat.FactorNames))
	for _, f := range compat.FactorNames {
		known[f] = struct{}{}
	}

	sum := 0.0
	for factor, weight := range weights {
		if _, ok := known[factor]; !ok {
			return fmt.Errorf("weight profile %q: unknown factor %q", profile, factor)
		}
		if weight < 0 {
			return fmt.Errorf("weight profile %q: factor %q has negative weight %v", profile, factor, weight)
		}
		sum += weight
	}
	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("weight profile %q: weights sum to %.4f, want 1.0 ±%.2f", profile, sum, weightSumTolerance)
	}
	return nil
}

// validateThresholds enforces strictly ascending tier boundaries.
func validateThresholds(t ThresholdsConfig) error {
	if t.MinimumMatch < t.GoodMatch && t.GoodMatch < t.ExcellentMatch && t.ExcellentMatch < t.PerfectMatch {
		return nil
	}
	return fmt.Errorf("thresholds must be strictly ascending, got %d/%d/%d/%d",
		t.MinimumMatch, t.GoodMatch, t.ExcellentMatch, t.PerfectMatch)
}
