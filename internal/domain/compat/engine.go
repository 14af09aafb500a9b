// Package compat computes multi-factor compatibility between two user
// profiles. Nine independent factor scores are blended with configured
// weights into a 0-100 score, a confidence figure, top reasons, and a
// coarse match-type label.
//
// All factor functions are pure: they never fail on missing or malformed
// profile data. Absent data yields the factor's documented neutral value
// and shows up only as reduced confidence.
package compat

import (
	"context"
	"math"
	"time"

	"github.com/AlisDesai/SkillBridge-sub001/internal/domain/model"
)

// Factor names, in declaration order. Reason selection and breakdown
// iteration follow this order so output is deterministic.
const (
	FactorSkillMatch        = "skillMatch"
	FactorExperienceBalance = "experienceBalance"
	FactorAvailability      = "availabilityOverlap"
	FactorLocation          = "locationCompatibility"
	FactorPersonality       = "personalityMatch"
	FactorHistory           = "historicalSuccess"
	FactorMutualInterest    = "mutualInterest"
	FactorActivity          = "activityScore"
	FactorReputation        = "reputationScore"
)

// FactorNames lists all factors in declaration order.
var FactorNames = []string{
	FactorSkillMatch,
	FactorExperienceBalance,
	FactorAvailability,
	FactorLocation,
	FactorPersonality,
	FactorHistory,
	FactorMutualInterest,
	FactorActivity,
	FactorReputation,
}

// Weights maps factor names to their blend weight. A valid profile sums
// to 1.0 within the tolerance enforced by config validation.
type Weights map[string]float64

// DefaultWeights is the built-in balanced weight profile.
func DefaultWeights() Weights {
	return Weights{
		FactorSkillMatch:        0.25,
		FactorExperienceBalance: 0.10,
		FactorAvailability:      0.10,
		FactorLocation:          0.05,
		FactorPersonality:       0.10,
		FactorHistory:           0.10,
		FactorMutualInterest:    0.15,
		FactorActivity:          0.05,
		FactorReputation:        0.10,
	}
}

// Reason-selection and match-type thresholds. Match typing deliberately
// uses these fixed values rather than the configured threshold tiers,
// which are descriptive only.
const (
	reasonRawThreshold = 0.7
	maxReasons         = 3

	perfectSkillRaw      = 0.8
	perfectMutualRaw     = 0.7
	complementSkillRaw   = 0.6
	complementBalanceRaw = 0.8
	mutualLearningRaw    = 0.6
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithWeights sets the factor weight profile.
func WithWeights(w Weights) Option {
	return func(e *Engine) {
		if len(w) > 0 {
			e.weights = w
		}
	}
}

// WithClock overrides the time source used by the activity factor.
// Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// Engine scores user pairs. It holds no mutable state after construction
// and is safe for concurrent use.
type Engine struct {
	weights Weights
	now     func() time.Time
}

// New creates an Engine with configuration options.
func New(opts ...Option) *Engine {
	e := &Engine{
		weights: DefaultWeights(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Score computes the full compatibility result between user and candidate.
// The ctx is accepted for interface symmetry with the rest of the service;
// scoring itself is pure and does not block.
func (e *Engine) Score(_ context.Context, user, candidate *model.UserSnapshot, history []model.MatchHistory) model.CompatibilityResult {
	factors := e.factorScores(user, candidate, history)

	totalValue := 0.0
	totalConfidence := 0.0
	breakdown := make(map[string]model.FactorBreakdown, len(FactorNames))
	for _, name := range FactorNames {
		fs := factors[name]
		weight := e.weights[name]
		totalValue += fs.Value * weight
		totalConfidence += fs.Confidence * weight
		breakdown[name] = model.FactorBreakdown{
			Raw:         fs.Value,
			Weighted:    fs.Value * weight,
			Weight:      weight,
			Explanation: fs.Explanation,
		}
	}

	var reasons []string
	for _, name := range FactorNames {
		if len(reasons) >= maxReasons {
			break
		}
		if factors[name].Value > reasonRawThreshold {
			reasons = append(reasons, factors[name].Explanation)
		}
	}

	return model.CompatibilityResult{
		Score:      clampScore(int(math.Round(totalValue * 100))),
		Confidence: clampScore(int(math.Round(totalConfidence * 100))),
		Breakdown:  breakdown,
		Reasons:    reasons,
		MatchType:  MatchType(breakdown),
	}
}

// factorScores evaluates all nine factors for the pair.
func (e *Engine) factorScores(user, candidate *model.UserSnapshot, history []model.MatchHistory) map[string]model.FactorScore {
	return map[string]model.FactorScore{
		FactorSkillMatch:        skillMatch(user, candidate),
		FactorExperienceBalance: experienceBalance(user, candidate),
		FactorAvailability:      availabilityOverlap(user, candidate),
		FactorLocation:          locationCompatibility(user, candidate),
		FactorPersonality:       personalityMatch(user, candidate),
		FactorHistory:           historicalSuccess(user, candidate, history),
		FactorMutualInterest:    mutualInterest(user, candidate),
		FactorActivity:          activityScore(user, candidate, e.now()),
		FactorReputation:        reputationScore(candidate),
	}
}

// MatchType classifies a factor breakdown into a coarse label.
func MatchType(breakdown map[string]model.FactorBreakdown) model.MatchType {
	skillRaw := breakdown[FactorSkillMatch].Raw
	mutualRaw := breakdown[FactorMutualInterest].Raw
	balanceRaw := breakdown[FactorExperienceBalance].Raw

	switch {
	case skillRaw > perfectSkillRaw && mutualRaw > perfectMutualRaw:
		return model.MatchTypePerfect
	case skillRaw > complementSkillRaw && balanceRaw > complementBalanceRaw:
		return model.MatchTypeSkillComplement
	case mutualRaw > mutualLearningRaw:
		return model.MatchTypeMutualLearning
	default:
		return model.MatchTypePotential
	}
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Thresholds are the configured descriptive quality tiers. They label a
// finished score for presentation and never gate match typing or
// filtering.
type Thresholds struct {
	MinimumMatch   int
	GoodMatch      int
	ExcellentMatch int
	PerfectMatch   int
}

// DefaultThresholds returns the built-in tier boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{MinimumMatch: 30, GoodMatch: 50, ExcellentMatch: 70, PerfectMatch: 85}
}

// Tier maps a 0-100 score onto a descriptive tier name.
func (t Thresholds) Tier(score int) string {
	switch {
	case score >= t.PerfectMatch:
		return "perfect"
	case score >= t.ExcellentMatch:
		return "excellent"
	case score >= t.GoodMatch:
		return "good"
	case score >= t.MinimumMatch:
		return "minimum"
	default:
		return "below_minimum"
	}
}
