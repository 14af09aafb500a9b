// Package model contains domain models passed between layers.
package model

import (
	"strings"
	"time"
)

// Level is a coarse proficiency level attached to skills and users.
type Level int

// Proficiency levels in ascending order. Unparseable input maps to
// LevelIntermediate so that partial profiles still score.
const (
	LevelBeginner Level = iota + 1
	LevelIntermediate
	LevelAdvanced
	LevelExpert
)

// ParseLevel maps a free-form level string to a Level.
// Unknown or empty input yields LevelIntermediate.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "beginner":
		return LevelBeginner
	case "intermediate":
		return LevelIntermediate
	case "advanced":
		return LevelAdvanced
	case "expert":
		return LevelExpert
	default:
		return LevelIntermediate
	}
}

// String returns the canonical lowercase name of the level.
func (l Level) String() string {
	switch l {
	case LevelBeginner:
		return "beginner"
	case LevelAdvanced:
		return "advanced"
	case LevelExpert:
		return "expert"
	default:
		return "intermediate"
	}
}

// Ordinal returns the 1-4 ordinal used for level-distance scoring.
// Zero-valued (unset) levels count as intermediate.
func (l Level) Ordinal() int {
	if l < LevelBeginner || l > LevelExpert {
		return int(LevelIntermediate)
	}
	return int(l)
}

// SkillDescriptor is the canonical representation of a skill.
// Construct via NewSkill so that names are normalized exactly once at the
// system boundary; the similarity functions assume normalized input.
type SkillDescriptor struct {
	Name     string   `json:"name"`
	Category string   `json:"category,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Level    Level    `json:"level"`
}

// NewSkill builds a SkillDescriptor from possibly messy caller input.
// Name is lowercased and trimmed, tags are lowercased, and a missing level
// defaults to intermediate.
func NewSkill(name, category string, tags []string, level Level) SkillDescriptor {
	normTags := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			normTags = append(normTags, t)
		}
	}
	if level < LevelBeginner || level > LevelExpert {
		level = LevelIntermediate
	}
	return SkillDescriptor{
		Name:     strings.ToLower(strings.TrimSpace(name)),
		Category: strings.ToLower(strings.TrimSpace(category)),
		Tags:     normTags,
		Level:    level,
	}
}

// SkillFromName builds a SkillDescriptor from a bare name string.
// Callers that receive skills as plain strings normalize here instead of
// branching on shape downstream.
func SkillFromName(name string) SkillDescriptor {
	return NewSkill(name, "", nil, LevelIntermediate)
}

// Location is an optional coarse user location.
type Location struct {
	City    string `json:"city"`
	Country string `json:"country"`
}

// UserSnapshot is a read-only projection of a user supplied by the caller.
// The engine never mutates it.
type UserSnapshot struct {
	ID              string            `json:"id"`
	SkillsOffered   []SkillDescriptor `json:"skills_offered"`
	SkillsWanted    []SkillDescriptor `json:"skills_wanted"`
	ExperienceLevel Level             `json:"experience_level"`
	Availability    []string          `json:"availability"`
	Location        *Location         `json:"location,omitempty"`
	Bio             string            `json:"bio"`
	AverageRating   float64           `json:"average_rating"`
	TotalReviews    int               `json:"total_reviews"`
	LastActive      time.Time         `json:"last_active"`
	IsOnline        bool              `json:"is_online"`
}

// MatchHistory captures one past exchange outcome for the requesting user.
type MatchHistory struct {
	OtherUser UserSnapshot `json:"other_user"`
	Rating    float64      `json:"rating"` // 1-5 outcome rating
}

// MatchType classifies a pair at a coarse level from the factor breakdown.
type MatchType string

// Match classifications, best first.
const (
	MatchTypePerfect         MatchType = "perfect_match"
	MatchTypeSkillComplement MatchType = "skill_complement"
	MatchTypeMutualLearning  MatchType = "mutual_learning"
	MatchTypePotential       MatchType = "potential_match"
)

// FactorScore is the raw output of a single compatibility factor.
type FactorScore struct {
	Value       float64 `json:"value"`      // in [0,1]
	Confidence  float64 `json:"confidence"` // in [0,1]
	Explanation string  `json:"explanation"`
}

// FactorBreakdown records how one factor contributed to the total.
type FactorBreakdown struct {
	Raw         float64 `json:"raw"`
	Weighted    float64 `json:"weighted"`
	Weight      float64 `json:"weight"`
	Explanation string  `json:"explanation"`
}

// CompatibilityResult is the aggregate outcome for one user pair.
// Never mutated after creation; safe to cache as-is.
type CompatibilityResult struct {
	Score      int                        `json:"score"`      // 0-100, clamped
	Confidence int                        `json:"confidence"` // 0-100
	Breakdown  map[string]FactorBreakdown `json:"breakdown"`
	Reasons    []string                   `json:"reasons"` // at most 3
	MatchType  MatchType                  `json:"match_type"`
}

// RankedMatch pairs a candidate with their compatibility result.
type RankedMatch struct {
	Candidate UserSnapshot        `json:"candidate"`
	Result    CompatibilityResult `json:"result"`
}
