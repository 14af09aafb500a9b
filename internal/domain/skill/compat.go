package skill

import (
	"fmt"
	"sort"

	"github.com/AlisDesai/SkillBridge-sub001/internal/domain/model"
)

// Pair thresholds for building the compatibility matrix.
const (
	teachPairThreshold  = 0.6
	mutualPairThreshold = 0.7
)

// Overall score blend for the compatibility matrix.
const (
	teachTermWeight  = 0.4
	learnTermWeight  = 0.4
	mutualTermWeight = 0.2
)

// Match is one scored skill pair inside a compatibility matrix.
type Match struct {
	Skill       model.SkillDescriptor
	Counterpart model.SkillDescriptor
	Score       float64
}

// Matrix summarizes how two users' teach/learn lists line up.
type Matrix struct {
	// CanTeach holds pairs where something A offers matches something
	// the counterpart wants.
	CanTeach []Match
	// CanLearn holds pairs where something the counterpart offers
	// matches something A wants.
	CanLearn []Match
	// MutualInterests holds pairs where both sides want similar skills.
	MutualInterests []Match
	// OverallScore blends the three lists into [0,1].
	OverallScore float64
}

// Scored pairs a pool item with its similarity to a target.
type Scored struct {
	Skill model.SkillDescriptor
	Score float64
}

// FindSimilar returns pool entries at least threshold-similar to target,
// sorted by score descending. Ties keep pool order.
func FindSimilar(target model.SkillDescriptor, pool []model.SkillDescriptor, threshold float64) []Scored {
	out := make([]Scored, 0, len(pool))
	for _, s := range pool {
		if score := Similarity(target, s); score >= threshold {
			out = append(out, Scored{Skill: s, Score: score})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// Compatibility builds the teach/learn/mutual matrix between user A
// (teachA = skills A offers, learnA = skills A wants) and the counterpart
// B (teachB = skills B offers, learnB = skills B wants).
//
// Callers must pass the counterpart's lists explicitly; the function does
// not infer them from A's own profile.
func Compatibility(teachA, learnA, teachB, learnB []model.SkillDescriptor) Matrix {
	var m Matrix

	// What A can teach B: A's offers vs B's wants.
	for _, offered := range teachA {
		for _, wanted := range learnB {
			if score := Similarity(offered, wanted); score > teachPairThreshold {
				m.CanTeach = append(m.CanTeach, Match{Skill: offered, Counterpart: wanted, Score: score})
			}
		}
	}

	// What A can learn from B: B's offers vs A's wants.
	for _, wanted := range learnA {
		for _, offered := range teachB {
			if score := Similarity(wanted, offered); score > teachPairThreshold {
				m.CanLearn = append(m.CanLearn, Match{Skill: wanted, Counterpart: offered, Score: score})
			}
		}
	}

	// Shared learning interests: both want similar skills.
	for _, wantA := range learnA {
		for _, wantB := range learnB {
			if score := Similarity(wantA, wantB); score > mutualPairThreshold {
				m.MutualInterests = append(m.MutualInterests, Match{Skill: wantA, Counterpart: wantB, Score: score})
			}
		}
	}

	m.OverallScore = clamp01(
		avgScore(m.CanTeach)*teachTermWeight +
			avgScore(m.CanLearn)*learnTermWeight +
			avgScore(m.MutualInterests)*mutualTermWeight)
	return m
}

// avgScore averages match scores; an empty list contributes zero to the
// blend rather than being skipped.
func avgScore(matches []Match) float64 {
	if len(matches) == 0 {
		return 0
	}
	sum := 0.0
	for _, m := range matches {
		sum += m.Score
	}
	return sum / float64(len(matches))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Reasons renders human-readable highlights for a compatibility matrix:
// up to two teach pairs, two learn pairs and one mutual interest by score,
// plus an exchange-potential line and a tiered overall line. A matrix with
// nothing noteworthy yields a single default line.
func Reasons(m Matrix) []string {
	var reasons []string

	for _, match := range topMatches(m.CanTeach, 2) {
		reasons = append(reasons, fmt.Sprintf("You can teach them %s (%.0f%% match)", match.Counterpart.Name, match.Score*100))
	}
	for _, match := range topMatches(m.CanLearn, 2) {
		reasons = append(reasons, fmt.Sprintf("You can learn %s from them (%.0f%% match)", match.Skill.Name, match.Score*100))
	}
	for _, match := range topMatches(m.MutualInterests, 1) {
		reasons = append(reasons, fmt.Sprintf("You both want to learn %s", match.Skill.Name))
	}
	if len(m.CanTeach) > 0 && len(m.CanLearn) > 0 {
		reasons = append(reasons, "Great potential for a two-way skill exchange")
	}
	switch {
	case m.OverallScore > 0.8:
		reasons = append(reasons, "Exceptional overall compatibility")
	case m.OverallScore > 0.6:
		reasons = append(reasons, "Strong overall compatibility")
	}

	if len(reasons) == 0 {
		return []string{"You may discover unexpected common ground"}
	}
	return reasons
}

// topMatches returns up to n matches sorted by score descending without
// mutating the input slice.
func topMatches(matches []Match, n int) []Match {
	sorted := make([]Match, len(matches))
	copy(sorted, matches)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
