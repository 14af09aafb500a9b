package compat

import (
	"fmt"
	"strings"
	"time"

	"github.com/AlisDesai/SkillBridge-sub001/internal/domain/model"
	"github.com/AlisDesai/SkillBridge-sub001/internal/domain/skill"
)

// Pair-level thresholds used by the skill-driven factors.
const (
	skillPairThreshold  = 0.6
	mutualPairThreshold = 0.7
)

// historicalSuccess similarity gates: a past partner counts as "similar"
// to the candidate when skill overlap or experience distance says so.
const (
	historySkillOverlapMin = 0.3
	historyLevelDiffMax    = 1
)

// positiveKeywords is the fixed keyword set scanned in bios for the
// personality factor.
var positiveKeywords = []string{"passionate", "patient", "friendly", "creative", "dedicated"}

// skillMatch scores cross-matching between what each side offers and what
// the other wants. Only pairs above the similarity threshold accumulate;
// the denominator counts every checked pair.
func skillMatch(user, candidate *model.UserSnapshot) model.FactorScore {
	checked := 0
	sum := 0.0

	accumulate := func(offered, wanted []model.SkillDescriptor) {
		for _, o := range offered {
			for _, w := range wanted {
				checked++
				if s := skill.Similarity(o, w); s > skillPairThreshold {
					sum += s
				}
			}
		}
	}
	accumulate(user.SkillsOffered, candidate.SkillsWanted)
	accumulate(candidate.SkillsOffered, user.SkillsWanted)

	value := 0.0
	if checked > 0 {
		value = sum / float64(checked)
	}
	confidence := 0.6
	if checked > 2 {
		confidence = 0.9
	}
	return model.FactorScore{
		Value:       value,
		Confidence:  confidence,
		Explanation: fmt.Sprintf("Skills align across %d offered/wanted pairs", checked),
	}
}

// experienceBalance prefers a small level gap: a slightly more experienced
// partner tends to make the best exchange, identical levels are fine, a
// large gap is not.
func experienceBalance(user, candidate *model.UserSnapshot) model.FactorScore {
	diff := user.ExperienceLevel.Ordinal() - candidate.ExperienceLevel.Ordinal()
	if diff < 0 {
		diff = -diff
	}

	var value float64
	switch diff {
	case 0:
		value = 0.6
	case 1:
		value = 0.9
	case 2:
		value = 1.0
	default:
		value = 0.3
	}
	return model.FactorScore{
		Value:       value,
		Confidence:  0.8,
		Explanation: fmt.Sprintf("Experience levels are %d step(s) apart", diff),
	}
}

// availabilityOverlap measures shared availability slots. Unknown
// availability on either side is neutral with low confidence.
func availabilityOverlap(user, candidate *model.UserSnapshot) model.FactorScore {
	if len(user.Availability) == 0 || len(candidate.Availability) == 0 {
		return model.FactorScore{
			Value:       0.5,
			Confidence:  0.3,
			Explanation: "Availability not specified by one or both users",
		}
	}

	slotsA := slotSet(user.Availability)
	slotsB := slotSet(candidate.Availability)
	common := 0
	for s := range slotsA {
		if _, ok := slotsB[s]; ok {
			common++
		}
	}
	denom := len(slotsA)
	if len(slotsB) > denom {
		denom = len(slotsB)
	}
	if denom < 1 {
		denom = 1
	}
	return model.FactorScore{
		Value:       float64(common) / float64(denom),
		Confidence:  0.7,
		Explanation: fmt.Sprintf("%d shared availability slot(s)", common),
	}
}

func slotSet(slots []string) map[string]struct{} {
	set := make(map[string]struct{}, len(slots))
	for _, s := range slots {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			set[s] = struct{}{}
		}
	}
	return set
}

// locationCompatibility scores geographic closeness at city/country
// granularity. No geocoding; unknown locations are neutral.
func locationCompatibility(user, candidate *model.UserSnapshot) model.FactorScore {
	if user.Location == nil || candidate.Location == nil {
		return model.FactorScore{
			Value:       0.5,
			Confidence:  0.4,
			Explanation: "Location unknown for one or both users",
		}
	}

	switch {
	case equalFold(user.Location.City, candidate.Location.City) && user.Location.City != "":
		return model.FactorScore{Value: 1.0, Confidence: 0.8, Explanation: "Same city"}
	case equalFold(user.Location.Country, candidate.Location.Country) && user.Location.Country != "":
		return model.FactorScore{Value: 0.6, Confidence: 0.8, Explanation: "Same country"}
	default:
		return model.FactorScore{Value: 0.3, Confidence: 0.8, Explanation: "Different countries"}
	}
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// personalityMatch counts a fixed positive-keyword set in both bios. This
// is a keyword heuristic, not sentiment analysis.
func personalityMatch(user, candidate *model.UserSnapshot) model.FactorScore {
	countA := keywordHits(user.Bio)
	countB := keywordHits(candidate.Bio)
	value := float64(countA+countB) / float64(2*len(positiveKeywords))
	if value > 1 {
		value = 1
	}
	return model.FactorScore{
		Value:       value,
		Confidence:  0.6,
		Explanation: fmt.Sprintf("Bios contain %d positive trait keyword(s)", countA+countB),
	}
}

func keywordHits(bio string) int {
	bio = strings.ToLower(bio)
	hits := 0
	for _, kw := range positiveKeywords {
		if strings.Contains(bio, kw) {
			hits++
		}
	}
	return hits
}

// historicalSuccess looks at past exchange outcomes with partners similar
// to the candidate. No history at all, or no comparable history, stays
// neutral with low confidence.
func historicalSuccess(user, candidate *model.UserSnapshot, history []model.MatchHistory) model.FactorScore {
	if len(history) == 0 {
		return model.FactorScore{
			Value:       0.5,
			Confidence:  0.3,
			Explanation: "No exchange history yet",
		}
	}

	sum := 0.0
	matched := 0
	for _, h := range history {
		if similarPartner(&h.OtherUser, candidate) {
			sum += h.Rating
			matched++
		}
	}
	if matched == 0 {
		return model.FactorScore{
			Value:       0.5,
			Confidence:  0.4,
			Explanation: "No comparable partners in exchange history",
		}
	}

	avg := sum / float64(matched)
	return model.FactorScore{
		Value:       clamp01((avg - 1) / 4),
		Confidence:  0.7,
		Explanation: fmt.Sprintf("Past exchanges with %d similar partner(s) averaged %.1f/5", matched, avg),
	}
}

// similarPartner gates history entries: skill overlap above the floor or
// close experience levels.
func similarPartner(past, candidate *model.UserSnapshot) bool {
	if skillOverlap(past.SkillsOffered, candidate.SkillsOffered) > historySkillOverlapMin {
		return true
	}
	diff := past.ExperienceLevel.Ordinal() - candidate.ExperienceLevel.Ordinal()
	if diff < 0 {
		diff = -diff
	}
	return diff <= historyLevelDiffMax
}

// skillOverlap is the fraction of a's skills with a same-name counterpart
// in b.
func skillOverlap(a, b []model.SkillDescriptor) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	names := make(map[string]struct{}, len(b))
	for _, s := range b {
		names[s.Name] = struct{}{}
	}
	common := 0
	for _, s := range a {
		if _, ok := names[s.Name]; ok {
			common++
		}
	}
	return float64(common) / float64(len(a))
}

// mutualInterest counts reciprocal teach/want pairs: the user offers what
// the candidate wants and the candidate offers what the user wants, both
// above the mutual threshold.
func mutualInterest(user, candidate *model.UserSnapshot) model.FactorScore {
	reverse := false
	for _, theirOffered := range candidate.SkillsOffered {
		for _, ourWanted := range user.SkillsWanted {
			if skill.Similarity(theirOffered, ourWanted) > mutualPairThreshold {
				reverse = true
			}
		}
	}

	checked := 0
	reciprocal := 0
	for _, offered := range user.SkillsOffered {
		for _, wanted := range candidate.SkillsWanted {
			checked++
			if reverse && skill.Similarity(offered, wanted) > mutualPairThreshold {
				reciprocal++
			}
		}
	}

	value := 0.0
	if checked > 0 {
		value = clamp01(float64(reciprocal) / float64(checked))
	}
	return model.FactorScore{
		Value:       value,
		Confidence:  0.8,
		Explanation: fmt.Sprintf("%d reciprocal teach/learn pairing(s)", reciprocal),
	}
}

// activityScore rewards recently active candidates.
func activityScore(_ *model.UserSnapshot, candidate *model.UserSnapshot, now time.Time) model.FactorScore {
	idle := now.Sub(candidate.LastActive)

	var value float64
	switch {
	case idle > 30*24*time.Hour:
		value = 0.3
	case idle > 7*24*time.Hour:
		value = 0.6
	case idle > 24*time.Hour:
		value = 0.9
	default:
		value = 1.0
	}
	return model.FactorScore{
		Value:       value,
		Confidence:  0.9,
		Explanation: fmt.Sprintf("Last active %s ago", idle.Round(time.Hour)),
	}
}

// reputationScore maps the candidate's review average onto [0,1].
// Confidence grows with review volume and caps at ten reviews.
func reputationScore(candidate *model.UserSnapshot) model.FactorScore {
	if candidate.TotalReviews == 0 {
		return model.FactorScore{
			Value:       0.5,
			Confidence:  0.3,
			Explanation: "No reviews yet",
		}
	}

	confidence := float64(candidate.TotalReviews) / 10
	if confidence > 1 {
		confidence = 1
	}
	return model.FactorScore{
		Value:       clamp01((candidate.AverageRating - 1) / 4),
		Confidence:  confidence,
		Explanation: fmt.Sprintf("Rated %.1f/5 across %d review(s)", candidate.AverageRating, candidate.TotalReviews),
	}
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
