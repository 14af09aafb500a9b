// Package skill computes similarity between skill descriptors.
//
// All functions are pure and depend only on their inputs, so they are safe
// to call concurrently from ranking workers.
package skill

import (
	"regexp"
	"strings"

	"github.com/AlisDesai/SkillBridge-sub001/internal/domain/model"
)

// Sub-score weights for the blended similarity.
const (
	categoryWeight = 0.3
	nameWeight     = 0.4
	tagWeight      = 0.2
	levelWeight    = 0.1
)

// Name sub-score constants.
const (
	substringScore = 0.9
	aliasScore     = 0.95
	patternScore   = 0.85
)

// Category sub-score constants.
const (
	categoryMissingScore = 0.3
	categoryRelatedScore = 0.7
	categoryOtherScore   = 0.1
)

// Tag sub-score constants for degenerate tag sets.
const (
	tagsBothEmptyScore = 0.5
	tagsOneEmptyScore  = 0.3
)

// relatedCategories maps a category to categories considered adjacent.
// The table is directional as authored; see the asymmetry note on
// categoryScore.
var relatedCategories = map[string][]string{
	"programming": {"technology", "web development", "software", "data science"},
	"technology":  {"programming", "web development", "software"},
	"design":      {"art", "creative", "web development"},
	"art":         {"design", "creative", "music"},
	"music":       {"art", "creative", "performance"},
	"language":    {"communication", "writing", "culture"},
	"writing":     {"language", "communication", "creative"},
	"fitness":     {"health", "sports", "wellness"},
	"cooking":     {"food", "culture", "health"},
	"business":    {"marketing", "finance", "management"},
	"marketing":   {"business", "communication", "design"},
}

// skillAliases maps shorthand names to their canonical entry. Two names
// resolving to the same canonical entry are treated as a near-exact match.
var skillAliases = map[string]string{
	"js":         "javascript",
	"javascript": "javascript",
	"ts":         "typescript",
	"typescript": "typescript",
	"py":         "python",
	"python":     "python",
	"golang":     "go",
	"go":         "go",
	"node":       "nodejs",
	"nodejs":     "nodejs",
	"node.js":    "nodejs",
	"react":      "reactjs",
	"reactjs":    "reactjs",
	"postgres":   "postgresql",
	"postgresql": "postgresql",
	"k8s":        "kubernetes",
	"kubernetes": "kubernetes",
	"ui":         "user interface design",
	"ux":         "user experience design",
}

// stemPatterns match names that share a stem plus a generic suffix, e.g.
// "java programming" vs "java". Both names matching the same pattern with
// an identical stem count as a fuzzy match.
var stemPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(.+?)\s+programming$`),
	regexp.MustCompile(`^(.+?)\s+design$`),
	regexp.MustCompile(`^(.+?)\s+language$`),
	regexp.MustCompile(`^(.+?)\s+framework$`),
	regexp.MustCompile(`^(.+?)\s+development$`),
}

// Similarity returns a blended similarity in [0,1] between two skills.
// Equal normalized names short-circuit to 1.0.
func Similarity(a, b model.SkillDescriptor) float64 {
	if a.Name != "" && a.Name == b.Name {
		return 1.0
	}
	return categoryWeight*categoryScore(a.Category, b.Category) +
		nameWeight*nameScore(a.Name, b.Name) +
		tagWeight*tagScore(a.Tags, b.Tags) +
		levelWeight*levelScore(a.Level, b.Level)
}

// categoryScore compares skill categories. A missing category on either
// side is neutral rather than penalizing.
//
// The related-category table is directional: X may list Y without Y
// listing X. Lookups check both directions so the resulting score stays
// symmetric even though the table itself is not.
func categoryScore(a, b string) float64 {
	if a == "" || b == "" {
		return categoryMissingScore
	}
	if a == b {
		return 1.0
	}
	if containsCategory(relatedCategories[a], b) || containsCategory(relatedCategories[b], a) {
		return categoryRelatedScore
	}
	return categoryOtherScore
}

func containsCategory(list []string, want string) bool {
	for _, c := range list {
		if c == want {
			return true
		}
	}
	return false
}

// nameScore compares skill names with a cascade of heuristics: substring
// containment, then the best of Levenshtein, word-set Jaccard, and
// alias/stem-pattern fuzzy matching.
func nameScore(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return substringScore
	}

	best := levenshteinSimilarity(a, b)
	if j := wordJaccard(a, b); j > best {
		best = j
	}
	if f := fuzzyNameScore(a, b); f > best {
		best = f
	}
	return best
}

// levenshteinSimilarity maps edit distance to [0,1] as
// 1 - distance/max(len(a), len(b)).
func levenshteinSimilarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	if longest == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshtein(ra, rb))/float64(longest)
}

// levenshtein computes edit distance with a two-row dynamic program.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func minInt(vals ...int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// wordJaccard computes Jaccard similarity over whitespace-tokenized word
// sets.
func wordJaccard(a, b string) float64 {
	setA := wordSet(a)
	setB := wordSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	common := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			common++
		}
	}
	union := len(setA) + len(setB) - common
	if union == 0 {
		return 0
	}
	return float64(common) / float64(union)
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		set[w] = struct{}{}
	}
	return set
}

// fuzzyNameScore resolves aliases and stem patterns. Same canonical alias
// entry scores 0.95; same stem under the same suffix pattern scores 0.85.
func fuzzyNameScore(a, b string) float64 {
	if ca, ok := skillAliases[a]; ok {
		if cb, ok := skillAliases[b]; ok && ca == cb {
			return aliasScore
		}
	}
	for _, pat := range stemPatterns {
		ma := pat.FindStringSubmatch(a)
		mb := pat.FindStringSubmatch(b)
		stemA, stemB := a, b
		if ma != nil {
			stemA = ma[1]
		}
		if mb != nil {
			stemB = mb[1]
		}
		// At least one side must actually carry the suffix, otherwise
		// this would duplicate the exact-name check.
		if (ma != nil || mb != nil) && stemA == stemB {
			return patternScore
		}
	}
	return 0
}

// tagScore computes Jaccard similarity over tag sets, with neutral scores
// for missing data: both empty is unknown-vs-unknown, one empty is a mild
// mismatch signal.
func tagScore(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return tagsBothEmptyScore
	}
	if len(a) == 0 || len(b) == 0 {
		return tagsOneEmptyScore
	}

	setA := lowerSet(a)
	setB := lowerSet(b)
	common := 0
	for t := range setA {
		if _, ok := setB[t]; ok {
			common++
		}
	}
	union := len(setA) + len(setB) - common
	if union == 0 {
		return tagsBothEmptyScore
	}
	return float64(common) / float64(union)
}

func lowerSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[strings.ToLower(it)] = struct{}{}
	}
	return set
}

// levelScore maps the ordinal distance between proficiency levels to a
// score: identical levels are ideal for exchange, far-apart levels less so.
func levelScore(a, b model.Level) float64 {
	diff := a.Ordinal() - b.Ordinal()
	if diff < 0 {
		diff = -diff
	}
	switch diff {
	case 0:
		return 1.0
	case 1:
		return 0.8
	case 2:
		return 0.6
	default:
		return 0.4
	}
}
