package cache

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"

	"github.com/AlisDesai/SkillBridge-sub001/internal/domain/model"
)

// Key derivation must be deterministic: semantically identical requests
// always hash to the same key. Collections are sorted before hashing and
// parameter maps are serialized with lexicographically ordered keys
// (json map marshaling sorts string keys).

// MatchKey derives the key for a ranked-match result: requesting user,
// candidate pool, and ranking parameters.
func MatchKey(userID string, candidateIDs []string, params map[string]any) string {
	ids := append([]string(nil), candidateIDs...)
	sort.Strings(ids)

	payload := map[string]any{
		"candidates": ids,
		"params":     params,
	}
	return fmt.Sprintf("%s:%s:%s", NamespaceMatch, userID, hashPayload(payload))
}

// SimilarityKey derives the key for one pairwise skill similarity. The
// whole descriptor feeds the hash: same-named skills with different
// categories, tags, or levels score differently and must not share an
// entry. The pair is order-insensitive because similarity is symmetric.
func SimilarityKey(a, b model.SkillDescriptor) string {
	ka, kb := descriptorPayload(a), descriptorPayload(b)
	if kb < ka {
		ka, kb = kb, ka
	}
	return fmt.Sprintf("%s:%s", NamespaceSimilarity, hashPayload([]string{ka, kb}))
}

// descriptorPayload renders one descriptor deterministically: tags are
// lowercased and sorted, the level collapses to its ordinal.
func descriptorPayload(s model.SkillDescriptor) string {
	tags := make([]string, len(s.Tags))
	for i, t := range s.Tags {
		tags[i] = strings.ToLower(t)
	}
	sort.Strings(tags)
	return fmt.Sprintf("%s|%s|%s|%d", s.Name, s.Category, strings.Join(tags, ","), s.Level.Ordinal())
}

// AnalyticsKey derives the key for a per-user analytics document.
func AnalyticsKey(userID, doc string) string {
	return fmt.Sprintf("%s:%s:%s", NamespaceAnalytics, userID, doc)
}

// UserPrefix returns the invalidation prefix covering every entry in a
// namespace belonging to one user.
func UserPrefix(namespace, userID string) string {
	return namespace + ":" + userID + ":"
}

// hashPayload serializes the payload and hashes it with xxhash64.
func hashPayload(payload any) string {
	data, err := json.Marshal(payload)
	if err != nil {
		// Marshaling maps/slices of plain values cannot fail; fall back
		// to the raw fmt rendering so the key is still deterministic.
		data = []byte(fmt.Sprintf("%v", payload))
	}
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}

// ValidKey reports whether a caller-supplied key is usable: non-empty and
// free of whitespace.
func ValidKey(key string) bool {
	return key != "" && !strings.ContainsAny(key, " \t\n")
}
