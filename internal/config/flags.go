package config

import (
	"github.com/cespare/xxhash/v2"
)

// FeatureFlag gates a feature to a deterministic percentage of users.
type FeatureFlag struct {
	Enabled           bool `koanf:"enabled"`
	RolloutPercentage int  `koanf:"rollout_percentage"`
}

// rolloutBucketMax is the inclusive upper bound of the rollout bucket.
const rolloutBucketMax = 100

// RolloutBucket maps a user id onto a stable 0-100 bucket: the first byte
// of the id's xxhash scaled to the bucket range. The same id always lands
// in the same bucket, so repeated gating decisions agree.
func RolloutBucket(userID string) int {
	sum := xxhash.Sum64String(userID)
	firstByte := int(sum >> 56)
	return firstByte * rolloutBucketMax / 255
}

// FeatureEnabled reports whether userID is included in the rollout of the
// named feature. Unknown features are off. A zero rollout percentage is
// treated as unset, i.e. full rollout when the flag is enabled.
func (c *Config) FeatureEnabled(name, userID string) bool {
	flag, ok := c.Features[name]
	if !ok || !flag.Enabled {
		return false
	}
	if flag.RolloutPercentage <= 0 || flag.RolloutPercentage >= rolloutBucketMax {
		return true
	}
	return RolloutBucket(userID) <= flag.RolloutPercentage
}
