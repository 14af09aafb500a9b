package rank

import "github.com/AlisDesai/SkillBridge-sub001/pkg/logger"

// Option applies a configuration option to the Ranker.
type Option func(*Ranker)

// WithBatchSize bounds the number of candidates scored concurrently.
func WithBatchSize(size int) Option {
	return func(r *Ranker) {
		if size > 0 {
			r.batchSize = size
		}
	}
}

// WithMinScore filters out matches scoring below the given floor.
func WithMinScore(score int) Option {
	return func(r *Ranker) {
		if score >= 0 {
			r.minScore = score
		}
	}
}

// WithPageSize sets the default page size used when a request does not
// specify a limit.
func WithPageSize(size int) Option {
	return func(r *Ranker) {
		if size > 0 {
			r.pageSize = size
		}
	}
}

// WithLogger sets a custom logger for the ranker.
func WithLogger(log logger.Logger) Option {
	return func(r *Ranker) {
		if log != nil {
			r.logger = log
		}
	}
}
