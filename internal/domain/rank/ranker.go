// Package rank applies the compatibility engine across a candidate pool
// and produces a deterministically ordered, paginated result.
package rank

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/AlisDesai/SkillBridge-sub001/internal/adapters/cache"
	"github.com/AlisDesai/SkillBridge-sub001/internal/domain/compat"
	"github.com/AlisDesai/SkillBridge-sub001/internal/domain/model"
	"github.com/AlisDesai/SkillBridge-sub001/pkg/logger"
	"github.com/AlisDesai/SkillBridge-sub001/pkg/metrics"
)

// Default ranker configuration constants.
const (
	defaultBatchSize = 8
	defaultMinScore  = 0
	defaultPageSize  = 20
)

// Page selects a window of the ranked result.
type Page struct {
	Offset int
	Limit  int
}

// Ranker scores candidate pools in bounded parallel batches. The final
// ordering never depends on worker completion order: candidates keep
// their original index until the stable sort by score.
type Ranker struct {
	engine    *compat.Engine
	store     cache.Store
	batchSize int
	minScore  int
	pageSize  int
	logger    logger.Logger
}

// New creates a Ranker with configuration options.
func New(engine *compat.Engine, store cache.Store, opts ...Option) *Ranker {
	r := &Ranker{
		engine:    engine,
		store:     store,
		batchSize: defaultBatchSize,
		minScore:  defaultMinScore,
		pageSize:  defaultPageSize,
		logger:    logger.Get().Named("ranker"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rank scores every candidate against user and returns matches at or
// above the minimum score, sorted by score descending. Ties preserve the
// original candidate order. An empty pool yields an empty result.
//
// Results are memoized in the cache under a deterministic key; a cache
// failure silently falls through to computation.
func (r *Ranker) Rank(ctx context.Context, user *model.UserSnapshot, candidates []model.UserSnapshot, history []model.MatchHistory) ([]model.RankedMatch, error) {
	if len(candidates) == 0 {
		return []model.RankedMatch{}, nil
	}

	key := r.cacheKey(user, candidates)
	var cached []model.RankedMatch
	if r.store != nil && r.store.Get(ctx, key, &cached) {
		r.logger.Debug(ctx, "ranked result served from cache",
			logger.String("user_id", user.ID),
			logger.Int("matches", len(cached)),
		)
		return cached, nil
	}

	start := time.Now()
	results, err := r.scoreAll(ctx, user, candidates, history)
	if err != nil {
		return nil, err
	}
	metrics.RecordRankLatency(float64(time.Since(start).Milliseconds()))

	// Stable sort keeps original candidate order on equal scores, so the
	// output is independent of worker completion order.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Result.Score > results[j].Result.Score
	})

	ranked := make([]model.RankedMatch, 0, len(results))
	for _, m := range results {
		if m.Result.Score >= r.minScore {
			ranked = append(ranked, m)
		}
	}

	if r.store != nil {
		r.store.Set(ctx, key, ranked, cache.TTLMatchResults)
	}
	return ranked, nil
}

// RankPage ranks and returns one page of the result. A non-positive limit
// uses the configured default page size.
func (r *Ranker) RankPage(ctx context.Context, user *model.UserSnapshot, candidates []model.UserSnapshot, history []model.MatchHistory, page Page) ([]model.RankedMatch, int, error) {
	ranked, err := r.Rank(ctx, user, candidates, history)
	if err != nil {
		return nil, 0, err
	}

	total := len(ranked)
	offset := page.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	limit := page.Limit
	if limit <= 0 {
		limit = r.pageSize
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return ranked[offset:end], total, nil
}

// scoreAll fans candidates out to at most batchSize concurrent workers
// and collects results by index.
func (r *Ranker) scoreAll(ctx context.Context, user *model.UserSnapshot, candidates []model.UserSnapshot, history []model.MatchHistory) ([]model.RankedMatch, error) {
	results := make([]model.RankedMatch, len(candidates))

	sem := make(chan struct{}, r.batchSize)
	var wg sync.WaitGroup
	for i := range candidates {
		select {
		case <-ctx.Done():
			wg.Wait()
			return nil, ctx.Err()
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()
			candidate := candidates[idx]
			scoreStart := time.Now()
			results[idx] = model.RankedMatch{
				Candidate: candidate,
				Result:    r.engine.Score(ctx, user, &candidate, history),
			}
			metrics.RecordScoringLatency(float64(time.Since(scoreStart).Microseconds()) / 1000)
		}(i)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// cacheKey derives the memoization key from the requesting user, the
// candidate pool, and the ranking parameters that change the output.
func (r *Ranker) cacheKey(user *model.UserSnapshot, candidates []model.UserSnapshot) string {
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	return cache.MatchKey(user.ID, ids, map[string]any{
		"min_score": r.minScore,
	})
}
