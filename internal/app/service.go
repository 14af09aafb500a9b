// Package app wires the match engine together: configuration, cache,
// compatibility engine, ranker, and the invalidation pipeline. It exposes
// the operations external collaborators call.
package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/AlisDesai/SkillBridge-sub001/internal/adapters/cache"
	"github.com/AlisDesai/SkillBridge-sub001/internal/adapters/mq/invalidation"
	"github.com/AlisDesai/SkillBridge-sub001/internal/config"
	"github.com/AlisDesai/SkillBridge-sub001/internal/domain/compat"
	"github.com/AlisDesai/SkillBridge-sub001/internal/domain/model"
	"github.com/AlisDesai/SkillBridge-sub001/internal/domain/rank"
	"github.com/AlisDesai/SkillBridge-sub001/internal/domain/skill"
	"github.com/AlisDesai/SkillBridge-sub001/pkg/logger"
	"github.com/AlisDesai/SkillBridge-sub001/pkg/metrics"
)

// breakdownFeature gates the optional per-factor breakdown in match
// responses.
const breakdownFeature = "match_breakdown"

// UserSummary is the candidate subset returned to external collaborators.
type UserSummary struct {
	ID              string                  `json:"id"`
	SkillsOffered   []model.SkillDescriptor `json:"skills_offered"`
	SkillsWanted    []model.SkillDescriptor `json:"skills_wanted"`
	ExperienceLevel string                  `json:"experience_level"`
	Location        *model.Location         `json:"location,omitempty"`
	AverageRating   float64                 `json:"average_rating"`
	IsOnline        bool                    `json:"is_online"`
}

// MatchItem is one entry in a ranked match response.
type MatchItem struct {
	User               UserSummary                      `json:"user"`
	CompatibilityScore int                              `json:"compatibility_score"`
	MatchType          model.MatchType                  `json:"match_type"`
	Reasons            []string                         `json:"reasons"`
	Confidence         int                              `json:"confidence"`
	Tier               string                           `json:"tier"`
	Breakdown          map[string]model.FactorBreakdown `json:"breakdown,omitempty"`
}

// MatchPage is a paginated ranked match response.
type MatchPage struct {
	Items  []MatchItem `json:"items"`
	Total  int         `json:"total"`
	Offset int         `json:"offset"`
}

// Analytics is the per-user analytics document memoized in the cache.
type Analytics struct {
	UserID        string         `json:"user_id"`
	Evaluated     int            `json:"evaluated"`
	Returned      int            `json:"returned"`
	AverageScore  float64        `json:"average_score"`
	TopScore      int            `json:"top_score"`
	MatchTypes    map[string]int `json:"match_types"`
	SkillsOffered int            `json:"skills_offered"`
	SkillsWanted  int            `json:"skills_wanted"`
}

// Service is the match engine facade. Construct with New, call Start
// before use, and Stop on shutdown.
type Service struct {
	mu sync.Mutex

	cfg        *config.Config
	store      cache.Store
	engine     *compat.Engine
	ranker     *rank.Ranker
	thresholds compat.Thresholds

	queue *invalidation.Queue
	pool  *invalidation.Pool

	started bool
	logger  logger.Logger
}

// New builds the service from configuration. The cache store is injected
// so tests can swap in a stub; pass nil to have Start build the
// production store from cfg.
func New(cfg *config.Config, opts ...Option) *Service {
	s := &Service{
		cfg:        cfg,
		thresholds: cfg.Thresholds.Thresholds(),
		logger:     logger.Get().Named("app"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the remaining components and launches the invalidation
// workers. It is an error to start twice.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyStarted
	}

	if s.store == nil {
		store, err := buildStore(s.cfg)
		if err != nil {
			return fmt.Errorf("build cache store: %w", err)
		}
		s.store = store
	}

	s.engine = compat.New(compat.WithWeights(s.cfg.Weights(config.DefaultProfileName)))
	s.ranker = rank.New(s.engine, s.store,
		rank.WithBatchSize(s.cfg.Ranker.BatchSize),
		rank.WithMinScore(s.cfg.Ranker.MinScore),
		rank.WithPageSize(s.cfg.Ranker.PageSize),
	)

	s.queue = invalidation.NewQueue(invalidation.WithCapacity(s.cfg.Ranker.InvalidationQueueSize))
	s.pool = invalidation.NewPool(s.queue, s.store,
		invalidation.WithWorkerCount(s.cfg.Ranker.InvalidationWorkers),
	)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "match engine started",
		logger.Int("batch_size", s.cfg.Ranker.BatchSize),
		logger.Bool("durable_cache", s.cfg.Cache.Dir != ""),
	)
	return nil
}

// buildStore assembles the production cache: badger primary when a data
// directory is configured, bounded memory fallback always.
func buildStore(cfg *config.Config) (cache.Store, error) {
	fallback := cache.NewMemoryBackend(cache.WithCapacity(cfg.Cache.MemoryCapacity))

	var primary cache.Backend
	if cfg.Cache.Dir != "" {
		backend, err := cache.NewBadgerBackend(cfg.Cache.Dir, cache.WithCallTimeout(cfg.Cache.CallTimeout()))
		if err != nil {
			return nil, err
		}
		primary = backend
	}

	return cache.NewResilientStore(primary, fallback,
		cache.WithBreakerConfig(cache.BreakerConfig{
			FailureThreshold: uint32(cfg.Cache.BreakerFailureThreshold),
			Cooldown:         cfg.Cache.BreakerCooldown(),
		}),
	), nil
}

// Stop drains the invalidation pipeline and closes the cache.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.started = false

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "invalidation shutdown incomplete", logger.Error(err))
	}
	if err := s.store.Close(); err != nil {
		return fmt.Errorf("close cache store: %w", err)
	}
	return nil
}

// Match ranks the candidate pool for user and returns one page. The
// per-factor breakdown is attached only when the breakdown feature is
// rolled out to the requesting user.
func (s *Service) Match(ctx context.Context, user *model.UserSnapshot, candidates []model.UserSnapshot, history []model.MatchHistory, page rank.Page) (MatchPage, error) {
	if err := s.ready(); err != nil {
		return MatchPage{}, err
	}
	metrics.RecordMatchRequest()
	requestID := uuid.NewString()

	items, total, err := s.ranker.RankPage(ctx, user, candidates, history, page)
	if err != nil {
		return MatchPage{}, fmt.Errorf("rank candidates: %w", err)
	}

	includeBreakdown := s.cfg.FeatureEnabled(breakdownFeature, user.ID)
	out := MatchPage{
		Items:  make([]MatchItem, 0, len(items)),
		Total:  total,
		Offset: page.Offset,
	}
	for _, m := range items {
		metrics.RecordMatchType(string(m.Result.MatchType))
		metrics.RecordCompatibilityScore(m.Result.Score)
		out.Items = append(out.Items, s.matchItem(m, includeBreakdown))
	}

	s.refreshAnalytics(ctx, user, candidates, history)

	s.logger.Debug(ctx, "ranked candidate pool",
		logger.String("request_id", requestID),
		logger.String("user_id", user.ID),
		logger.Int("candidates", len(candidates)),
		logger.Int("returned", len(out.Items)),
	)
	return out, nil
}

func (s *Service) matchItem(m model.RankedMatch, includeBreakdown bool) MatchItem {
	item := MatchItem{
		User: UserSummary{
			ID:              m.Candidate.ID,
			SkillsOffered:   m.Candidate.SkillsOffered,
			SkillsWanted:    m.Candidate.SkillsWanted,
			ExperienceLevel: m.Candidate.ExperienceLevel.String(),
			Location:        m.Candidate.Location,
			AverageRating:   m.Candidate.AverageRating,
			IsOnline:        m.Candidate.IsOnline,
		},
		CompatibilityScore: m.Result.Score,
		MatchType:          m.Result.MatchType,
		Reasons:            m.Result.Reasons,
		Confidence:         m.Result.Confidence,
		Tier:               s.thresholds.Tier(m.Result.Score),
	}
	if includeBreakdown {
		item.Breakdown = m.Result.Breakdown
	}
	return item
}

// Compare scores a single pair directly, bypassing ranking and caching.
func (s *Service) Compare(ctx context.Context, user, candidate *model.UserSnapshot, history []model.MatchHistory) (model.CompatibilityResult, error) {
	if err := s.ready(); err != nil {
		return model.CompatibilityResult{}, err
	}
	metrics.RecordCompareRequest()
	return s.engine.Score(ctx, user, candidate, history), nil
}

// SkillSimilarity returns the similarity between two skills, memoized for
// a day since the underlying tables change only on deploy.
func (s *Service) SkillSimilarity(ctx context.Context, a, b model.SkillDescriptor) (float64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}

	key := cache.SimilarityKey(a, b)
	var score float64
	if s.store.Get(ctx, key, &score) {
		return score, nil
	}
	score = skill.Similarity(a, b)
	s.store.Set(ctx, key, score, cache.TTLSkillSimilarity)
	return score, nil
}

// InvalidateUser drops every cached match result and analytics document
// for the user. The delete normally rides the async queue; when the queue
// is full or closed it happens synchronously so no invalidation is lost.
func (s *Service) InvalidateUser(ctx context.Context, userID string) error {
	if err := s.ready(); err != nil {
		return err
	}

	event := invalidation.Event{
		UserID:     userID,
		Namespaces: []string{cache.NamespaceMatch, cache.NamespaceAnalytics},
	}
	if !s.queue.Enqueue(ctx, event) {
		metrics.RecordInvalidationOverflow()
		invalidation.Apply(ctx, s.store, event)
	}
	return nil
}

// FeatureEnabled reports whether the named feature is rolled out to the
// user.
func (s *Service) FeatureEnabled(name, userID string) bool {
	return s.cfg.FeatureEnabled(name, userID)
}

// Analytics returns the cached per-user analytics document, if present.
func (s *Service) Analytics(ctx context.Context, userID string) (Analytics, bool) {
	var doc Analytics
	if s.store == nil {
		return doc, false
	}
	ok := s.store.Get(ctx, cache.AnalyticsKey(userID, "summary"), &doc)
	return doc, ok
}

// refreshAnalytics recomputes and caches the user's analytics summary
// from the full (unpaginated) ranking. Two requests racing on first
// creation both write the same document; last write wins and a re-read
// returns a valid record either way, so the race needs no coordination.
func (s *Service) refreshAnalytics(ctx context.Context, user *model.UserSnapshot, candidates []model.UserSnapshot, history []model.MatchHistory) {
	ranked, err := s.ranker.Rank(ctx, user, candidates, history)
	if err != nil {
		return
	}

	doc := Analytics{
		UserID:        user.ID,
		Evaluated:     len(candidates),
		Returned:      len(ranked),
		MatchTypes:    make(map[string]int),
		SkillsOffered: len(user.SkillsOffered),
		SkillsWanted:  len(user.SkillsWanted),
	}
	sum := 0
	for _, m := range ranked {
		sum += m.Result.Score
		doc.MatchTypes[string(m.Result.MatchType)]++
		if m.Result.Score > doc.TopScore {
			doc.TopScore = m.Result.Score
		}
	}
	if len(ranked) > 0 {
		doc.AverageScore = float64(sum) / float64(len(ranked))
	}
	s.store.Set(ctx, cache.AnalyticsKey(user.ID, "summary"), doc, cache.TTLAnalytics)
}

// CacheStats exposes cache counters for the observability endpoint.
func (s *Service) CacheStats(ctx context.Context) cache.Stats {
	if s.store == nil {
		return cache.Stats{}
	}
	return s.store.Stats(ctx)
}

func (s *Service) ready() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}
