package rank_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/AlisDesai/SkillBridge-sub001/internal/adapters/cache"
	"github.com/AlisDesai/SkillBridge-sub001/internal/domain/compat"
	"github.com/AlisDesai/SkillBridge-sub001/internal/domain/model"
	"github.com/AlisDesai/SkillBridge-sub001/internal/domain/rank"
	"github.com/AlisDesai/SkillBridge-sub001/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// stubStore is an in-process cache.Store that records activity so tests
// can observe memoization without a real backend.
type stubStore struct {
	mu      sync.Mutex
	entries map[string][]byte
	gets    int
	hits    int
	sets    int
}

func newStubStore() *stubStore {
	return &stubStore{entries: map[string][]byte{}}
}

func (s *stubStore) Get(_ context.Context, key string, dest any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	raw, ok := s.entries[key]
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false
	}
	s.hits++
	return true
}

func (s *stubStore) Set(_ context.Context, key string, value any, _ time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets++
	s.entries[key] = raw
}

func (s *stubStore) Delete(_ context.Context, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

func (s *stubStore) DeletePrefix(_ context.Context, _ string) {}

func (s *stubStore) Stats(_ context.Context) cache.Stats { return cache.Stats{} }

func (s *stubStore) Close() error { return nil }

func user(id string, offered, wanted []string) model.UserSnapshot {
	u := model.UserSnapshot{ID: id, ExperienceLevel: model.LevelIntermediate}
	for _, n := range offered {
		u.SkillsOffered = append(u.SkillsOffered, model.SkillFromName(n))
	}
	for _, n := range wanted {
		u.SkillsWanted = append(u.SkillsWanted, model.SkillFromName(n))
	}
	return u
}

func TestRank(t *testing.T) {
	Convey("Given a ranker over a compatibility engine", t, func() {
		engine := compat.New()
		ctx := context.Background()
		seeker := user("seeker", []string{"python"}, []string{"guitar"})

		Convey("When the candidate pool is empty", func() {
			ranker := rank.New(engine, nil)
			got, err := ranker.Rank(ctx, &seeker, nil, nil)

			Convey("Then the result is empty without error", func() {
				So(err, ShouldBeNil)
				So(got, ShouldBeEmpty)
			})
		})

		Convey("When candidates vary in fit", func() {
			pool := []model.UserSnapshot{
				user("stranger", []string{"welding"}, []string{"pottery"}),
				user("teacher", []string{"guitar"}, []string{"python"}),
				user("peer", []string{"guitar"}, nil),
			}
			ranker := rank.New(engine, nil, rank.WithBatchSize(2))
			got, err := ranker.Rank(ctx, &seeker, pool, nil)

			Convey("Then scores are sorted non-increasing", func() {
				So(err, ShouldBeNil)
				So(len(got), ShouldEqual, 3)
				for i := 1; i < len(got); i++ {
					So(got[i].Result.Score, ShouldBeLessThanOrEqualTo, got[i-1].Result.Score)
				}
				So(got[0].Candidate.ID, ShouldEqual, "teacher")
			})
		})

		Convey("When candidates tie on score", func() {
			pool := make([]model.UserSnapshot, 0, 5)
			for i := 0; i < 5; i++ {
				pool = append(pool, user(fmt.Sprintf("twin-%d", i), []string{"guitar"}, []string{"python"}))
			}
			ranker := rank.New(engine, nil)
			got, err := ranker.Rank(ctx, &seeker, pool, nil)

			Convey("Then the original pool order breaks the tie", func() {
				So(err, ShouldBeNil)
				So(len(got), ShouldEqual, 5)
				for i, m := range got {
					So(m.Candidate.ID, ShouldEqual, fmt.Sprintf("twin-%d", i))
				}
			})
		})

		Convey("When a minimum score is configured", func() {
			pool := []model.UserSnapshot{
				user("stranger", nil, nil),
				user("teacher", []string{"guitar"}, []string{"python"}),
			}
			ranker := rank.New(engine, nil, rank.WithMinScore(60))
			got, err := ranker.Rank(ctx, &seeker, pool, nil)

			Convey("Then low scorers are filtered out", func() {
				So(err, ShouldBeNil)
				So(len(got), ShouldEqual, 1)
				So(got[0].Candidate.ID, ShouldEqual, "teacher")
				So(got[0].Result.Score, ShouldBeGreaterThanOrEqualTo, 60)
			})
		})

		Convey("When the context is already cancelled", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			ranker := rank.New(engine, nil)
			pool := []model.UserSnapshot{user("teacher", []string{"guitar"}, nil)}
			_, err := ranker.Rank(cancelled, &seeker, pool, nil)

			Convey("Then the cancellation surfaces as an error", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestRankMemoization(t *testing.T) {
	Convey("Given a ranker backed by a recording store", t, func() {
		engine := compat.New()
		store := newStubStore()
		ranker := rank.New(engine, store)
		ctx := context.Background()
		seeker := user("seeker", []string{"python"}, []string{"guitar"})
		pool := []model.UserSnapshot{
			user("teacher", []string{"guitar"}, []string{"python"}),
			user("peer", []string{"guitar"}, nil),
		}

		Convey("When the same request is ranked twice", func() {
			first, err := ranker.Rank(ctx, &seeker, pool, nil)
			So(err, ShouldBeNil)
			second, err := ranker.Rank(ctx, &seeker, pool, nil)
			So(err, ShouldBeNil)

			Convey("Then the second call is served from the cache", func() {
				So(store.sets, ShouldEqual, 1)
				So(store.hits, ShouldEqual, 1)
				So(len(second), ShouldEqual, len(first))
				for i := range first {
					So(second[i].Candidate.ID, ShouldEqual, first[i].Candidate.ID)
					So(second[i].Result.Score, ShouldEqual, first[i].Result.Score)
				}
			})
		})
	})
}

func TestRankPage(t *testing.T) {
	Convey("Given a ranked pool of seven candidates", t, func() {
		engine := compat.New()
		ranker := rank.New(engine, nil, rank.WithPageSize(3))
		ctx := context.Background()
		seeker := user("seeker", []string{"python"}, []string{"guitar"})
		pool := make([]model.UserSnapshot, 0, 7)
		for i := 0; i < 7; i++ {
			pool = append(pool, user(fmt.Sprintf("candidate-%d", i), []string{"guitar"}, []string{"python"}))
		}

		Convey("When requesting the first page", func() {
			page, total, err := ranker.RankPage(ctx, &seeker, pool, nil, rank.Page{})

			Convey("Then the default page size applies and total covers the pool", func() {
				So(err, ShouldBeNil)
				So(total, ShouldEqual, 7)
				So(len(page), ShouldEqual, 3)
			})
		})

		Convey("When requesting the final partial page", func() {
			page, total, err := ranker.RankPage(ctx, &seeker, pool, nil, rank.Page{Offset: 6, Limit: 3})

			Convey("Then only the remainder is returned", func() {
				So(err, ShouldBeNil)
				So(total, ShouldEqual, 7)
				So(len(page), ShouldEqual, 1)
			})
		})

		Convey("When the offset runs past the end", func() {
			page, total, err := ranker.RankPage(ctx, &seeker, pool, nil, rank.Page{Offset: 50, Limit: 3})

			Convey("Then the window is empty but total is intact", func() {
				So(err, ShouldBeNil)
				So(total, ShouldEqual, 7)
				So(page, ShouldBeEmpty)
			})
		})
	})
}
