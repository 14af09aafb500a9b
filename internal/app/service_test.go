package app_test

import (
	"context"
	"os"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/AlisDesai/SkillBridge-sub001/internal/app"
	"github.com/AlisDesai/SkillBridge-sub001/internal/config"
	"github.com/AlisDesai/SkillBridge-sub001/internal/domain/model"
	"github.com/AlisDesai/SkillBridge-sub001/internal/domain/rank"
	"github.com/AlisDesai/SkillBridge-sub001/internal/domain/skill"
	"github.com/AlisDesai/SkillBridge-sub001/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func snapshot(id string, offered, wanted []string) model.UserSnapshot {
	u := model.UserSnapshot{
		ID:              id,
		ExperienceLevel: model.LevelIntermediate,
		LastActive:      time.Now(),
	}
	for _, n := range offered {
		u.SkillsOffered = append(u.SkillsOffered, model.SkillFromName(n))
	}
	for _, n := range wanted {
		u.SkillsWanted = append(u.SkillsWanted, model.SkillFromName(n))
	}
	return u
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func startedService() (*app.Service, func()) {
	svc := app.New(config.New())
	if err := svc.Start(context.Background()); err != nil {
		panic(err)
	}
	return svc, func() { _ = svc.Stop(context.Background()) }
}

func TestServiceLifecycle(t *testing.T) {
	Convey("Given a service built from defaults", t, func() {
		svc := app.New(config.New())
		ctx := context.Background()

		Convey("When operations run before Start", func() {
			user := snapshot("u1", nil, nil)
			_, err := svc.Match(ctx, &user, nil, nil, rank.Page{})

			Convey("Then they report not started", func() {
				So(err, ShouldEqual, app.ErrNotStarted)
			})
		})

		Convey("When the service starts", func() {
			So(svc.Start(ctx), ShouldBeNil)
			Reset(func() { _ = svc.Stop(ctx) })

			Convey("Then starting again is rejected", func() {
				So(svc.Start(ctx), ShouldEqual, app.ErrAlreadyStarted)
			})

			Convey("Then stopping twice is harmless", func() {
				So(svc.Stop(ctx), ShouldBeNil)
				So(svc.Stop(ctx), ShouldBeNil)
			})
		})
	})
}

func TestServiceMatch(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc, stop := startedService()
		Reset(stop)
		ctx := context.Background()

		user := snapshot("seeker", []string{"python"}, []string{"guitar"})
		pool := []model.UserSnapshot{
			snapshot("teacher", []string{"guitar"}, []string{"python"}),
			snapshot("stranger", []string{"welding"}, []string{"pottery"}),
		}

		Convey("When a match request runs", func() {
			page, err := svc.Match(ctx, &user, pool, nil, rank.Page{})

			Convey("Then the complementary candidate ranks first with full detail", func() {
				So(err, ShouldBeNil)
				So(page.Total, ShouldEqual, 2)
				So(len(page.Items), ShouldEqual, 2)

				top := page.Items[0]
				So(top.User.ID, ShouldEqual, "teacher")
				So(top.MatchType, ShouldEqual, model.MatchTypePerfect)
				So(top.CompatibilityScore, ShouldBeGreaterThan, page.Items[1].CompatibilityScore)
				So(top.Tier, ShouldNotBeEmpty)
				So(top.Reasons, ShouldNotBeEmpty)
			})

			Convey("Then the breakdown stays hidden without the feature flag", func() {
				So(err, ShouldBeNil)
				So(page.Items[0].Breakdown, ShouldBeNil)
			})

			Convey("Then an analytics summary was cached", func() {
				So(err, ShouldBeNil)
				doc, ok := svc.Analytics(ctx, "seeker")
				So(ok, ShouldBeTrue)
				So(doc.Evaluated, ShouldEqual, 2)
				So(doc.Returned, ShouldEqual, 2)
				So(doc.TopScore, ShouldEqual, page.Items[0].CompatibilityScore)
				So(doc.MatchTypes[string(model.MatchTypePerfect)], ShouldEqual, 1)
			})
		})

		Convey("When pagination slices the pool", func() {
			page, err := svc.Match(ctx, &user, pool, nil, rank.Page{Offset: 1, Limit: 5})

			Convey("Then the window and total disagree on purpose", func() {
				So(err, ShouldBeNil)
				So(page.Total, ShouldEqual, 2)
				So(len(page.Items), ShouldEqual, 1)
				So(page.Offset, ShouldEqual, 1)
			})
		})

		Convey("When the candidate pool is empty", func() {
			page, err := svc.Match(ctx, &user, nil, nil, rank.Page{})

			Convey("Then an empty page comes back without error", func() {
				So(err, ShouldBeNil)
				So(page.Total, ShouldEqual, 0)
				So(page.Items, ShouldBeEmpty)
			})
		})
	})
}

func TestServiceMatchBreakdownRollout(t *testing.T) {
	Convey("Given a service with the breakdown feature fully rolled out", t, func() {
		cfg := config.New()
		cfg.Features["match_breakdown"] = config.FeatureFlag{Enabled: true}
		svc := app.New(cfg)
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		Reset(func() { _ = svc.Stop(ctx) })

		Convey("When a match request runs", func() {
			user := snapshot("seeker", []string{"python"}, []string{"guitar"})
			pool := []model.UserSnapshot{snapshot("teacher", []string{"guitar"}, []string{"python"})}
			page, err := svc.Match(ctx, &user, pool, nil, rank.Page{})

			Convey("Then each item carries the per-factor breakdown", func() {
				So(err, ShouldBeNil)
				So(len(page.Items), ShouldEqual, 1)
				So(page.Items[0].Breakdown, ShouldNotBeEmpty)
			})
		})
	})
}

func TestServiceCompare(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc, stop := startedService()
		Reset(stop)
		ctx := context.Background()

		Convey("When two users are compared directly", func() {
			user := snapshot("a", []string{"python"}, []string{"guitar"})
			candidate := snapshot("b", []string{"guitar"}, []string{"python"})
			result, err := svc.Compare(ctx, &user, &candidate, nil)

			Convey("Then the full compatibility result comes back", func() {
				So(err, ShouldBeNil)
				So(result.Score, ShouldBeBetweenOrEqual, 0, 100)
				So(result.MatchType, ShouldEqual, model.MatchTypePerfect)
				So(result.Breakdown, ShouldNotBeEmpty)
			})
		})
	})
}

func TestServiceSkillSimilarity(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc, stop := startedService()
		Reset(stop)
		ctx := context.Background()

		Convey("When the same pair is scored twice", func() {
			a := model.SkillFromName("javascript")
			b := model.SkillFromName("js")

			first, err := svc.SkillSimilarity(ctx, a, b)
			So(err, ShouldBeNil)
			second, err := svc.SkillSimilarity(ctx, a, b)
			So(err, ShouldBeNil)

			Convey("Then both calls agree and the cache took a hit", func() {
				So(first, ShouldAlmostEqual, 0.67, 1e-9)
				So(second, ShouldEqual, first)
				So(svc.CacheStats(ctx).Hits, ShouldBeGreaterThanOrEqualTo, 1)
			})

			Convey("Then argument order does not matter", func() {
				swapped, err := svc.SkillSimilarity(ctx, b, a)
				So(err, ShouldBeNil)
				So(swapped, ShouldEqual, first)
			})
		})

		Convey("When two pairs share names but differ in metadata", func() {
			richA := model.NewSkill("python", "programming", []string{"backend"}, model.LevelExpert)
			richB := model.NewSkill("guitar", "music", []string{"backend"}, model.LevelExpert)
			bareA := model.SkillFromName("python")
			bareB := model.SkillFromName("guitar")

			richScore, err := svc.SkillSimilarity(ctx, richA, richB)
			So(err, ShouldBeNil)
			bareScore, err := svc.SkillSimilarity(ctx, bareA, bareB)
			So(err, ShouldBeNil)

			Convey("Then each pair is memoized under its own key", func() {
				So(richScore, ShouldAlmostEqual, skill.Similarity(richA, richB), 1e-9)
				So(bareScore, ShouldAlmostEqual, skill.Similarity(bareA, bareB), 1e-9)
				So(bareScore, ShouldNotAlmostEqual, richScore, 1e-9)
			})
		})
	})
}

func TestServiceInvalidateUser(t *testing.T) {
	Convey("Given a service with cached results for a user", t, func() {
		svc, stop := startedService()
		Reset(stop)
		ctx := context.Background()

		user := snapshot("seeker", []string{"python"}, []string{"guitar"})
		pool := []model.UserSnapshot{snapshot("teacher", []string{"guitar"}, []string{"python"})}
		_, err := svc.Match(ctx, &user, pool, nil, rank.Page{})
		So(err, ShouldBeNil)
		_, ok := svc.Analytics(ctx, "seeker")
		So(ok, ShouldBeTrue)

		Convey("When the user is invalidated", func() {
			So(svc.InvalidateUser(ctx, "seeker"), ShouldBeNil)

			Convey("Then the analytics document disappears", func() {
				So(waitFor(func() bool {
					_, ok := svc.Analytics(ctx, "seeker")
					return !ok
				}), ShouldBeTrue)
			})

			Convey("Then other users' entries are untouched", func() {
				other := snapshot("other", []string{"piano"}, nil)
				_, err := svc.Match(ctx, &other, pool, nil, rank.Page{})
				So(err, ShouldBeNil)
				_, ok := svc.Analytics(ctx, "other")
				So(ok, ShouldBeTrue)
			})
		})
	})
}
