package skill_test

import (
	"testing"

	"github.com/AlisDesai/SkillBridge-sub001/internal/domain/model"
	"github.com/AlisDesai/SkillBridge-sub001/internal/domain/skill"
	. "github.com/smartystreets/goconvey/convey"
)

func skills(names ...string) []model.SkillDescriptor {
	out := make([]model.SkillDescriptor, len(names))
	for i, n := range names {
		out[i] = model.SkillFromName(n)
	}
	return out
}

func TestFindSimilar(t *testing.T) {
	Convey("Given a skill pool", t, func() {
		target := model.SkillFromName("python")
		pool := skills("guitar", "python", "py", "cooking")

		Convey("When searching with a high threshold", func() {
			got := skill.FindSimilar(target, pool, 0.6)

			Convey("Then only similar skills survive, best first", func() {
				So(len(got), ShouldEqual, 2)
				So(got[0].Skill.Name, ShouldEqual, "python")
				So(got[0].Score, ShouldEqual, 1.0)
				So(got[1].Skill.Name, ShouldEqual, "py")
				So(got[1].Score, ShouldBeLessThan, 1.0)
			})
		})

		Convey("When the threshold excludes everything", func() {
			got := skill.FindSimilar(model.SkillFromName("welding"), pool, 0.9)

			Convey("Then the result is empty, not nil-panicky", func() {
				So(got, ShouldBeEmpty)
			})
		})
	})
}

func TestCompatibility(t *testing.T) {
	Convey("Given two complementary users' skill lists", t, func() {
		teachA := skills("python")
		learnA := skills("guitar")
		teachB := skills("guitar")
		learnB := skills("python")

		Convey("When building the compatibility matrix", func() {
			m := skill.Compatibility(teachA, learnA, teachB, learnB)

			Convey("Then both teach directions are detected", func() {
				So(len(m.CanTeach), ShouldEqual, 1)
				So(m.CanTeach[0].Skill.Name, ShouldEqual, "python")
				So(len(m.CanLearn), ShouldEqual, 1)
				So(m.CanLearn[0].Skill.Name, ShouldEqual, "guitar")
			})

			Convey("Then no mutual interests exist for disjoint wants", func() {
				So(m.MutualInterests, ShouldBeEmpty)
			})

			Convey("Then the overall score blends 0.4+0.4+0 and is clamped", func() {
				So(m.OverallScore, ShouldAlmostEqual, 0.8, 1e-9)
			})
		})
	})

	Convey("Given users who want the same skill", t, func() {
		m := skill.Compatibility(nil, skills("piano"), nil, skills("piano"))

		Convey("Then the pair shows up as mutual interest only", func() {
			So(m.CanTeach, ShouldBeEmpty)
			So(m.CanLearn, ShouldBeEmpty)
			So(len(m.MutualInterests), ShouldEqual, 1)
			So(m.OverallScore, ShouldAlmostEqual, 0.2, 1e-9)
		})
	})

	Convey("Given completely empty skill lists", t, func() {
		m := skill.Compatibility(nil, nil, nil, nil)

		Convey("Then every term contributes zero", func() {
			So(m.OverallScore, ShouldEqual, 0.0)
		})
	})
}

func TestReasons(t *testing.T) {
	Convey("Given compatibility matrices", t, func() {
		Convey("When the matrix is empty", func() {
			got := skill.Reasons(skill.Matrix{})

			Convey("Then a single default line is returned", func() {
				So(len(got), ShouldEqual, 1)
				So(got[0], ShouldContainSubstring, "common ground")
			})
		})

		Convey("When both directions carry matches", func() {
			m := skill.Compatibility(skills("python"), skills("guitar"), skills("guitar"), skills("python"))
			got := skill.Reasons(m)

			Convey("Then teach, learn, exchange and tier lines appear in order", func() {
				So(len(got), ShouldEqual, 4)
				So(got[0], ShouldContainSubstring, "teach them python")
				So(got[1], ShouldContainSubstring, "learn guitar")
				So(got[2], ShouldContainSubstring, "two-way skill exchange")
				So(got[3], ShouldContainSubstring, "Strong overall compatibility")
			})
		})

		Convey("When the overall score is exceptional", func() {
			m := skill.Compatibility(
				skills("python", "go"), skills("guitar", "piano"),
				skills("guitar", "piano"), skills("python", "go"),
			)
			m.MutualInterests = append(m.MutualInterests, skill.Match{
				Skill:       model.SkillFromName("drawing"),
				Counterpart: model.SkillFromName("drawing"),
				Score:       1.0,
			})
			m.OverallScore = 0.9
			got := skill.Reasons(m)

			Convey("Then the exceptional tier line is used", func() {
				So(got[len(got)-1], ShouldContainSubstring, "Exceptional overall compatibility")
			})
		})
	})
}
