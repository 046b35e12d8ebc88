package scoring_test

import (
	"math"
	"testing"

	"github.com/okian/meritrack/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCalculate(t *testing.T) {
	Convey("Given component scores", t, func() {
		Convey("When every component is at its maximum", func() {
			b := scoring.Calculate(scoring.Input{ATS: 100, Git: 100, BadgeScore: 20})

			Convey("Then the total is 100", func() {
				So(b.TotalScore, ShouldEqual, 100)
			})
		})

		Convey("When every component is zero", func() {
			Convey("Then the total is 0", func() {
				So(scoring.Calculate(scoring.Input{}).TotalScore, ShouldEqual, 0)
			})
		})

		Convey("When ATS=80, Git=22 and BadgeScore=14", func() {
			b := scoring.Calculate(scoring.Input{ATS: 80, Git: 22, BadgeScore: 14})

			Convey("Then the weighted total is 40 + 6.6 + 14 rounded", func() {
				So(b.TotalScore, ShouldEqual, 61)
				So(b.ATSComponent, ShouldEqual, 80)
				So(b.GitComponent, ShouldEqual, 22)
				So(b.BadgeComponent, ShouldEqual, 14)
			})
		})

		Convey("When components are out of range", func() {
			b := scoring.Calculate(scoring.Input{ATS: 250, Git: -10, BadgeScore: 99})

			Convey("Then they are clamped before weighting", func() {
				So(b.ATSComponent, ShouldEqual, 100)
				So(b.GitComponent, ShouldEqual, 0)
				So(b.BadgeComponent, ShouldEqual, 20)
				So(b.TotalScore, ShouldEqual, 70)
			})
		})

		Convey("When a component is NaN", func() {
			b := scoring.Calculate(scoring.Input{ATS: math.NaN(), Git: 50})

			Convey("Then it counts as zero", func() {
				So(b.ATSComponent, ShouldEqual, 0)
				So(b.TotalScore, ShouldEqual, 15)
			})
		})
	})
}

func TestCalculateProperties(t *testing.T) {
	Convey("Given a grid of inputs", t, func() {
		Convey("Then the total stays within [0,100]", func() {
			for ats := -20.0; ats <= 120; ats += 10 {
				for git := -20.0; git <= 120; git += 10 {
					for badge := -4.0; badge <= 24; badge += 2 {
						total := scoring.Calculate(scoring.Input{ATS: ats, Git: git, BadgeScore: badge}).TotalScore
						So(total, ShouldBeBetweenOrEqual, 0, 100)
					}
				}
			}
		})

		Convey("Then raising one component never lowers the total", func() {
			base := scoring.Input{ATS: 55, Git: 40, BadgeScore: 6}
			prev := scoring.Calculate(base).TotalScore

			for d := 0.0; d <= 60; d += 0.5 {
				in := base
				in.ATS += d
				So(scoring.Calculate(in).TotalScore, ShouldBeGreaterThanOrEqualTo, prev)

				in = base
				in.Git += d
				So(scoring.Calculate(in).TotalScore, ShouldBeGreaterThanOrEqualTo, prev)

				in = base
				in.BadgeScore += d / 4
				So(scoring.Calculate(in).TotalScore, ShouldBeGreaterThanOrEqualTo, prev)
			}
		})
	})
}
