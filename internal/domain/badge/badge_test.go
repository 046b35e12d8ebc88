package badge_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/meritrack/internal/domain/badge"
	"github.com/okian/meritrack/internal/domain/gitstats"
	. "github.com/smartystreets/goconvey/convey"
)

func ats(v float64) *float64 { return &v }
func conns(v int) *int       { return &v }

func awardedTypes(awards []badge.Award) []badge.Type {
	out := make([]badge.Type, 0, len(awards))
	for _, a := range awards {
		out = append(out, a.Type)
	}
	return out
}

func TestRegistry(t *testing.T) {
	Convey("Given the badge registry", t, func() {
		defs := badge.Definitions()

		Convey("Then every type has exactly one definition in order", func() {
			So(len(defs), ShouldEqual, len(badge.Types()))
			for i, typ := range badge.Types() {
				So(defs[i].Type, ShouldEqual, typ)
				So(defs[i].Name, ShouldNotBeBlank)
				So(defs[i].Icon, ShouldNotBeBlank)
				So(defs[i].Requirement.Type, ShouldNotBeBlank)
			}
		})

		Convey("Then Lookup finds known types and rejects others", func() {
			d, ok := badge.Lookup(badge.StarCollector)
			So(ok, ShouldBeTrue)
			So(d.Name, ShouldEqual, "Star Collector")
			So(d.Requirement.Threshold, ShouldEqual, 50)

			_, ok = badge.Lookup(badge.Type("nope"))
			So(ok, ShouldBeFalse)
		})

		Convey("Then ParseType validates names", func() {
			typ, err := badge.ParseType("pull_request_pro")
			So(err, ShouldBeNil)
			So(typ, ShouldEqual, badge.PullRequestPro)

			_, err = badge.ParseType("gold_star")
			So(errors.Is(err, badge.ErrUnknownType), ShouldBeTrue)
		})

		Convey("Then mutating the returned slice does not affect later calls", func() {
			defs[0].Name = "changed"
			So(badge.Definitions()[0].Name, ShouldEqual, "Resume Master")
		})
	})
}

func TestEvaluate(t *testing.T) {
	Convey("Given user signals", t, func() {
		Convey("When nothing is present", func() {
			Convey("Then no badge qualifies", func() {
				So(badge.Evaluate(badge.Signals{}), ShouldBeEmpty)
			})
		})

		Convey("When the ATS score is exactly 80", func() {
			Convey("Then resume_master is not awarded", func() {
				So(badge.Evaluate(badge.Signals{ATSScore: ats(80)}), ShouldBeEmpty)
			})
		})

		Convey("When the ATS score is 81", func() {
			awards := badge.Evaluate(badge.Signals{ATSScore: ats(81)})

			Convey("Then resume_master is awarded with the score as evidence", func() {
				So(awardedTypes(awards), ShouldResemble, []badge.Type{badge.ResumeMaster})
				So(awards[0].Metadata["atsScore"], ShouldEqual, 81.0)
			})
		})

		Convey("When GitHub counters sit exactly on their thresholds", func() {
			stats := gitstats.Stats{
				TotalCommits:      10,
				TotalPullRequests: 5,
				TotalStars:        50,
				Languages:         []string{"Go", "Rust", "Python"},
			}
			awards := badge.Evaluate(badge.Signals{GitHub: &stats})

			Convey("Then every inclusive GitHub rule fires", func() {
				So(awardedTypes(awards), ShouldResemble, []badge.Type{
					badge.OpenSourceContributor,
					badge.PullRequestPro,
					badge.PolyglotProgrammer,
					badge.StarCollector,
				})
			})

			Convey("Then metadata records the observed values", func() {
				So(awards[0].Metadata["commits"], ShouldEqual, 10)
				So(awards[1].Metadata["prs"], ShouldEqual, 5)
				So(awards[2].Metadata["languages"], ShouldResemble, []string{"Go", "Rust", "Python"})
				So(awards[3].Metadata["stars"], ShouldEqual, 50)
			})
		})

		Convey("When GitHub counters are one below threshold", func() {
			stats := gitstats.Stats{
				TotalCommits:      9,
				TotalPullRequests: 4,
				TotalStars:        49,
				Languages:         []string{"Go", "Rust"},
			}

			Convey("Then no GitHub rule fires", func() {
				So(badge.Evaluate(badge.Signals{GitHub: &stats}), ShouldBeEmpty)
			})
		})

		Convey("When connections and a skill gap analysis are present", func() {
			awards := badge.Evaluate(badge.Signals{
				AcceptedConnections: conns(10),
				SkillGap:            &badge.SkillGapSignal{TargetRole: "Data Scientist", AnalyzedAt: time.Now()},
			})

			Convey("Then networking_ninja and skill_seeker are awarded", func() {
				So(awardedTypes(awards), ShouldResemble, []badge.Type{badge.NetworkingNinja, badge.SkillSeeker})
				So(awards[1].Metadata["targetRole"], ShouldEqual, "Data Scientist")
			})
		})

		Convey("When connections are below ten", func() {
			Convey("Then networking_ninja is not awarded", func() {
				So(badge.Evaluate(badge.Signals{AcceptedConnections: conns(9)}), ShouldBeEmpty)
			})
		})
	})
}

func TestCalculateScore(t *testing.T) {
	Convey("Given badge counts", t, func() {
		Convey("Then each badge is worth two points capped at twenty", func() {
			So(badge.CalculateScore(0), ShouldEqual, 0)
			So(badge.CalculateScore(7), ShouldEqual, 14)
			So(badge.CalculateScore(10), ShouldEqual, 20)
			So(badge.CalculateScore(12), ShouldEqual, 20)
		})

		Convey("Then negative counts score zero", func() {
			So(badge.CalculateScore(-3), ShouldEqual, 0)
		})
	})
}

func TestNewView(t *testing.T) {
	Convey("Given a stored badge", t, func() {
		earned := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		b := badge.Badge{ID: "x", UserID: "u1", Type: badge.PolyglotProgrammer, EarnedAt: earned, Progress: badge.EarnedProgress}

		Convey("When building its view", func() {
			v := badge.NewView(b)

			Convey("Then the definition fields are joined in", func() {
				So(v.Name, ShouldEqual, "Polyglot Programmer")
				So(v.Icon, ShouldEqual, "🌐")
				So(v.EarnedAt.Equal(earned), ShouldBeTrue)
				So(v.Progress, ShouldEqual, 100)
			})
		})
	})
}
