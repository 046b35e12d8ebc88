// Package scoring folds the ATS, GitHub and badge contributions into one
// composite employability score.
package scoring

import "math"

// Component bounds and weights.
const (
	maxATS   = 100.0
	maxGit   = 100.0
	maxBadge = 20.0

	atsWeight   = 0.5
	gitWeight   = 0.3
	badgeWeight = 0.2
	// badgeScale lifts the 0-20 badge contribution onto the 0-100 scale.
	badgeScale = 5.0

	// MaxScore is the upper bound of Breakdown.TotalScore.
	MaxScore = 100
)

// Input holds the raw component values. Out-of-range values are clamped.
type Input struct {
	ATS        float64
	Git        float64
	BadgeScore float64
}

// Breakdown reports the clamped components and the weighted total.
type Breakdown struct {
	ATSComponent   float64 `json:"ats_component"`
	GitComponent   float64 `json:"git_component"`
	BadgeComponent float64 `json:"badge_component"`
	TotalScore     int     `json:"total_score"`
}

// Calculate returns the composite breakdown for in.
func Calculate(in Input) Breakdown {
	ats := clamp(in.ATS, 0, maxATS)
	git := clamp(in.Git, 0, maxGit)
	badge := clamp(in.BadgeScore, 0, maxBadge)

	total := math.Round(atsWeight*ats + gitWeight*git + badgeWeight*badge*badgeScale)

	return Breakdown{
		ATSComponent:   ats,
		GitComponent:   git,
		BadgeComponent: badge,
		TotalScore:     int(clamp(total, 0, MaxScore)),
	}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
