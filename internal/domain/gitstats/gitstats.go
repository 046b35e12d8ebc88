// Package gitstats normalizes raw GitHub activity into Stats and a 0-100 sub-score.
package gitstats

import "math"

// Saturation thresholds and weights for the sub-score.
const (
	commitCap    = 40.0
	commitTarget = 100.0
	prCap        = 30.0
	prTarget     = 50.0
	starCap      = 20.0
	starTarget   = 500.0
	langCap      = 10.0
	langTarget   = 5.0

	// TopRepositoryCount bounds Stats.TopRepositories.
	TopRepositoryCount = 5
	// MaxScore is the upper bound of Score.
	MaxScore = 100
)

// Repository is the subset of a GitHub repository the aggregator reads.
type Repository struct {
	Name     string `json:"name"`
	Stars    int    `json:"stars"`
	Language string `json:"language,omitempty"`
	URL      string `json:"url"`
}

// Profile is the projected GitHub user profile kept alongside Stats.
type Profile struct {
	Login       string `json:"login"`
	Name        string `json:"name"`
	Bio         string `json:"bio,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	PublicRepos int    `json:"public_repos"`
	Followers   int    `json:"followers"`
	Following   int    `json:"following"`
}

// Stats is derived from a sync and never mutated independently.
type Stats struct {
	TotalCommits      int          `json:"total_commits"`
	TotalPullRequests int          `json:"total_pull_requests"`
	TotalStars        int          `json:"total_stars"`
	Languages         []string     `json:"languages"`
	TopRepositories   []Repository `json:"top_repositories"`
}

// Breakdown exposes the four capped terms of the sub-score.
type Breakdown struct {
	CommitScore float64 `json:"commit_score"`
	PRScore     float64 `json:"pr_score"`
	StarScore   float64 `json:"star_score"`
	LangScore   float64 `json:"lang_score"`
	Score       int     `json:"score"`
}

// Aggregate builds Stats from the repository list and the raw commit and
// merged-PR counts. repos must already be ordered by stars descending; the
// first TopRepositoryCount entries become TopRepositories as-is.
func Aggregate(repos []Repository, commits, prs int) Stats {
	top := repos
	if len(top) > TopRepositoryCount {
		top = top[:TopRepositoryCount]
	}
	topCopy := make([]Repository, len(top))
	copy(topCopy, top)

	var stars int
	for _, r := range repos {
		if r.Stars > 0 {
			stars += r.Stars
		}
	}

	return Stats{
		TotalCommits:      max(0, commits),
		TotalPullRequests: max(0, prs),
		TotalStars:        stars,
		Languages:         DistinctLanguages(repos),
		TopRepositories:   topCopy,
	}
}

// DistinctLanguages returns unique non-empty languages in first-seen order.
func DistinctLanguages(repos []Repository) []string {
	seen := make(map[string]struct{}, len(repos))
	langs := make([]string, 0, len(repos))
	for _, r := range repos {
		if r.Language == "" {
			continue
		}
		if _, ok := seen[r.Language]; ok {
			continue
		}
		seen[r.Language] = struct{}{}
		langs = append(langs, r.Language)
	}
	return langs
}

// Score returns the weighted 0-100 sub-score for s.
func Score(s Stats) int {
	return Compute(s).Score
}

// Compute returns the capped terms and the rounded sub-score.
func Compute(s Stats) Breakdown {
	b := Breakdown{
		CommitScore: term(s.TotalCommits, commitTarget, commitCap),
		PRScore:     term(s.TotalPullRequests, prTarget, prCap),
		StarScore:   term(s.TotalStars, starTarget, starCap),
		LangScore:   term(len(s.Languages), langTarget, langCap),
	}
	total := math.Round(b.CommitScore + b.PRScore + b.StarScore + b.LangScore)
	b.Score = int(math.Max(0, math.Min(MaxScore, total)))
	return b
}

// term scales n linearly so that target maps to limit, saturating at limit.
func term(n int, target, limit float64) float64 {
	if n <= 0 {
		return 0
	}
	return math.Min(limit, float64(n)/target*limit)
}
