package badge

import "github.com/okian/meritrack/internal/domain/gitstats"

type githubStats = gitstats.Stats

// githubCount reads one counter from synced GitHub stats.
func githubCount(field func(githubStats) int) func(Signals) (int, bool) {
	return func(s Signals) (int, bool) {
		if s.GitHub == nil {
			return 0, false
		}
		return field(*s.GitHub), true
	}
}

// rule is implemented by one variant per requirement shape. Each variant
// owns its comparator, so thresholds are not looked up from a shared table.
type rule interface {
	definition() Definition
	check(s Signals) (map[string]any, bool)
}

// ruleFor is the exhaustive mapping from type to rule.
func ruleFor(t Type) rule {
	switch t {
	case ResumeMaster:
		return atsRule{
			def: Definition{
				Type:        ResumeMaster,
				Name:        "Resume Master",
				Description: "Achieved ATS score > 80",
				Icon:        "📄",
				Requirement: Requirement{Type: "atsScore", Threshold: 80},
			},
		}
	case OpenSourceContributor:
		return countRule{
			def: Definition{
				Type:        OpenSourceContributor,
				Name:        "Open Source Contributor",
				Description: "10+ commits on GitHub",
				Icon:        "🚀",
				Requirement: Requirement{Type: "commits", Threshold: 10},
			},
			key:   "commits",
			count: githubCount(func(g githubStats) int { return g.TotalCommits }),
		}
	case PullRequestPro:
		return countRule{
			def: Definition{
				Type:        PullRequestPro,
				Name:        "Pull Request Pro",
				Description: "5+ merged pull requests",
				Icon:        "🔀",
				Requirement: Requirement{Type: "prs", Threshold: 5},
			},
			key:   "prs",
			count: githubCount(func(g githubStats) int { return g.TotalPullRequests }),
		}
	case PolyglotProgrammer:
		return languagesRule{
			def: Definition{
				Type:        PolyglotProgrammer,
				Name:        "Polyglot Programmer",
				Description: "Proficient in 3+ programming languages",
				Icon:        "🌐",
				Requirement: Requirement{Type: "languages", Threshold: 3},
			},
		}
	case StarCollector:
		return countRule{
			def: Definition{
				Type:        StarCollector,
				Name:        "Star Collector",
				Description: "50+ stars on repositories",
				Icon:        "⭐",
				Requirement: Requirement{Type: "stars", Threshold: 50},
			},
			key:   "stars",
			count: githubCount(func(g githubStats) int { return g.TotalStars }),
		}
	case NetworkingNinja:
		return countRule{
			def: Definition{
				Type:        NetworkingNinja,
				Name:        "Networking Ninja",
				Description: "10+ accepted connections",
				Icon:        "🥷",
				Requirement: Requirement{Type: "connections", Threshold: 10},
			},
			key: "connections",
			count: func(s Signals) (int, bool) {
				if s.AcceptedConnections == nil {
					return 0, false
				}
				return *s.AcceptedConnections, true
			},
		}
	case SkillSeeker:
		return skillGapRule{
			def: Definition{
				Type:        SkillSeeker,
				Name:        "Skill Seeker",
				Description: "Completed skill gap analysis",
				Icon:        "📊",
				Requirement: Requirement{Type: "skillGap", Threshold: 1},
			},
		}
	default:
		panic("badge: no rule for type " + string(t))
	}
}

// atsRule fires when the latest scored resume is strictly above threshold.
type atsRule struct {
	def Definition
}

func (r atsRule) definition() Definition { return r.def }

func (r atsRule) check(s Signals) (map[string]any, bool) {
	if s.ATSScore == nil || *s.ATSScore <= r.def.Requirement.Threshold {
		return nil, false
	}
	return map[string]any{"atsScore": *s.ATSScore}, true
}

// countRule fires when an integer signal reaches threshold (inclusive).
type countRule struct {
	def   Definition
	key   string
	count func(Signals) (int, bool)
}

func (r countRule) definition() Definition { return r.def }

func (r countRule) check(s Signals) (map[string]any, bool) {
	n, ok := r.count(s)
	if !ok || float64(n) < r.def.Requirement.Threshold {
		return nil, false
	}
	return map[string]any{r.key: n}, true
}

// languagesRule fires on distinct language count and records the list.
type languagesRule struct {
	def Definition
}

func (r languagesRule) definition() Definition { return r.def }

func (r languagesRule) check(s Signals) (map[string]any, bool) {
	if s.GitHub == nil || float64(len(s.GitHub.Languages)) < r.def.Requirement.Threshold {
		return nil, false
	}
	langs := make([]string, len(s.GitHub.Languages))
	copy(langs, s.GitHub.Languages)
	return map[string]any{"languages": langs}, true
}

// skillGapRule fires once any analysis has completed.
type skillGapRule struct {
	def Definition
}

func (r skillGapRule) definition() Definition { return r.def }

func (r skillGapRule) check(s Signals) (map[string]any, bool) {
	if s.SkillGap == nil {
		return nil, false
	}
	return map[string]any{"targetRole": s.SkillGap.TargetRole}, true
}
