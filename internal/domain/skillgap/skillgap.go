// Package skillgap compares a user's skills with the skills a target role
// requires and classifies what to learn and what to improve.
package skillgap

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// Scoring constants.
const (
	// TargetImportance is the proficiency every required skill is measured against.
	TargetImportance = 100
	// learnThreshold separates learn (above) from improve (at or below).
	learnThreshold = 50
)

// ErrUnknownRole is returned when the role has no required skills configured.
var ErrUnknownRole = errors.New("no required skills defined for this role")

// ErrInvalidSource is returned by ParseSource for unknown skill sources.
var ErrInvalidSource = errors.New("invalid skill source")

// Source records where a self-reported skill came from.
type Source string

// Skill sources.
const (
	SourceResume Source = "resume"
	SourceGitHub Source = "github"
	SourceManual Source = "manual"
)

// ParseSource validates s. An empty string means manual entry.
func ParseSource(s string) (Source, error) {
	switch Source(s) {
	case SourceResume, SourceGitHub, SourceManual:
		return Source(s), nil
	case "":
		return SourceManual, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSource, s)
	}
}

// UserSkill is one self-reported skill.
type UserSkill struct {
	Skill       string `json:"skill"`
	Proficiency int    `json:"proficiency"`
	Source      Source `json:"source"`
}

// Gap is the per-skill result for one required skill.
type Gap struct {
	Skill            string `json:"skill"`
	UserProficiency  int    `json:"user_proficiency"`
	TargetImportance int    `json:"target_importance"`
	GapScore         int    `json:"gap_score"`
}

// Profile is the full analysis for one user. It is replaced on each run.
type Profile struct {
	UserID          string      `json:"user_id"`
	TargetRole      string      `json:"target_role"`
	UserSkills      []UserSkill `json:"user_skills"`
	Gaps            []Gap       `json:"skill_gaps"`
	OverallGapScore int         `json:"overall_gap_score"`
	SkillsToLearn   []string    `json:"skills_to_learn"`
	SkillsToImprove []string    `json:"skills_to_improve"`
	LastAnalyzedAt  time.Time   `json:"last_analyzed_at"`
}

// Analyzer holds the role table. It is safe for concurrent use once built.
type Analyzer struct {
	roles map[string][]string
	now   func() time.Time
}

// NewAnalyzer builds an analyzer with the default role table.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{
		roles: DefaultRoles(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Roles returns the configured role names, sorted.
func (a *Analyzer) Roles() []string {
	out := make([]string, 0, len(a.roles))
	for role := range a.roles {
		out = append(out, role)
	}
	sort.Strings(out)
	return out
}

// RequiredSkills returns the skills configured for role and its canonical name.
func (a *Analyzer) RequiredSkills(role string) (string, []string, error) {
	if skills, ok := a.roles[role]; ok {
		return role, append([]string(nil), skills...), nil
	}
	for name, skills := range a.roles {
		if strings.EqualFold(name, role) {
			return name, append([]string(nil), skills...), nil
		}
	}
	return "", nil, fmt.Errorf("%w: %q", ErrUnknownRole, role)
}

// Analyze scores skills against role. The returned profile has no UserID;
// callers attach it before storing.
func (a *Analyzer) Analyze(role string, skills []UserSkill) (Profile, error) {
	canonical, required, err := a.RequiredSkills(role)
	if err != nil {
		return Profile{}, err
	}

	gaps := make([]Gap, 0, len(required))
	learn := []string{}
	improve := []string{}
	var sum int

	for _, req := range required {
		prof := proficiencyFor(req, skills)
		gap := max(0, TargetImportance-prof)
		gaps = append(gaps, Gap{
			Skill:            req,
			UserProficiency:  prof,
			TargetImportance: TargetImportance,
			GapScore:         gap,
		})
		sum += gap

		switch {
		case gap > learnThreshold:
			learn = append(learn, req)
		case gap > 0:
			improve = append(improve, req)
		}
	}

	overall := 0
	if len(gaps) > 0 {
		overall = int(math.Round(float64(sum) / float64(len(gaps))))
	}

	return Profile{
		TargetRole:      canonical,
		UserSkills:      normalizeSkills(skills),
		Gaps:            gaps,
		OverallGapScore: overall,
		SkillsToLearn:   learn,
		SkillsToImprove: improve,
		LastAnalyzedAt:  a.now().UTC(),
	}, nil
}

// proficiencyFor returns the first case-insensitive match, clamped to
// [0,100], or 0 when the user does not list the skill.
func proficiencyFor(skill string, skills []UserSkill) int {
	for _, s := range skills {
		if strings.EqualFold(strings.TrimSpace(s.Skill), skill) {
			return min(TargetImportance, max(0, s.Proficiency))
		}
	}
	return 0
}

func normalizeSkills(skills []UserSkill) []UserSkill {
	out := make([]UserSkill, 0, len(skills))
	for _, s := range skills {
		if s.Source == "" {
			s.Source = SourceManual
		}
		out = append(out, s)
	}
	return out
}
