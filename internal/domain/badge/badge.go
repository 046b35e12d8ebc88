// Package badge defines the fixed achievement registry and evaluates which
// badges a user's current signals qualify for.
//
// The package is pure: persistence and idempotent awarding live in the
// service layer, which relies on the store's (user, type) uniqueness.
package badge

import (
	"errors"
	"fmt"
	"time"

	"github.com/okian/meritrack/internal/domain/gitstats"
)

// Type identifies a badge. The set is closed; see Types.
type Type string

// Badge types, in registry order.
const (
	ResumeMaster          Type = "resume_master"
	OpenSourceContributor Type = "open_source_contributor"
	PullRequestPro        Type = "pull_request_pro"
	PolyglotProgrammer    Type = "polyglot_programmer"
	StarCollector         Type = "star_collector"
	NetworkingNinja       Type = "networking_ninja"
	SkillSeeker           Type = "skill_seeker"
)

// Score contribution constants.
const (
	PointsPerBadge = 2
	MaxScore       = 20
	// EarnedProgress is stored on every awarded badge.
	EarnedProgress = 100
)

// ErrUnknownType is returned by ParseType for names outside the registry.
var ErrUnknownType = errors.New("unknown badge type")

// Requirement describes the signal and threshold a rule checks.
type Requirement struct {
	Type      string  `json:"type"`
	Threshold float64 `json:"threshold"`
}

// Definition is the presentation record for a badge type.
type Definition struct {
	Type        Type        `json:"type"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Icon        string      `json:"icon"`
	Requirement Requirement `json:"requirement"`
}

// Badge is a persisted, append-only achievement record.
type Badge struct {
	ID       string         `json:"id"`
	UserID   string         `json:"user_id"`
	Type     Type           `json:"badge_type"`
	EarnedAt time.Time      `json:"earned_at"`
	Progress int            `json:"progress"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// View joins a stored badge with its definition for presentation.
type View struct {
	Type        Type      `json:"type"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	EarnedAt    time.Time `json:"earned_at"`
	Progress    int       `json:"progress"`
}

// SkillGapSignal reports that an analysis has completed at least once.
type SkillGapSignal struct {
	TargetRole string
	AnalyzedAt time.Time
}

// Signals is the snapshot of user state the rules read. A nil pointer means
// the signal is absent and every rule depending on it is skipped.
type Signals struct {
	ATSScore            *float64
	GitHub              *gitstats.Stats
	AcceptedConnections *int
	SkillGap            *SkillGapSignal
}

// Award is a rule that fired, with the evidence to persist as metadata.
type Award struct {
	Type     Type
	Metadata map[string]any
}

// Types returns every badge type in registry order.
func Types() []Type {
	return []Type{
		ResumeMaster,
		OpenSourceContributor,
		PullRequestPro,
		PolyglotProgrammer,
		StarCollector,
		NetworkingNinja,
		SkillSeeker,
	}
}

// ParseType validates s against the registry.
func ParseType(s string) (Type, error) {
	t := Type(s)
	for _, known := range Types() {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
}

// Definitions returns a copy of the registry in order.
func Definitions() []Definition {
	types := Types()
	defs := make([]Definition, 0, len(types))
	for _, t := range types {
		defs = append(defs, ruleFor(t).definition())
	}
	return defs
}

// Lookup returns the definition for t.
func Lookup(t Type) (Definition, bool) {
	for _, d := range Definitions() {
		if d.Type == t {
			return d, true
		}
	}
	return Definition{}, false
}

// Evaluate returns the awards whose signal is present and meets its
// threshold, in registry order. It does not know which badges are held.
func Evaluate(s Signals) []Award {
	var awards []Award
	for _, t := range Types() {
		if meta, ok := ruleFor(t).check(s); ok {
			awards = append(awards, Award{Type: t, Metadata: meta})
		}
	}
	return awards
}

// CalculateScore folds a badge count into its 0-20 score contribution.
func CalculateScore(count int) int {
	if count <= 0 {
		return 0
	}
	return min(MaxScore, count*PointsPerBadge)
}

// NewView joins b with its definition.
func NewView(b Badge) View {
	def, _ := Lookup(b.Type)
	return View{
		Type:        b.Type,
		Name:        def.Name,
		Description: def.Description,
		Icon:        def.Icon,
		EarnedAt:    b.EarnedAt,
		Progress:    b.Progress,
	}
}
