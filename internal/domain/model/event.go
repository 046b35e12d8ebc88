// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/okian/meritrack/internal/domain/badge"
)

// Evaluation reasons.
const (
	ReasonGitHubSync = "github_sync"
	ReasonSkillGap   = "skill_gap"
	ReasonSweep      = "scheduled_sweep"
	ReasonManual     = "manual"
)

// Evaluation asks the pipeline to re-run the badge rules for one user.
// Requests for the same user coalesce while one is queued.
type Evaluation struct {
	UserID      string    // subject of the evaluation
	Reason      string    // what triggered it, e.g. "github_sync"
	RequestedAt time.Time // enqueue time, used for latency metrics
}

// BadgeAwarded is published after a badge record is created.
type BadgeAwarded struct {
	BadgeID  string     `json:"badge_id"`
	UserID   string     `json:"user_id"`
	Type     badge.Type `json:"badge_type"`
	Name     string     `json:"name"`
	EarnedAt time.Time  `json:"earned_at"`
}
