// Package repository defines the engine's storage contracts and their
// memory, Postgres and SQLite implementations.
package repository

import (
	"context"

	"github.com/okian/meritrack/internal/domain/badge"
	"github.com/okian/meritrack/internal/domain/model"
	"github.com/okian/meritrack/internal/domain/skillgap"
)

// ResumeReader reads resumes owned by the resume service.
type ResumeReader interface {
	// LatestScoredResume returns the most recently uploaded resume with
	// status scored. Returns ErrNotFound when there is none.
	LatestScoredResume(ctx context.Context, userID string) (model.Resume, error)
}

// ConnectionReader reads the networking graph.
type ConnectionReader interface {
	// AcceptedConnections counts accepted connections the user is part of.
	AcceptedConnections(ctx context.Context, userID string) (int, error)
}

// UserReader reads the account fields the access guards check.
type UserReader interface {
	GetUser(ctx context.Context, userID string) (model.User, error)
}

// BadgeStore persists awarded badges. Records are append-only.
type BadgeStore interface {
	// FindBadge returns ErrNotFound if the user does not hold t.
	FindBadge(ctx context.Context, userID string, t badge.Type) (badge.Badge, error)
	// CreateBadge inserts b unless the user already holds b.Type, in which
	// case it returns ErrDuplicate and leaves the existing record intact.
	CreateBadge(ctx context.Context, b badge.Badge) error
	// ListBadges returns the user's badges, newest first.
	ListBadges(ctx context.Context, userID string) ([]badge.Badge, error)
	CountBadges(ctx context.Context, userID string) (int, error)
}

// GitHubStore persists the latest sync per user.
type GitHubStore interface {
	GetGitHubData(ctx context.Context, userID string) (model.GitHubData, error)
	// SaveGitHubData replaces any previous data for d.UserID.
	SaveGitHubData(ctx context.Context, d model.GitHubData) error
	// ListGitHubUsers returns the ids of every user with stored data.
	ListGitHubUsers(ctx context.Context) ([]string, error)
}

// SkillGapStore persists the latest analysis per user.
type SkillGapStore interface {
	GetSkillGap(ctx context.Context, userID string) (skillgap.Profile, error)
	// ReplaceSkillGap overwrites the stored profile for p.UserID.
	ReplaceSkillGap(ctx context.Context, p skillgap.Profile) error
}

// Store is the union the service is wired with.
type Store interface {
	ResumeReader
	ConnectionReader
	UserReader
	BadgeStore
	GitHubStore
	SkillGapStore
	Close() error
}

// Fixtures writes the records other services own. Every store implements
// it for local development and tests.
type Fixtures interface {
	PutUser(ctx context.Context, u model.User) error
	AddResume(ctx context.Context, r model.Resume) error
	AddConnection(ctx context.Context, requester, recipient, status string) error
}
