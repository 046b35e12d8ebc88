package model

import (
	"strings"
	"time"

	"github.com/okian/meritrack/internal/domain/gitstats"
)

// ResumeStatus is the processing state of an uploaded resume.
type ResumeStatus string

// Resume statuses. Only scored resumes carry an ATS score.
const (
	ResumePending ResumeStatus = "pending"
	ResumeScored  ResumeStatus = "scored"
	ResumeFailed  ResumeStatus = "failed"
)

// Resume is the slice of a resume record the engine reads.
type Resume struct {
	ID         string       `json:"id"`
	UserID     string       `json:"user_id"`
	Status     ResumeStatus `json:"status"`
	ATSScore   float64      `json:"ats_score"`
	UploadedAt time.Time    `json:"uploaded_at"`
}

// GitHubData is the persisted result of a successful sync. It is replaced
// wholesale on every sync.
type GitHubData struct {
	UserID   string           `json:"user_id"`
	Username string           `json:"username"`
	Profile  gitstats.Profile `json:"profile"`
	Stats    gitstats.Stats   `json:"stats"`
	Score    int              `json:"github_score"`
	SyncedAt time.Time        `json:"last_synced_at"`
}

// Consent records the user's data-processing consent.
type Consent struct {
	Consented   bool      `json:"consented"`
	ConsentedAt time.Time `json:"consented_at,omitempty"`
}

// User roles.
const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// User is the account view the access guards need.
type User struct {
	ID             string  `json:"id"`
	Role           string  `json:"role"`
	Department     string  `json:"department"`
	GraduationYear int     `json:"graduation_year"`
	DPDPConsent    Consent `json:"dpdp_consent"`
}

// Onboarded reports whether the profile has the fields required to use
// the engine.
func (u User) Onboarded() bool {
	return strings.TrimSpace(u.Department) != "" && u.GraduationYear != 0
}
