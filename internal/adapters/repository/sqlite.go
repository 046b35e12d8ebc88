package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/okian/meritrack/internal/domain/badge"
	"github.com/okian/meritrack/internal/domain/model"
	"github.com/okian/meritrack/internal/domain/skillgap"
)

// Timestamps are stored as unix nanoseconds so ORDER BY is chronological.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id                TEXT PRIMARY KEY,
		role              TEXT NOT NULL DEFAULT 'student',
		department        TEXT NOT NULL DEFAULT '',
		graduation_year   INTEGER NOT NULL DEFAULT 0,
		dpdp_consented    INTEGER NOT NULL DEFAULT 0,
		dpdp_consented_at INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS resumes (
		seq         INTEGER PRIMARY KEY AUTOINCREMENT,
		id          TEXT NOT NULL UNIQUE,
		user_id     TEXT NOT NULL,
		status      TEXT NOT NULL DEFAULT 'pending',
		ats_score   REAL,
		uploaded_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS resumes_user_uploaded_idx ON resumes (user_id, uploaded_at DESC)`,
	`CREATE TABLE IF NOT EXISTS connections (
		requester_id TEXT NOT NULL,
		recipient_id TEXT NOT NULL,
		status       TEXT NOT NULL DEFAULT 'pending',
		PRIMARY KEY (requester_id, recipient_id)
	)`,
	`CREATE TABLE IF NOT EXISTS badges (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		badge_type TEXT NOT NULL,
		earned_at  INTEGER NOT NULL,
		progress   INTEGER NOT NULL DEFAULT 0,
		metadata   TEXT,
		UNIQUE (user_id, badge_type)
	)`,
	`CREATE TABLE IF NOT EXISTS github_data (
		user_id        TEXT PRIMARY KEY,
		username       TEXT NOT NULL,
		profile        TEXT NOT NULL,
		stats          TEXT NOT NULL,
		github_score   INTEGER NOT NULL,
		last_synced_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS skill_gaps (
		user_id           TEXT PRIMARY KEY,
		target_role       TEXT NOT NULL,
		user_skills       TEXT NOT NULL,
		skill_gaps        TEXT NOT NULL,
		overall_gap_score INTEGER NOT NULL,
		skills_to_learn   TEXT NOT NULL,
		skills_to_improve TEXT NOT NULL,
		last_analyzed_at  INTEGER NOT NULL
	)`,
}

// SQLiteStore implements Store on an embedded SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("sqlite: mkdir %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open db: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer

	for _, stmt := range sqliteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite: init schema: %w", err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// PutUser implements Fixtures.
func (s *SQLiteStore) PutUser(ctx context.Context, u model.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, role, department, graduation_year, dpdp_consented, dpdp_consented_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   role = excluded.role,
		   department = excluded.department,
		   graduation_year = excluded.graduation_year,
		   dpdp_consented = excluded.dpdp_consented,
		   dpdp_consented_at = excluded.dpdp_consented_at`,
		u.ID, u.Role, u.Department, u.GraduationYear, u.DPDPConsent.Consented, toNanos(u.DPDPConsent.ConsentedAt),
	)
	if err != nil {
		return fmt.Errorf("putUser: %w", err)
	}
	return nil
}

// GetUser implements UserReader.
func (s *SQLiteStore) GetUser(ctx context.Context, userID string) (model.User, error) {
	var (
		u           model.User
		consentedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, role, department, graduation_year, dpdp_consented, dpdp_consented_at
		 FROM users WHERE id = ?`,
		userID,
	).Scan(&u.ID, &u.Role, &u.Department, &u.GraduationYear, &u.DPDPConsent.Consented, &consentedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, fmt.Errorf("user %q: %w", userID, ErrNotFound)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("getUser: %w", err)
	}
	u.DPDPConsent.ConsentedAt = fromNanos(consentedAt)
	return u, nil
}

// AddResume implements Fixtures.
func (s *SQLiteStore) AddResume(ctx context.Context, r model.Resume) error {
	var score sql.NullFloat64
	if r.Status == model.ResumeScored {
		score = sql.NullFloat64{Float64: r.ATSScore, Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO resumes (id, user_id, status, ats_score, uploaded_at) VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.UserID, string(r.Status), score, toNanos(r.UploadedAt),
	)
	if err != nil {
		return fmt.Errorf("addResume: %w", err)
	}
	return nil
}

// LatestScoredResume implements ResumeReader.
func (s *SQLiteStore) LatestScoredResume(ctx context.Context, userID string) (model.Resume, error) {
	var (
		r        model.Resume
		status   string
		uploaded int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, status, ats_score, uploaded_at
		 FROM resumes
		 WHERE user_id = ? AND status = 'scored' AND ats_score IS NOT NULL
		 ORDER BY uploaded_at DESC, seq DESC
		 LIMIT 1`,
		userID,
	).Scan(&r.ID, &r.UserID, &status, &r.ATSScore, &uploaded)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Resume{}, fmt.Errorf("scored resume for %q: %w", userID, ErrNotFound)
	}
	if err != nil {
		return model.Resume{}, fmt.Errorf("latestScoredResume: %w", err)
	}
	r.Status = model.ResumeStatus(status)
	r.UploadedAt = fromNanos(uploaded)
	return r, nil
}

// AddConnection implements Fixtures.
func (s *SQLiteStore) AddConnection(ctx context.Context, requester, recipient, status string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO connections (requester_id, recipient_id, status) VALUES (?, ?, ?)
		 ON CONFLICT (requester_id, recipient_id) DO UPDATE SET status = excluded.status`,
		requester, recipient, status,
	)
	if err != nil {
		return fmt.Errorf("addConnection: %w", err)
	}
	return nil
}

// AcceptedConnections implements ConnectionReader.
func (s *SQLiteStore) AcceptedConnections(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM connections
		 WHERE status = 'accepted' AND (requester_id = ?1 OR recipient_id = ?1)`,
		userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("acceptedConnections: %w", err)
	}
	return n, nil
}

// FindBadge implements BadgeStore.
func (s *SQLiteStore) FindBadge(ctx context.Context, userID string, t badge.Type) (badge.Badge, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, badge_type, earned_at, progress, metadata
		 FROM badges WHERE user_id = ? AND badge_type = ?`,
		userID, string(t),
	)
	b, err := scanSQLiteBadge(row)
	if errors.Is(err, sql.ErrNoRows) {
		return badge.Badge{}, fmt.Errorf("badge %s for %q: %w", t, userID, ErrNotFound)
	}
	if err != nil {
		return badge.Badge{}, fmt.Errorf("findBadge: %w", err)
	}
	return b, nil
}

// CreateBadge implements BadgeStore via INSERT OR IGNORE on the
// (user_id, badge_type) unique constraint.
func (s *SQLiteStore) CreateBadge(ctx context.Context, b badge.Badge) error {
	meta, err := encodeJSON(b.Metadata)
	if err != nil {
		return fmt.Errorf("createBadge: %w", err)
	}
	var metaCol sql.NullString
	if meta != nil {
		metaCol = sql.NullString{String: string(meta), Valid: true}
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO badges (id, user_id, badge_type, earned_at, progress, metadata)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.UserID, string(b.Type), toNanos(b.EarnedAt), b.Progress, metaCol,
	)
	if err != nil {
		return fmt.Errorf("createBadge: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("createBadge: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("badge %s for %q: %w", b.Type, b.UserID, ErrDuplicate)
	}
	return nil
}

// ListBadges implements BadgeStore.
func (s *SQLiteStore) ListBadges(ctx context.Context, userID string) ([]badge.Badge, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, badge_type, earned_at, progress, metadata
		 FROM badges WHERE user_id = ?
		 ORDER BY earned_at DESC, badge_type ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listBadges: %w", err)
	}
	defer rows.Close()

	out := make([]badge.Badge, 0)
	for rows.Next() {
		b, err := scanSQLiteBadge(rows)
		if err != nil {
			return nil, fmt.Errorf("listBadges scan: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listBadges: %w", err)
	}
	return out, nil
}

// CountBadges implements BadgeStore.
func (s *SQLiteStore) CountBadges(ctx context.Context, userID string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM badges WHERE user_id = ?`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("countBadges: %w", err)
	}
	return n, nil
}

// GetGitHubData implements GitHubStore.
func (s *SQLiteStore) GetGitHubData(ctx context.Context, userID string) (model.GitHubData, error) {
	var (
		d              model.GitHubData
		profile, stats string
		synced         int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, username, profile, stats, github_score, last_synced_at
		 FROM github_data WHERE user_id = ?`,
		userID,
	).Scan(&d.UserID, &d.Username, &profile, &stats, &d.Score, &synced)
	if errors.Is(err, sql.ErrNoRows) {
		return model.GitHubData{}, fmt.Errorf("github data for %q: %w", userID, ErrNotFound)
	}
	if err != nil {
		return model.GitHubData{}, fmt.Errorf("getGitHubData: %w", err)
	}
	if err := decodeGitHub(&d, []byte(profile), []byte(stats)); err != nil {
		return model.GitHubData{}, fmt.Errorf("getGitHubData: %w", err)
	}
	d.SyncedAt = fromNanos(synced)
	return d, nil
}

// SaveGitHubData implements GitHubStore.
func (s *SQLiteStore) SaveGitHubData(ctx context.Context, d model.GitHubData) error {
	profile, stats, err := encodeGitHub(d)
	if err != nil {
		return fmt.Errorf("saveGitHubData: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO github_data (user_id, username, profile, stats, github_score, last_synced_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
		   username = excluded.username,
		   profile = excluded.profile,
		   stats = excluded.stats,
		   github_score = excluded.github_score,
		   last_synced_at = excluded.last_synced_at`,
		d.UserID, d.Username, string(profile), string(stats), d.Score, toNanos(d.SyncedAt),
	)
	if err != nil {
		return fmt.Errorf("saveGitHubData: %w", err)
	}
	return nil
}

// ListGitHubUsers implements GitHubStore.
func (s *SQLiteStore) ListGitHubUsers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id FROM github_data ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("listGitHubUsers: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("listGitHubUsers scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listGitHubUsers: %w", err)
	}
	return ids, nil
}

// GetSkillGap implements SkillGapStore.
func (s *SQLiteStore) GetSkillGap(ctx context.Context, userID string) (skillgap.Profile, error) {
	var (
		p                            skillgap.Profile
		skills, gaps, learn, improve string
		analyzed                     int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, target_role, user_skills, skill_gaps, overall_gap_score,
		        skills_to_learn, skills_to_improve, last_analyzed_at
		 FROM skill_gaps WHERE user_id = ?`,
		userID,
	).Scan(&p.UserID, &p.TargetRole, &skills, &gaps, &p.OverallGapScore, &learn, &improve, &analyzed)
	if errors.Is(err, sql.ErrNoRows) {
		return skillgap.Profile{}, fmt.Errorf("skill gap for %q: %w", userID, ErrNotFound)
	}
	if err != nil {
		return skillgap.Profile{}, fmt.Errorf("getSkillGap: %w", err)
	}
	if err := decodeProfile(&p, []byte(skills), []byte(gaps), []byte(learn), []byte(improve)); err != nil {
		return skillgap.Profile{}, fmt.Errorf("getSkillGap: %w", err)
	}
	p.LastAnalyzedAt = fromNanos(analyzed)
	return p, nil
}

// ReplaceSkillGap implements SkillGapStore.
func (s *SQLiteStore) ReplaceSkillGap(ctx context.Context, p skillgap.Profile) error {
	enc, err := encodeProfile(p)
	if err != nil {
		return fmt.Errorf("replaceSkillGap: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO skill_gaps (user_id, target_role, user_skills, skill_gaps, overall_gap_score,
		                         skills_to_learn, skills_to_improve, last_analyzed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
		   target_role = excluded.target_role,
		   user_skills = excluded.user_skills,
		   skill_gaps = excluded.skill_gaps,
		   overall_gap_score = excluded.overall_gap_score,
		   skills_to_learn = excluded.skills_to_learn,
		   skills_to_improve = excluded.skills_to_improve,
		   last_analyzed_at = excluded.last_analyzed_at`,
		p.UserID, p.TargetRole, string(enc.skills), string(enc.gaps), p.OverallGapScore,
		string(enc.learn), string(enc.improve), toNanos(p.LastAnalyzedAt),
	)
	if err != nil {
		return fmt.Errorf("replaceSkillGap: %w", err)
	}
	return nil
}

func scanSQLiteBadge(row interface{ Scan(...any) error }) (badge.Badge, error) {
	var (
		b      badge.Badge
		typ    string
		earned int64
		meta   sql.NullString
	)
	if err := row.Scan(&b.ID, &b.UserID, &typ, &earned, &b.Progress, &meta); err != nil {
		return badge.Badge{}, err
	}
	b.Type = badge.Type(typ)
	b.EarnedAt = fromNanos(earned)
	if meta.Valid {
		if err := decodeJSON([]byte(meta.String), &b.Metadata); err != nil {
			return badge.Badge{}, err
		}
	}
	return b, nil
}

func toNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromNanos(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
