package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/meritrack/internal/domain/badge"
	"github.com/okian/meritrack/internal/domain/model"
	"github.com/okian/meritrack/internal/domain/skillgap"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id                TEXT PRIMARY KEY,
		role              TEXT NOT NULL DEFAULT 'student',
		department        TEXT NOT NULL DEFAULT '',
		graduation_year   INTEGER NOT NULL DEFAULT 0,
		dpdp_consented    BOOLEAN NOT NULL DEFAULT FALSE,
		dpdp_consented_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS resumes (
		seq         BIGSERIAL PRIMARY KEY,
		id          TEXT NOT NULL UNIQUE,
		user_id     TEXT NOT NULL,
		status      TEXT NOT NULL DEFAULT 'pending',
		ats_score   DOUBLE PRECISION,
		uploaded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
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
		earned_at  TIMESTAMPTZ NOT NULL,
		progress   INTEGER NOT NULL DEFAULT 0,
		metadata   JSONB,
		UNIQUE (user_id, badge_type)
	)`,
	`CREATE TABLE IF NOT EXISTS github_data (
		user_id        TEXT PRIMARY KEY,
		username       TEXT NOT NULL,
		profile        JSONB NOT NULL,
		stats          JSONB NOT NULL,
		github_score   INTEGER NOT NULL,
		last_synced_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS skill_gaps (
		user_id           TEXT PRIMARY KEY,
		target_role       TEXT NOT NULL,
		user_skills       JSONB NOT NULL,
		skill_gaps        JSONB NOT NULL,
		overall_gap_score INTEGER NOT NULL,
		skills_to_learn   JSONB NOT NULL,
		skills_to_improve JSONB NOT NULL,
		last_analyzed_at  TIMESTAMPTZ NOT NULL
	)`,
}

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresPool creates and verifies a pgxpool connection pool.
func NewPostgresPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return pool, nil
}

// NewPostgresStore wraps pool and ensures the schema exists.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	for _, stmt := range postgresSchema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return nil, fmt.Errorf("postgres schema: %w", err)
		}
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// PutUser implements Fixtures.
func (s *PostgresStore) PutUser(ctx context.Context, u model.User) error {
	var consentedAt *time.Time
	if !u.DPDPConsent.ConsentedAt.IsZero() {
		consentedAt = &u.DPDPConsent.ConsentedAt
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, role, department, graduation_year, dpdp_consented, dpdp_consented_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE SET
		   role = EXCLUDED.role,
		   department = EXCLUDED.department,
		   graduation_year = EXCLUDED.graduation_year,
		   dpdp_consented = EXCLUDED.dpdp_consented,
		   dpdp_consented_at = EXCLUDED.dpdp_consented_at`,
		u.ID, u.Role, u.Department, u.GraduationYear, u.DPDPConsent.Consented, consentedAt,
	)
	if err != nil {
		return fmt.Errorf("putUser: %w", err)
	}
	return nil
}

// GetUser implements UserReader.
func (s *PostgresStore) GetUser(ctx context.Context, userID string) (model.User, error) {
	var (
		u           model.User
		consentedAt *time.Time
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, role, department, graduation_year, dpdp_consented, dpdp_consented_at
		 FROM users WHERE id = $1`,
		userID,
	).Scan(&u.ID, &u.Role, &u.Department, &u.GraduationYear, &u.DPDPConsent.Consented, &consentedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, fmt.Errorf("user %q: %w", userID, ErrNotFound)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("getUser: %w", err)
	}
	if consentedAt != nil {
		u.DPDPConsent.ConsentedAt = consentedAt.UTC()
	}
	return u, nil
}

// AddResume implements Fixtures.
func (s *PostgresStore) AddResume(ctx context.Context, r model.Resume) error {
	var score *float64
	if r.Status == model.ResumeScored {
		score = &r.ATSScore
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO resumes (id, user_id, status, ats_score, uploaded_at) VALUES ($1, $2, $3, $4, $5)`,
		r.ID, r.UserID, string(r.Status), score, r.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("addResume: %w", err)
	}
	return nil
}

// LatestScoredResume implements ResumeReader.
func (s *PostgresStore) LatestScoredResume(ctx context.Context, userID string) (model.Resume, error) {
	var (
		r      model.Resume
		status string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, status, ats_score, uploaded_at
		 FROM resumes
		 WHERE user_id = $1 AND status = 'scored' AND ats_score IS NOT NULL
		 ORDER BY uploaded_at DESC, seq DESC
		 LIMIT 1`,
		userID,
	).Scan(&r.ID, &r.UserID, &status, &r.ATSScore, &r.UploadedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Resume{}, fmt.Errorf("scored resume for %q: %w", userID, ErrNotFound)
	}
	if err != nil {
		return model.Resume{}, fmt.Errorf("latestScoredResume: %w", err)
	}
	r.Status = model.ResumeStatus(status)
	r.UploadedAt = r.UploadedAt.UTC()
	return r, nil
}

// AddConnection implements Fixtures.
func (s *PostgresStore) AddConnection(ctx context.Context, requester, recipient, status string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO connections (requester_id, recipient_id, status) VALUES ($1, $2, $3)
		 ON CONFLICT (requester_id, recipient_id) DO UPDATE SET status = EXCLUDED.status`,
		requester, recipient, status,
	)
	if err != nil {
		return fmt.Errorf("addConnection: %w", err)
	}
	return nil
}

// AcceptedConnections implements ConnectionReader.
func (s *PostgresStore) AcceptedConnections(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM connections
		 WHERE status = 'accepted' AND (requester_id = $1 OR recipient_id = $1)`,
		userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("acceptedConnections: %w", err)
	}
	return n, nil
}

// FindBadge implements BadgeStore.
func (s *PostgresStore) FindBadge(ctx context.Context, userID string, t badge.Type) (badge.Badge, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, user_id, badge_type, earned_at, progress, metadata
		 FROM badges WHERE user_id = $1 AND badge_type = $2`,
		userID, string(t),
	)
	b, err := scanBadge(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return badge.Badge{}, fmt.Errorf("badge %s for %q: %w", t, userID, ErrNotFound)
	}
	if err != nil {
		return badge.Badge{}, fmt.Errorf("findBadge: %w", err)
	}
	return b, nil
}

// CreateBadge implements BadgeStore. The unique (user_id, badge_type)
// constraint decides concurrent inserts; the loser affects no rows.
func (s *PostgresStore) CreateBadge(ctx context.Context, b badge.Badge) error {
	meta, err := encodeJSON(b.Metadata)
	if err != nil {
		return fmt.Errorf("createBadge: %w", err)
	}
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO badges (id, user_id, badge_type, earned_at, progress, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id, badge_type) DO NOTHING`,
		b.ID, b.UserID, string(b.Type), b.EarnedAt, b.Progress, meta,
	)
	if err != nil {
		return fmt.Errorf("createBadge: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("badge %s for %q: %w", b.Type, b.UserID, ErrDuplicate)
	}
	return nil
}

// ListBadges implements BadgeStore.
func (s *PostgresStore) ListBadges(ctx context.Context, userID string) ([]badge.Badge, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, badge_type, earned_at, progress, metadata
		 FROM badges WHERE user_id = $1
		 ORDER BY earned_at DESC, badge_type ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listBadges: %w", err)
	}
	defer rows.Close()

	out := make([]badge.Badge, 0)
	for rows.Next() {
		b, err := scanBadge(rows)
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
func (s *PostgresStore) CountBadges(ctx context.Context, userID string) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM badges WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("countBadges: %w", err)
	}
	return n, nil
}

// GetGitHubData implements GitHubStore.
func (s *PostgresStore) GetGitHubData(ctx context.Context, userID string) (model.GitHubData, error) {
	var (
		d              model.GitHubData
		profile, stats []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, username, profile, stats, github_score, last_synced_at
		 FROM github_data WHERE user_id = $1`,
		userID,
	).Scan(&d.UserID, &d.Username, &profile, &stats, &d.Score, &d.SyncedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.GitHubData{}, fmt.Errorf("github data for %q: %w", userID, ErrNotFound)
	}
	if err != nil {
		return model.GitHubData{}, fmt.Errorf("getGitHubData: %w", err)
	}
	if err := decodeGitHub(&d, profile, stats); err != nil {
		return model.GitHubData{}, fmt.Errorf("getGitHubData: %w", err)
	}
	d.SyncedAt = d.SyncedAt.UTC()
	return d, nil
}

// SaveGitHubData implements GitHubStore.
func (s *PostgresStore) SaveGitHubData(ctx context.Context, d model.GitHubData) error {
	profile, stats, err := encodeGitHub(d)
	if err != nil {
		return fmt.Errorf("saveGitHubData: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO github_data (user_id, username, profile, stats, github_score, last_synced_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id) DO UPDATE SET
		   username = EXCLUDED.username,
		   profile = EXCLUDED.profile,
		   stats = EXCLUDED.stats,
		   github_score = EXCLUDED.github_score,
		   last_synced_at = EXCLUDED.last_synced_at`,
		d.UserID, d.Username, profile, stats, d.Score, d.SyncedAt,
	)
	if err != nil {
		return fmt.Errorf("saveGitHubData: %w", err)
	}
	return nil
}

// ListGitHubUsers implements GitHubStore.
func (s *PostgresStore) ListGitHubUsers(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT user_id FROM github_data ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("listGitHubUsers: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("listGitHubUsers: %w", err)
	}
	return ids, nil
}

// GetSkillGap implements SkillGapStore.
func (s *PostgresStore) GetSkillGap(ctx context.Context, userID string) (skillgap.Profile, error) {
	var (
		p                            skillgap.Profile
		skills, gaps, learn, improve []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, target_role, user_skills, skill_gaps, overall_gap_score,
		        skills_to_learn, skills_to_improve, last_analyzed_at
		 FROM skill_gaps WHERE user_id = $1`,
		userID,
	).Scan(&p.UserID, &p.TargetRole, &skills, &gaps, &p.OverallGapScore, &learn, &improve, &p.LastAnalyzedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return skillgap.Profile{}, fmt.Errorf("skill gap for %q: %w", userID, ErrNotFound)
	}
	if err != nil {
		return skillgap.Profile{}, fmt.Errorf("getSkillGap: %w", err)
	}
	if err := decodeProfile(&p, skills, gaps, learn, improve); err != nil {
		return skillgap.Profile{}, fmt.Errorf("getSkillGap: %w", err)
	}
	p.LastAnalyzedAt = p.LastAnalyzedAt.UTC()
	return p, nil
}

// ReplaceSkillGap implements SkillGapStore.
func (s *PostgresStore) ReplaceSkillGap(ctx context.Context, p skillgap.Profile) error {
	enc, err := encodeProfile(p)
	if err != nil {
		return fmt.Errorf("replaceSkillGap: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO skill_gaps (user_id, target_role, user_skills, skill_gaps, overall_gap_score,
		                         skills_to_learn, skills_to_improve, last_analyzed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (user_id) DO UPDATE SET
		   target_role = EXCLUDED.target_role,
		   user_skills = EXCLUDED.user_skills,
		   skill_gaps = EXCLUDED.skill_gaps,
		   overall_gap_score = EXCLUDED.overall_gap_score,
		   skills_to_learn = EXCLUDED.skills_to_learn,
		   skills_to_improve = EXCLUDED.skills_to_improve,
		   last_analyzed_at = EXCLUDED.last_analyzed_at`,
		p.UserID, p.TargetRole, enc.skills, enc.gaps, p.OverallGapScore, enc.learn, enc.improve, p.LastAnalyzedAt,
	)
	if err != nil {
		return fmt.Errorf("replaceSkillGap: %w", err)
	}
	return nil
}

func scanBadge(row pgx.Row) (badge.Badge, error) {
	var (
		b    badge.Badge
		typ  string
		meta []byte
	)
	if err := row.Scan(&b.ID, &b.UserID, &typ, &b.EarnedAt, &b.Progress, &meta); err != nil {
		return badge.Badge{}, err
	}
	b.Type = badge.Type(typ)
	b.EarnedAt = b.EarnedAt.UTC()
	if err := decodeJSON(meta, &b.Metadata); err != nil {
		return badge.Badge{}, err
	}
	return b, nil
}
