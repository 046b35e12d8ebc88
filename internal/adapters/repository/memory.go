package repository

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"

	"github.com/okian/meritrack/internal/domain/badge"
	"github.com/okian/meritrack/internal/domain/model"
	"github.com/okian/meritrack/internal/domain/skillgap"
)

// Connection statuses.
const (
	ConnectionPending  = "pending"
	ConnectionAccepted = "accepted"
	ConnectionRejected = "rejected"
)

type connection struct {
	requester string
	recipient string
	status    string
}

type badgeKey struct {
	userID string
	typ    badge.Type
}

// MemoryStore implements Store in process memory. A single mutex guards
// every table, which makes CreateBadge's check-and-insert atomic.
type MemoryStore struct {
	mu sync.RWMutex

	users       map[string]model.User
	resumes     []model.Resume
	connections []connection
	badges      map[badgeKey]badge.Badge
	github      map[string]model.GitHubData
	skillGaps   map[string]skillgap.Profile
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		users:     make(map[string]model.User),
		badges:    make(map[badgeKey]badge.Badge),
		github:    make(map[string]model.GitHubData),
		skillGaps: make(map[string]skillgap.Profile),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PutUser inserts or replaces an account.
func (s *MemoryStore) PutUser(_ context.Context, u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	return nil
}

// AddResume appends a resume record.
func (s *MemoryStore) AddResume(_ context.Context, r model.Resume) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resumes = append(s.resumes, r)
	return nil
}

// AddConnection records a connection request, updating the status if the
// pair already exists.
func (s *MemoryStore) AddConnection(_ context.Context, requester, recipient, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.connections {
		if c.requester == requester && c.recipient == recipient {
			s.connections[i].status = status
			return nil
		}
	}
	s.connections = append(s.connections, connection{requester: requester, recipient: recipient, status: status})
	return nil
}

// GetUser implements UserReader.
func (s *MemoryStore) GetUser(_ context.Context, userID string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return model.User{}, fmt.Errorf("user %q: %w", userID, ErrNotFound)
	}
	return u, nil
}

// LatestScoredResume implements ResumeReader. Later inserts win ties.
func (s *MemoryStore) LatestScoredResume(_ context.Context, userID string) (model.Resume, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		best  model.Resume
		found bool
	)
	for _, r := range s.resumes {
		if r.UserID != userID || r.Status != model.ResumeScored {
			continue
		}
		if !found || !r.UploadedAt.Before(best.UploadedAt) {
			best = r
			found = true
		}
	}
	if !found {
		return model.Resume{}, fmt.Errorf("scored resume for %q: %w", userID, ErrNotFound)
	}
	return best, nil
}

// AcceptedConnections implements ConnectionReader.
func (s *MemoryStore) AcceptedConnections(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	for _, c := range s.connections {
		if c.status == ConnectionAccepted && (c.requester == userID || c.recipient == userID) {
			n++
		}
	}
	return n, nil
}

// FindBadge implements BadgeStore.
func (s *MemoryStore) FindBadge(_ context.Context, userID string, t badge.Type) (badge.Badge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.badges[badgeKey{userID: userID, typ: t}]
	if !ok {
		return badge.Badge{}, fmt.Errorf("badge %s for %q: %w", t, userID, ErrNotFound)
	}
	return cloneBadge(b), nil
}

// CreateBadge implements BadgeStore.
func (s *MemoryStore) CreateBadge(_ context.Context, b badge.Badge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := badgeKey{userID: b.UserID, typ: b.Type}
	if _, ok := s.badges[key]; ok {
		return fmt.Errorf("badge %s for %q: %w", b.Type, b.UserID, ErrDuplicate)
	}
	s.badges[key] = cloneBadge(b)
	return nil
}

// ListBadges implements BadgeStore.
func (s *MemoryStore) ListBadges(_ context.Context, userID string) ([]badge.Badge, error) {
	s.mu.RLock()
	out := make([]badge.Badge, 0)
	for key, b := range s.badges {
		if key.userID == userID {
			out = append(out, cloneBadge(b))
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].EarnedAt.Equal(out[j].EarnedAt) {
			return out[i].Type < out[j].Type
		}
		return out[i].EarnedAt.After(out[j].EarnedAt)
	})
	return out, nil
}

// CountBadges implements BadgeStore.
func (s *MemoryStore) CountBadges(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int
	for key := range s.badges {
		if key.userID == userID {
			n++
		}
	}
	return n, nil
}

// GetGitHubData implements GitHubStore.
func (s *MemoryStore) GetGitHubData(_ context.Context, userID string) (model.GitHubData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.github[userID]
	if !ok {
		return model.GitHubData{}, fmt.Errorf("github data for %q: %w", userID, ErrNotFound)
	}
	return cloneGitHub(d), nil
}

// SaveGitHubData implements GitHubStore.
func (s *MemoryStore) SaveGitHubData(_ context.Context, d model.GitHubData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.github[d.UserID] = cloneGitHub(d)
	return nil
}

// ListGitHubUsers implements GitHubStore.
func (s *MemoryStore) ListGitHubUsers(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.github))
	for id := range s.github {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// GetSkillGap implements SkillGapStore.
func (s *MemoryStore) GetSkillGap(_ context.Context, userID string) (skillgap.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.skillGaps[userID]
	if !ok {
		return skillgap.Profile{}, fmt.Errorf("skill gap for %q: %w", userID, ErrNotFound)
	}
	return cloneProfile(p), nil
}

// ReplaceSkillGap implements SkillGapStore.
func (s *MemoryStore) ReplaceSkillGap(_ context.Context, p skillgap.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skillGaps[p.UserID] = cloneProfile(p)
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }

func cloneBadge(b badge.Badge) badge.Badge {
	b.Metadata = maps.Clone(b.Metadata)
	return b
}

func cloneGitHub(d model.GitHubData) model.GitHubData {
	d.Stats.Languages = slices.Clone(d.Stats.Languages)
	d.Stats.TopRepositories = slices.Clone(d.Stats.TopRepositories)
	return d
}

func cloneProfile(p skillgap.Profile) skillgap.Profile {
	p.UserSkills = slices.Clone(p.UserSkills)
	p.Gaps = slices.Clone(p.Gaps)
	p.SkillsToLearn = slices.Clone(p.SkillsToLearn)
	p.SkillsToImprove = slices.Clone(p.SkillsToImprove)
	return p
}
