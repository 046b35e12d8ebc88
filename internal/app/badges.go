package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/meritrack/internal/adapters/repository"
	"github.com/okian/meritrack/internal/domain/badge"
	"github.com/okian/meritrack/internal/domain/model"
	"github.com/okian/meritrack/pkg/logger"
	"github.com/okian/meritrack/pkg/metrics"
)

// CheckAndAwardBadges evaluates every rule against the user's current
// signals and returns the badge types awarded by this call. Badges already
// held are skipped; a failure to store one badge does not stop the others.
func (s *Service) CheckAndAwardBadges(ctx context.Context, userID string) ([]badge.Type, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: missing user id", ErrInvalidInput)
	}
	metrics.RecordBadgeEvaluation()

	signals, err := s.signals(ctx, userID)
	if err != nil {
		return nil, err
	}
	held, err := s.store.ListBadges(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	owned := make(map[badge.Type]bool, len(held))
	for _, b := range held {
		owned[b.Type] = true
	}

	var awarded []badge.Type
	for _, a := range badge.Evaluate(signals) {
		if owned[a.Type] {
			continue
		}
		ok, err := s.AwardBadge(ctx, userID, a.Type, a.Metadata)
		if err != nil {
			continue
		}
		if ok {
			awarded = append(awarded, a.Type)
		}
	}
	return awarded, nil
}

// signals loads the rule inputs. A missing record leaves its signal nil.
func (s *Service) signals(ctx context.Context, userID string) (badge.Signals, error) {
	var sig badge.Signals

	resume, err := s.store.LatestScoredResume(ctx, userID)
	switch {
	case err == nil:
		sig.ATSScore = &resume.ATSScore
	case !notFound(err):
		return sig, fmt.Errorf("latest scored resume: %w", err)
	}

	gh, err := s.store.GetGitHubData(ctx, userID)
	switch {
	case err == nil:
		sig.GitHub = &gh.Stats
	case !notFound(err):
		return sig, fmt.Errorf("github data: %w", err)
	}

	conns, err := s.store.AcceptedConnections(ctx, userID)
	if err != nil {
		return sig, fmt.Errorf("accepted connections: %w", err)
	}
	sig.AcceptedConnections = &conns

	gap, err := s.store.GetSkillGap(ctx, userID)
	switch {
	case err == nil:
		sig.SkillGap = &badge.SkillGapSignal{TargetRole: gap.TargetRole, AnalyzedAt: gap.LastAnalyzedAt}
	case !notFound(err):
		return sig, fmt.Errorf("skill gap: %w", err)
	}
	return sig, nil
}

// AwardBadge creates the badge unless the user already holds it. It
// reports whether a new record was created; a duplicate is not an error.
func (s *Service) AwardBadge(ctx context.Context, userID string, t badge.Type, metadata map[string]any) (bool, error) {
	def, ok := badge.Lookup(t)
	if !ok {
		return false, fmt.Errorf("%w: %q", badge.ErrUnknownType, t)
	}

	b := badge.Badge{
		ID:       s.newID(),
		UserID:   userID,
		Type:     t,
		EarnedAt: s.now().UTC(),
		Progress: badge.EarnedProgress,
		Metadata: metadata,
	}
	err := s.store.CreateBadge(ctx, b)
	if errors.Is(err, repository.ErrDuplicate) {
		metrics.RecordBadgeDuplicate(string(t))
		return false, nil
	}
	if err != nil {
		metrics.RecordBadgeAwardError(string(t))
		s.logger.Error(ctx, "failed to award badge",
			logger.String("userID", userID),
			logger.String("badge", string(t)),
			logger.Error(err),
		)
		return false, fmt.Errorf("create badge: %w", err)
	}

	metrics.RecordBadgeAwarded(string(t))
	s.logger.Info(ctx, "badge awarded",
		logger.String("userID", userID),
		logger.String("badge", string(t)),
	)
	s.publisher.BadgeAwarded(ctx, model.BadgeAwarded{
		BadgeID:  b.ID,
		UserID:   userID,
		Type:     t,
		Name:     def.Name,
		EarnedAt: b.EarnedAt,
	})
	return true, nil
}

// GetUserBadges returns the user's badges newest first, joined with their
// definitions.
func (s *Service) GetUserBadges(ctx context.Context, userID string) ([]badge.View, error) {
	held, err := s.store.ListBadges(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	views := make([]badge.View, 0, len(held))
	for _, b := range held {
		views = append(views, badge.NewView(b))
	}
	return views, nil
}

// BadgeScore is the capped badge contribution for the user.
func (s *Service) BadgeScore(ctx context.Context, userID string) (int, error) {
	n, err := s.store.CountBadges(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("count badges: %w", err)
	}
	return badge.CalculateScore(n), nil
}
