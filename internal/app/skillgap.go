package service

import (
	"context"
	"fmt"

	"github.com/okian/meritrack/internal/domain/model"
	"github.com/okian/meritrack/internal/domain/skillgap"
	"github.com/okian/meritrack/pkg/metrics"
)

// AnalyzeSkillGap analyzes the user's skills against targetRole, replaces
// the stored profile and triggers a badge evaluation.
func (s *Service) AnalyzeSkillGap(ctx context.Context, userID, targetRole string, skills []skillgap.UserSkill) (skillgap.Profile, error) {
	if userID == "" {
		return skillgap.Profile{}, fmt.Errorf("%w: missing user id", ErrInvalidInput)
	}
	p, err := s.analyzer.Analyze(targetRole, skills)
	if err != nil {
		return skillgap.Profile{}, fmt.Errorf("analyze: %w", err)
	}
	p.UserID = userID

	if err := s.store.ReplaceSkillGap(ctx, p); err != nil {
		return skillgap.Profile{}, fmt.Errorf("store skill gap: %w", err)
	}
	metrics.RecordSkillGapAnalysis(p.TargetRole, p.OverallGapScore)

	s.triggerEvaluation(ctx, userID, model.ReasonSkillGap)
	return p, nil
}

// GetSkillGap returns the stored analysis.
func (s *Service) GetSkillGap(ctx context.Context, userID string) (skillgap.Profile, error) {
	p, err := s.store.GetSkillGap(ctx, userID)
	if err != nil {
		return skillgap.Profile{}, fmt.Errorf("skill gap: %w", err)
	}
	return p, nil
}

// Roles lists the configured target roles.
func (s *Service) Roles() []string {
	return s.analyzer.Roles()
}

// RequiredSkills returns the canonical role name and its skills.
func (s *Service) RequiredSkills(role string) (string, []string, error) {
	return s.analyzer.RequiredSkills(role) //nolint:wrapcheck // sentinel passes through
}
