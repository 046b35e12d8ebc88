package service

import (
	"context"
	"fmt"

	"github.com/okian/meritrack/internal/domain/scoring"
)

// GetScore assembles the composite score from the latest scored resume,
// the stored GitHub score and the earned badges. Missing inputs count as 0.
func (s *Service) GetScore(ctx context.Context, userID string) (scoring.Breakdown, error) {
	var in scoring.Input

	resume, err := s.store.LatestScoredResume(ctx, userID)
	switch {
	case err == nil:
		in.ATS = resume.ATSScore
	case !notFound(err):
		return scoring.Breakdown{}, fmt.Errorf("latest scored resume: %w", err)
	}

	gh, err := s.store.GetGitHubData(ctx, userID)
	switch {
	case err == nil:
		in.Git = float64(gh.Score)
	case !notFound(err):
		return scoring.Breakdown{}, fmt.Errorf("github data: %w", err)
	}

	badgeScore, err := s.BadgeScore(ctx, userID)
	if err != nil {
		return scoring.Breakdown{}, err
	}
	in.BadgeScore = float64(badgeScore)

	return scoring.Calculate(in), nil
}
