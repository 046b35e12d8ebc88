package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/meritrack/internal/adapters/github"
	"github.com/okian/meritrack/internal/domain/gitstats"
	"github.com/okian/meritrack/internal/domain/model"
	"github.com/okian/meritrack/pkg/logger"
	"github.com/okian/meritrack/pkg/metrics"
)

// SyncGitHubData fetches the user's GitHub activity, stores the aggregated
// stats and score, and triggers a badge evaluation. Profile and repository
// failures abort the sync and nothing is stored; commit and pull request
// counts degrade to zero.
func (s *Service) SyncGitHubData(ctx context.Context, userID string, cred github.Credentials) (model.GitHubData, error) {
	if s.github == nil {
		return model.GitHubData{}, ErrNoGitHub
	}
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(cred.Username) == "" {
		return model.GitHubData{}, fmt.Errorf("%w: user id and github username are required", ErrInvalidInput)
	}

	start := time.Now()
	var (
		profile      gitstats.Profile
		repos        []gitstats.Repository
		commits, prs int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.github.Profile(gctx, cred)
		if err != nil {
			metrics.RecordGitHubFetchError("profile")
			return fmt.Errorf("profile: %w", err)
		}
		profile = p
		return nil
	})
	g.Go(func() error {
		r, err := s.github.Repositories(gctx, cred)
		if err != nil {
			metrics.RecordGitHubFetchError("repos")
			return fmt.Errorf("repositories: %w", err)
		}
		repos = r
		return nil
	})
	g.Go(func() error {
		commits = s.countOrZero(gctx, userID, "commits", cred, s.github.CommitCount)
		return nil
	})
	g.Go(func() error {
		prs = s.countOrZero(gctx, userID, "pull_requests", cred, s.github.MergedPRCount)
		return nil
	})

	if err := g.Wait(); err != nil {
		metrics.RecordGitHubSync("failed")
		s.logger.Error(ctx, "github sync failed",
			logger.String("userID", userID),
			logger.Error(err),
		)
		return model.GitHubData{}, fmt.Errorf("%w: %w", ErrSyncFailed, err)
	}

	stats := gitstats.Aggregate(repos, commits, prs)
	data := model.GitHubData{
		UserID:   userID,
		Username: cred.Username,
		Profile:  profile,
		Stats:    stats,
		Score:    gitstats.Score(stats),
		SyncedAt: s.now().UTC(),
	}
	if err := s.store.SaveGitHubData(ctx, data); err != nil {
		metrics.RecordGitHubSync("failed")
		return model.GitHubData{}, fmt.Errorf("save github data: %w", err)
	}

	metrics.RecordGitHubSync("ok")
	metrics.RecordGitHubScore(data.Score)
	metrics.RecordGitHubSyncDuration(float64(time.Since(start).Milliseconds()))
	s.logger.Info(ctx, "github synced",
		logger.String("userID", userID),
		logger.Int("score", data.Score),
		logger.Int("repos", len(repos)),
	)

	s.triggerEvaluation(ctx, userID, model.ReasonGitHubSync)
	return data, nil
}

func (s *Service) countOrZero(
	ctx context.Context,
	userID, kind string,
	cred github.Credentials,
	fetch func(context.Context, github.Credentials) (int, error),
) int {
	n, err := fetch(ctx, cred)
	if err != nil {
		metrics.RecordGitHubFetchError(kind)
		s.logger.Warn(ctx, "github count unavailable, using 0",
			logger.String("userID", userID),
			logger.String("kind", kind),
			logger.Error(err),
		)
		return 0
	}
	return n
}

// GetGitHubData returns the last stored sync.
func (s *Service) GetGitHubData(ctx context.Context, userID string) (model.GitHubData, error) {
	d, err := s.store.GetGitHubData(ctx, userID)
	if err != nil {
		return model.GitHubData{}, fmt.Errorf("github data: %w", err)
	}
	return d, nil
}
