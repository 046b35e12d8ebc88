package service

import (
	"time"

	"github.com/okian/meritrack/internal/adapters/events"
	"github.com/okian/meritrack/internal/adapters/github"
	"github.com/okian/meritrack/internal/domain/skillgap"
	"github.com/okian/meritrack/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of evaluation workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the evaluation queue capacity.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithGitHub sets the GitHub data source used by SyncGitHubData.
func WithGitHub(src github.Source) Option {
	return func(s *Service) {
		if src != nil {
			s.github = src
		}
	}
}

// WithAnalyzer sets the skill-gap analyzer.
func WithAnalyzer(a *skillgap.Analyzer) Option {
	return func(s *Service) {
		if a != nil {
			s.analyzer = a
		}
	}
}

// WithPublisher sets where badge events go.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides how badge ids are minted.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
