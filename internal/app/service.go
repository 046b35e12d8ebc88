// Package service wires the scoring and achievement engine together: it
// gathers signals from the stores, runs the domain rules and owns the
// asynchronous evaluation pipeline.
package service

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/meritrack/internal/adapters/events"
	"github.com/okian/meritrack/internal/adapters/github"
	eventqueue "github.com/okian/meritrack/internal/adapters/mq/queue"
	workerpool "github.com/okian/meritrack/internal/adapters/mq/worker"
	"github.com/okian/meritrack/internal/adapters/repository"
	"github.com/okian/meritrack/internal/domain/model"
	"github.com/okian/meritrack/internal/domain/skillgap"
	"github.com/okian/meritrack/pkg/logger"
	"github.com/okian/meritrack/pkg/metrics"
)

const defaultQueueSize = 1024

// Service implements the engine operations exposed over HTTP.
type Service struct {
	mu sync.RWMutex

	store     repository.Store
	github    github.Source
	analyzer  *skillgap.Analyzer
	publisher events.Publisher

	queue       *eventqueue.InMemoryQueue
	pool        *workerpool.Pool
	workerCount int
	queueSize   int
	started     bool

	now    func() time.Time
	newID  func() string
	logger logger.Logger
}

// New constructs a Service over store.
func New(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store:       store,
		analyzer:    skillgap.NewAnalyzer(),
		publisher:   events.Nop{},
		workerCount: runtime.NumCPU(),
		queueSize:   defaultQueueSize,
		now:         time.Now,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("service")
	}
	return s
}

// Start launches the evaluation workers. Until Start is called, and after
// Stop, evaluations run inline on the caller's goroutine. Cancelling ctx
// does not stop the workers; Stop does.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s)
	// workers outlive ctx so Stop can drain what was accepted
	s.pool.Start(context.WithoutCancel(ctx))
	s.started = true

	s.logger.Info(ctx, "service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
	)
	return nil
}

// Stop closes the queue and waits for the workers to finish every
// accepted evaluation. The store is owned by the caller and left open.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	err := s.pool.Shutdown(ctx)
	s.started = false
	s.logger.Info(ctx, "service stopped")
	return err
}

// EnqueueEvaluation schedules a badge evaluation for userID. It returns
// false under backpressure or when the pipeline is not running.
func (s *Service) EnqueueEvaluation(ctx context.Context, userID, reason string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return false
	}
	return s.queue.Enqueue(ctx, model.Evaluation{
		UserID:      userID,
		Reason:      reason,
		RequestedAt: s.now(),
	})
}

// Enqueue lets the scheduler feed evaluations straight into the pipeline.
func (s *Service) Enqueue(ctx context.Context, e model.Evaluation) bool {
	return s.EnqueueEvaluation(ctx, e.UserID, e.Reason)
}

// ListGitHubUsers lists every user with synced GitHub data.
func (s *Service) ListGitHubUsers(ctx context.Context) ([]string, error) {
	return s.store.ListGitHubUsers(ctx) //nolint:wrapcheck // passthrough
}

// triggerEvaluation queues an evaluation, falling back to running it
// inline when the pipeline is stopped or full.
func (s *Service) triggerEvaluation(ctx context.Context, userID, reason string) {
	if s.EnqueueEvaluation(ctx, userID, reason) {
		return
	}
	if _, err := s.CheckAndAwardBadges(ctx, userID); err != nil {
		s.logger.Error(ctx, "badge evaluation failed",
			logger.String("userID", userID),
			logger.String("reason", reason),
			logger.Error(err),
		)
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"roles":       len(s.analyzer.Roles()),
	}
	if s.started {
		n := s.queue.Len()
		stats["queueLength"] = n
		metrics.UpdateQueueSize(n)
	}
	return stats
}

func notFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
