// Package scheduler periodically re-queues badge evaluations for every
// user with synced GitHub data.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/okian/meritrack/internal/domain/model"
	"github.com/okian/meritrack/pkg/logger"
	"github.com/okian/meritrack/pkg/metrics"
)

// DefaultSpec runs the sweep every six hours.
const DefaultSpec = "@every 6h"

// ErrInvalidSpec is returned when the cron expression does not parse.
var ErrInvalidSpec = errors.New("invalid schedule")

// UserLister lists the users a sweep covers.
type UserLister interface {
	ListGitHubUsers(ctx context.Context) ([]string, error)
}

// Enqueuer accepts evaluation requests.
type Enqueuer interface {
	Enqueue(ctx context.Context, e model.Evaluation) bool
}

// Scheduler wraps robfig/cron and owns the sweep job.
type Scheduler struct {
	cron       *cron.Cron
	spec       string
	users      UserLister
	queue      Enqueuer
	runOnStart bool
	now        func() time.Time
	logger     logger.Logger
}

// New creates a Scheduler. Overlapping sweeps are skipped.
func New(users UserLister, queue Enqueuer, opts ...Option) *Scheduler {
	s := &Scheduler{
		spec:       DefaultSpec,
		users:      users,
		queue:      queue,
		runOnStart: true,
		now:        time.Now,
		logger:     logger.Named("scheduler"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	return s
}

// Start registers the sweep and starts the cron loop. Unless disabled it
// also runs one sweep immediately in the background.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.run(ctx) }); err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidSpec, s.spec, err)
	}
	s.cron.Start()
	s.logger.Info(ctx, "cron started", logger.String("spec", s.spec))

	if s.runOnStart {
		go s.run(ctx)
	}
	return nil
}

// Stop halts the cron loop and waits for a running sweep to finish or ctx
// to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn(ctx, "stop timed out waiting for sweep")
	}
	s.logger.Info(ctx, "cron stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	if _, err := s.Sweep(ctx); err != nil {
		s.logger.Error(ctx, "sweep failed", logger.Error(err))
	}
}

// Sweep enqueues one evaluation per listed user and returns how many were
// accepted.
func (s *Scheduler) Sweep(ctx context.Context) (int, error) {
	metrics.RecordScheduledSweep()

	users, err := s.users.ListGitHubUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}
	if len(users) == 0 {
		s.logger.Debug(ctx, "no users to sweep")
		return 0, nil
	}

	accepted := 0
	for _, id := range users {
		if ctx.Err() != nil {
			return accepted, ctx.Err()
		}
		if s.queue.Enqueue(ctx, model.Evaluation{
			UserID:      id,
			Reason:      model.ReasonSweep,
			RequestedAt: s.now(),
		}) {
			accepted++
		}
	}
	s.logger.Info(ctx, "sweep complete",
		logger.Int("users", len(users)),
		logger.Int("accepted", accepted),
	)
	return accepted, nil
}
