package scheduler

import (
	"time"

	"github.com/okian/meritrack/pkg/logger"
)

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithSpec sets the cron expression, e.g. "@every 1h" or "0 3 * * *".
func WithSpec(spec string) Option {
	return func(s *Scheduler) {
		if spec != "" {
			s.spec = spec
		}
	}
}

// WithRunOnStart controls the immediate sweep at Start.
func WithRunOnStart(run bool) Option {
	return func(s *Scheduler) {
		s.runOnStart = run
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the scheduler logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}
