package queue

import "github.com/okian/meritrack/internal/domain/dedupe"

// Option applies a configuration option to the InMemoryQueue.
type Option func(*InMemoryQueue)

// WithCapacity sets the maximum number of queued evaluations.
func WithCapacity(capacity int) Option {
	return func(q *InMemoryQueue) {
		if capacity > 0 {
			q.capacity = capacity
		}
	}
}

// WithDeduper replaces the tracker used to coalesce per-user requests.
func WithDeduper(d dedupe.Deduper) Option {
	return func(q *InMemoryQueue) {
		if d != nil {
			q.pending = d
		}
	}
}
