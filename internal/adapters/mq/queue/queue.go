// Package queue is the bounded in-memory queue feeding badge evaluations
// to the worker pool.
package queue

import (
	"context"
	"sync"

	"github.com/okian/meritrack/internal/domain/dedupe"
	"github.com/okian/meritrack/internal/domain/model"
	"github.com/okian/meritrack/pkg/metrics"
)

const defaultCapacity = 1024

// Queue provides non-blocking enqueue and channel-based dequeue.
type Queue interface {
	// Enqueue schedules an evaluation. It returns false when the queue is
	// full or closed. A request for a user that is already queued is
	// coalesced into the pending one and reported as accepted.
	Enqueue(ctx context.Context, e model.Evaluation) bool

	// Dequeue returns a channel of evaluations, closed when the queue is.
	Dequeue(ctx context.Context) <-chan model.Evaluation

	// Len returns the number of queued evaluations.
	Len() int

	// Close stops accepting work and closes the dequeue channel.
	Close() error

	IsClosed() bool
}

// InMemoryQueue implements Queue on a buffered channel.
type InMemoryQueue struct {
	events   chan model.Evaluation
	capacity int
	pending  dedupe.Deduper

	mu     sync.RWMutex
	closed bool
}

var _ Queue = (*InMemoryQueue)(nil)

// NewInMemoryQueue creates a queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(q)
	}
	if q.pending == nil {
		q.pending = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
	}
	q.events = make(chan model.Evaluation, q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

func (q *InMemoryQueue) Enqueue(ctx context.Context, e model.Evaluation) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueRejected()
		return false
	}
	if q.pending.SeenAndRecord(ctx, e.UserID) {
		metrics.RecordQueueCoalesced()
		return true
	}

	select {
	case q.events <- e:
		metrics.UpdateQueueSize(len(q.events))
		return true
	case <-ctx.Done():
	default:
	}
	q.pending.Unrecord(ctx, e.UserID)
	metrics.RecordQueueRejected()
	return false
}

// Dequeue releases each user's pending mark as the evaluation is handed
// out, so changes arriving mid-evaluation queue a fresh run. After Close
// the buffered evaluations are still delivered before the channel closes.
// An evaluation held when ctx ends is counted as dropped.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan model.Evaluation {
	out := make(chan model.Evaluation)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-q.events:
				if !ok {
					return
				}
				q.pending.Unrecord(ctx, e.UserID)
				metrics.UpdateQueueSize(len(q.events))
				select {
				case out <- e:
				case <-ctx.Done():
					metrics.RecordQueueDropped(1)
					return
				}
			}
		}
	}()
	return out
}

func (q *InMemoryQueue) Len() int {
	return len(q.events)
}

func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.events)
	q.closed = true
	return nil
}

func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
