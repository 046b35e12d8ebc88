// Package worker runs queued badge evaluations.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/meritrack/internal/domain/badge"
	"github.com/okian/meritrack/internal/domain/model"
	"github.com/okian/meritrack/pkg/logger"
	"github.com/okian/meritrack/pkg/metrics"
)

const (
	defaultEvaluationTimeout = 30 * time.Second
	poolShutdownTimeout      = 30 * time.Second
)

// Evaluator runs the badge rules for one user.
type Evaluator interface {
	CheckAndAwardBadges(ctx context.Context, userID string) ([]badge.Type, error)
}

// Queue is how workers receive evaluations.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.Evaluation
}

// Worker processes evaluations until stopped.
type Worker interface {
	// Run blocks until ctx is cancelled, Shutdown is called or the queue
	// closes.
	Run(ctx context.Context)

	// Shutdown stops the worker after the evaluation in progress.
	Shutdown(ctx context.Context) error

	// Wait blocks until Run has returned or ctx ends.
	Wait(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue     Queue
	evaluator Evaluator
	name      string
	timeout   time.Duration

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker.
func NewInMemoryWorker(queue Queue, evaluator Evaluator, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     queue,
		evaluator: evaluator,
		name:      "worker",
		timeout:   defaultEvaluationTimeout,
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	// releases the dequeue goroutine when the worker leaves early
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	evals := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case e, ok := <-evals:
			if !ok {
				return
			}
			if err := w.process(ctx, e); err != nil {
				w.logger.Error(ctx, "evaluation failed",
					logger.String("userID", e.UserID),
					logger.String("reason", e.Reason),
					logger.Error(err),
				)
			}
		}
	}
}

func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stop()
	if err := w.Wait(ctx); err != nil {
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", err)
	}
	return nil
}

func (w *InMemoryWorker) Wait(ctx context.Context) error {
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err() //nolint:wrapcheck // caller wraps
	}
}

func (w *InMemoryWorker) stop() {
	w.shutdownOnce.Do(func() { close(w.shutdown) })
}

func (w *InMemoryWorker) process(ctx context.Context, e model.Evaluation) error {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	awarded, err := w.evaluator.CheckAndAwardBadges(ctx, e.UserID)
	if !e.RequestedAt.IsZero() {
		metrics.RecordEvaluationLatency(float64(time.Since(e.RequestedAt).Milliseconds()))
	}
	if err != nil {
		return fmt.Errorf("evaluate %s: %w", e.UserID, err)
	}
	if len(awarded) > 0 {
		w.logger.Info(ctx, "badges awarded",
			logger.String("userID", e.UserID),
			logger.String("reason", e.Reason),
			logger.Int("count", len(awarded)),
		)
	}
	return nil
}

// Pool manages a fixed set of workers on one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates workerCount workers. A count below one defaults to the
// number of CPUs.
func NewPool(workerCount int, queue Queue, evaluator Evaluator, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		workerOpts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		p.workers[i] = NewInMemoryWorker(queue, evaluator, workerOpts...)
	}
	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Start launches every worker.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and lets the workers drain what is still
// buffered. Workers still busy when ctx or the pool timeout ends are
// stopped and the evaluations left behind are logged and counted as
// dropped. A queue that cannot be closed is not drained.
func (p *Pool) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	closer, drainable := p.queue.(interface{ Close() error })
	if drainable {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
			drainable = false
		}
	}
	if !drainable {
		for _, w := range p.workers {
			w.stop()
		}
	}

	var waitErr error
	for _, w := range p.workers {
		if waitErr = w.Wait(ctx); waitErr != nil {
			break
		}
	}
	metrics.UpdateWorkerCount(0)
	if waitErr == nil {
		return nil
	}

	for _, w := range p.workers {
		w.stop()
	}
	dropped := 0
	if l, ok := p.queue.(interface{ Len() int }); ok {
		dropped = l.Len()
	}
	metrics.RecordQueueDropped(dropped)
	p.logger.Warn(ctx, "worker pool shutdown timed out; pending evaluations dropped",
		logger.Int("dropped", dropped),
	)
	return fmt.Errorf("worker pool shutdown: %w", waitErr)
}
