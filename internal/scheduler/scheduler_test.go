package scheduler

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/meritrack/internal/domain/model"
	"github.com/okian/meritrack/pkg/logger"
)

func TestMain(m *testing.M) {
	_ = logger.InitWith(io.Discard, "text")
	os.Exit(m.Run())
}

type stubUsers struct {
	ids []string
	err error
}

func (s stubUsers) ListGitHubUsers(context.Context) ([]string, error) {
	return s.ids, s.err
}

type recordingQueue struct {
	mu     sync.Mutex
	got    []model.Evaluation
	reject map[string]bool
	seen   chan struct{}
}

func newRecordingQueue() *recordingQueue {
	return &recordingQueue{reject: map[string]bool{}, seen: make(chan struct{}, 16)}
}

func (q *recordingQueue) Enqueue(_ context.Context, e model.Evaluation) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.got = append(q.got, e)
	select {
	case q.seen <- struct{}{}:
	default:
	}
	return !q.reject[e.UserID]
}

func (q *recordingQueue) evaluations() []model.Evaluation {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]model.Evaluation(nil), q.got...)
}

func TestSweep(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	Convey("Given users with synced GitHub data", t, func() {
		q := newRecordingQueue()
		s := New(stubUsers{ids: []string{"u1", "u2", "u3"}}, q, WithClock(func() time.Time { return fixed }))

		Convey("A sweep queues one evaluation per user", func() {
			n, err := s.Sweep(context.Background())
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 3)

			evals := q.evaluations()
			So(evals, ShouldHaveLength, 3)
			So(evals[0], ShouldResemble, model.Evaluation{UserID: "u1", Reason: model.ReasonSweep, RequestedAt: fixed})
		})

		Convey("Rejected enqueues are not counted", func() {
			q.reject["u2"] = true
			n, err := s.Sweep(context.Background())
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 2)
		})

		Convey("A cancelled context stops the sweep", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := s.Sweep(ctx)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})

	Convey("Given a failing user listing", t, func() {
		s := New(stubUsers{err: errors.New("db down")}, newRecordingQueue())

		Convey("The sweep reports the error", func() {
			_, err := s.Sweep(context.Background())
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "db down")
		})
	})

	Convey("Given no users", t, func() {
		q := newRecordingQueue()
		n, err := New(stubUsers{}, q).Sweep(context.Background())
		So(err, ShouldBeNil)
		So(n, ShouldEqual, 0)
		So(q.evaluations(), ShouldBeEmpty)
	})
}

func TestStartStop(t *testing.T) {
	Convey("Given a scheduler", t, func() {
		q := newRecordingQueue()

		Convey("Start runs an immediate sweep", func() {
			s := New(stubUsers{ids: []string{"u1"}}, q, WithSpec("@every 1h"))
			So(s.Start(context.Background()), ShouldBeNil)

			select {
			case <-q.seen:
			case <-time.After(time.Second):
			}
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			s.Stop(ctx)

			So(q.evaluations(), ShouldHaveLength, 1)
		})

		Convey("An invalid spec is rejected", func() {
			s := New(stubUsers{}, q, WithSpec("every sometimes"), WithRunOnStart(false))
			err := s.Start(context.Background())
			So(errors.Is(err, ErrInvalidSpec), ShouldBeTrue)
		})
	})
}
