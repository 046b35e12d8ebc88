package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/meritrack/internal/domain/model"
)

func eval(userID string) model.Evaluation {
	return model.Evaluation{UserID: userID, Reason: model.ReasonManual, RequestedAt: time.Now()}
}

func receive(t *testing.T, ch <-chan model.Evaluation) (model.Evaluation, bool) {
	t.Helper()
	select {
	case e, ok := <-ch:
		return e, ok
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for evaluation")
		return model.Evaluation{}, false
	}
}

func TestInMemoryQueue(t *testing.T) {
	Convey("Given a queue with capacity 2", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		q := NewInMemoryQueue(WithCapacity(2))

		Convey("It starts empty", func() {
			So(q.Len(), ShouldEqual, 0)
			So(q.IsClosed(), ShouldBeFalse)
		})

		Convey("Enqueued evaluations come out in order", func() {
			So(q.Enqueue(ctx, eval("u1")), ShouldBeTrue)
			So(q.Enqueue(ctx, eval("u2")), ShouldBeTrue)
			So(q.Len(), ShouldEqual, 2)

			ch := q.Dequeue(ctx)
			first, _ := receive(t, ch)
			second, _ := receive(t, ch)
			So(first.UserID, ShouldEqual, "u1")
			So(second.UserID, ShouldEqual, "u2")
		})

		Convey("Requests for a queued user coalesce", func() {
			So(q.Enqueue(ctx, eval("u1")), ShouldBeTrue)
			So(q.Enqueue(ctx, eval("u1")), ShouldBeTrue)
			So(q.Len(), ShouldEqual, 1)

			Convey("and the user can queue again once dequeued", func() {
				ch := q.Dequeue(ctx)
				_, _ = receive(t, ch)
				So(q.Enqueue(ctx, eval("u1")), ShouldBeTrue)
				e, _ := receive(t, ch)
				So(e.UserID, ShouldEqual, "u1")
			})
		})

		Convey("A full queue rejects new users", func() {
			So(q.Enqueue(ctx, eval("u1")), ShouldBeTrue)
			So(q.Enqueue(ctx, eval("u2")), ShouldBeTrue)
			So(q.Enqueue(ctx, eval("u3")), ShouldBeFalse)

			Convey("without leaving the rejected user marked pending", func() {
				_, _ = receive(t, q.Dequeue(ctx))
				So(q.Enqueue(ctx, eval("u3")), ShouldBeTrue)
			})
		})

		Convey("Closing", func() {
			So(q.Enqueue(ctx, eval("u1")), ShouldBeTrue)
			So(q.Close(), ShouldBeNil)
			So(q.IsClosed(), ShouldBeTrue)
			So(q.Enqueue(ctx, eval("u2")), ShouldBeFalse)
			So(q.Close(), ShouldBeNil)

			Convey("drains what was queued then closes the channel", func() {
				ch := q.Dequeue(ctx)
				e, ok := receive(t, ch)
				So(ok, ShouldBeTrue)
				So(e.UserID, ShouldEqual, "u1")
				_, ok = receive(t, ch)
				So(ok, ShouldBeFalse)
			})
		})
	})
}

func TestInMemoryQueueConcurrent(t *testing.T) {
	Convey("Given many producers for distinct users", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		q := NewInMemoryQueue(WithCapacity(1000))

		var wg sync.WaitGroup
		for p := 0; p < 10; p++ {
			wg.Add(1)
			go func(p int) {
				defer wg.Done()
				for i := 0; i < 50; i++ {
					q.Enqueue(ctx, eval(fmt.Sprintf("u-%d-%d", p, i)))
				}
			}(p)
		}
		wg.Wait()

		Convey("Every evaluation is queued once", func() {
			So(q.Len(), ShouldEqual, 500)
			So(q.Close(), ShouldBeNil)

			seen := map[string]bool{}
			for e := range q.Dequeue(ctx) {
				seen[e.UserID] = true
			}
			So(len(seen), ShouldEqual, 500)
		})
	})
}
