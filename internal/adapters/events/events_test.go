package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/meritrack/internal/domain/badge"
	"github.com/okian/meritrack/internal/domain/model"
	"github.com/okian/meritrack/pkg/logger"
)

var (
	_ PublishClient = (*recordingClient)(nil)
	_ PublishClient = (*redis.Client)(nil)
	_ PublishClient = redis.UniversalClient(nil)
)

type recordingClient struct {
	channel string
	message []byte
	err     error
}

func (c *recordingClient) Publish(_ context.Context, channel string, message any) *redis.IntCmd {
	c.channel = channel
	c.message, _ = message.([]byte)
	return redis.NewIntResult(1, c.err)
}

func TestMain(m *testing.M) {
	_ = logger.InitWith(io.Discard, "text")
	os.Exit(m.Run())
}

func sampleEvent() model.BadgeAwarded {
	return model.BadgeAwarded{
		BadgeID:  "b-1",
		UserID:   "u-1",
		Type:     badge.StarCollector,
		Name:     "Star Collector",
		EarnedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestRedisPublisher(t *testing.T) {
	Convey("Given a redis publisher", t, func() {
		client := &recordingClient{}
		p := NewRedisPublisher(client, WithLogger(logger.Nop()))

		Convey("It publishes the event as JSON on the default channel", func() {
			p.BadgeAwarded(context.Background(), sampleEvent())

			So(client.channel, ShouldEqual, DefaultChannel)
			var got map[string]any
			So(json.Unmarshal(client.message, &got), ShouldBeNil)
			So(got["badge_type"], ShouldEqual, "star_collector")
			So(got["user_id"], ShouldEqual, "u-1")
			So(got["earned_at"], ShouldEqual, "2026-03-01T12:00:00Z")
		})

		Convey("A custom channel is honoured", func() {
			p := NewRedisPublisher(client, WithChannel("badges"), WithLogger(logger.Nop()))
			p.BadgeAwarded(context.Background(), sampleEvent())
			So(client.channel, ShouldEqual, "badges")
		})

		Convey("A publish failure does not panic or propagate", func() {
			client.err = errors.New("connection refused")
			So(func() { p.BadgeAwarded(context.Background(), sampleEvent()) }, ShouldNotPanic)
		})
	})

	Convey("The nop publisher accepts events", t, func() {
		So(func() { Nop{}.BadgeAwarded(context.Background(), sampleEvent()) }, ShouldNotPanic)
	})
}

func TestRedisRoundTrip(t *testing.T) {
	url := os.Getenv("MERITRACK_TEST_REDIS_URL")
	if url == "" {
		t.Skip("MERITRACK_TEST_REDIS_URL not set")
	}

	Convey("Given a live redis", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		rdb, err := NewRedisClient(ctx, url)
		So(err, ShouldBeNil)
		defer rdb.Close()

		sub := rdb.Subscribe(ctx, "test-badges")
		defer sub.Close()
		_, err = sub.Receive(ctx)
		So(err, ShouldBeNil)

		NewRedisPublisher(rdb, WithChannel("test-badges")).BadgeAwarded(ctx, sampleEvent())

		msg, err := sub.ReceiveMessage(ctx)
		So(err, ShouldBeNil)
		So(msg.Payload, ShouldContainSubstring, `"badge_id":"b-1"`)
	})
}

func TestNewRedisClientBadURL(t *testing.T) {
	Convey("An unparsable URL is rejected", t, func() {
		_, err := NewRedisClient(context.Background(), "not-a-url://")
		So(err, ShouldNotBeNil)
	})
}
