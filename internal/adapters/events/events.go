// Package events publishes badge notifications to downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/okian/meritrack/internal/domain/model"
	"github.com/okian/meritrack/pkg/logger"
	"github.com/okian/meritrack/pkg/metrics"
)

// DefaultChannel is the Redis channel badge events go to.
const DefaultChannel = "EVENT_BADGE_AWARDED"

// Publisher announces awarded badges. Publishing is best effort: failures
// are logged and counted, never returned to the award path.
type Publisher interface {
	BadgeAwarded(ctx context.Context, e model.BadgeAwarded)
}

// NewRedisClient creates a Redis client and verifies the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

// PublishClient is the slice of a Redis client the publisher uses.
// *redis.Client and redis.UniversalClient satisfy it.
type PublishClient interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// RedisPublisher sends events with PUBLISH.
type RedisPublisher struct {
	client  PublishClient
	channel string
	logger  logger.Logger
}

var _ Publisher = (*RedisPublisher)(nil)

// NewRedisPublisher creates a publisher on the given client.
func NewRedisPublisher(client PublishClient, opts ...Option) *RedisPublisher {
	p := &RedisPublisher{
		client:  client,
		channel: DefaultChannel,
		logger:  logger.Named("events"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *RedisPublisher) BadgeAwarded(ctx context.Context, e model.BadgeAwarded) {
	payload, err := json.Marshal(e)
	if err != nil {
		metrics.RecordEventPublished("encode_error")
		p.logger.Error(ctx, "encode badge event", logger.Error(err))
		return
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		metrics.RecordEventPublished("error")
		p.logger.Warn(ctx, "redis publish failed (non-fatal)",
			logger.String("channel", p.channel),
			logger.String("userID", e.UserID),
			logger.Error(err),
		)
		return
	}
	metrics.RecordEventPublished("ok")
}

// Nop discards events.
type Nop struct{}

var _ Publisher = Nop{}

func (Nop) BadgeAwarded(context.Context, model.BadgeAwarded) {}
