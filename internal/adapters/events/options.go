package events

import "github.com/okian/meritrack/pkg/logger"

// Option configures a RedisPublisher.
type Option func(*RedisPublisher)

// WithChannel overrides the channel name.
func WithChannel(channel string) Option {
	return func(p *RedisPublisher) {
		if channel != "" {
			p.channel = channel
		}
	}
}

// WithLogger sets the publisher logger.
func WithLogger(l logger.Logger) Option {
	return func(p *RedisPublisher) {
		if l != nil {
			p.logger = l
		}
	}
}
