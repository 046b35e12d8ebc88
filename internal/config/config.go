// Package config defines service configuration and how it is loaded.
package config

import (
	"context"
	"runtime"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StoreDriver selects the persistence backend: memory, postgres or sqlite.
	StoreDriver string `koanf:"store_driver"`

	// DatabaseURL is the Postgres DSN when StoreDriver is postgres.
	DatabaseURL string `koanf:"database_url"`

	// SQLitePath is the database file when StoreDriver is sqlite.
	SQLitePath string `koanf:"sqlite_path"`

	// RedisURL enables badge event publishing when set.
	RedisURL string `koanf:"redis_url"`

	// EventsChannel is the Redis channel badge events are published on.
	EventsChannel string `koanf:"events_channel"`

	GitHubAPIURL     string  `koanf:"github_api_url"`
	GitHubTimeoutMS  int     `koanf:"github_timeout_ms"`
	GitHubRatePerSec float64 `koanf:"github_rate_per_sec"`
	GitHubBurst      int     `koanf:"github_burst"`

	// WorkerCount sets the number of badge evaluation workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the evaluation queue.
	QueueSize int `koanf:"queue_size"`

	// ResyncSchedule is the cron spec for the periodic re-evaluation sweep.
	// Empty disables the sweep.
	ResyncSchedule string `koanf:"resync_schedule"`

	// Roles overrides the built-in role to required-skills table.
	Roles map[string][]string `koanf:"roles"`
}

// New returns a Config populated with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		StoreDriver:      DriverMemory,
		SQLitePath:       "data/meritrack.db",
		EventsChannel:    "EVENT_BADGE_AWARDED",
		GitHubAPIURL:     "https://api.github.com",
		GitHubTimeoutMS:  10_000,
		GitHubRatePerSec: 5,
		GitHubBurst:      10,
		WorkerCount:      runtime.NumCPU(),
		QueueSize:        1024,
		ResyncSchedule:   "@every 6h",
	}
}
