// Package metrics provides Prometheus metrics for the meritrack service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Sync outcome label values.
const (
	SyncOK     = "ok"
	SyncFailed = "failed"
)

// Manager owns the Prometheus collectors for the scoring engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// GitHub sync
	githubSyncs        *prometheus.CounterVec
	githubFetchErrors  *prometheus.CounterVec
	githubSyncDuration prometheus.Histogram
	githubScore        prometheus.Histogram
	githubRequests     *prometheus.CounterVec

	// Badges
	badgesAwarded    *prometheus.CounterVec
	badgeDuplicates  *prometheus.CounterVec
	badgeAwardErrors *prometheus.CounterVec
	badgeEvaluations prometheus.Counter

	// Skill gap
	skillGapAnalyses *prometheus.CounterVec
	skillGapOverall  prometheus.Histogram

	// Evaluation pipeline
	queueSize       prometheus.Gauge
	queueRejected   prometheus.Counter
	queueCoalesced  prometheus.Counter
	queueDropped    prometheus.Counter
	workerCount     prometheus.Gauge
	evalLatency     prometheus.Histogram
	scheduledSweeps prometheus.Counter

	// Events
	eventsPublished *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

var (
	globalManager  *Manager                   //nolint:gochecknoglobals // singleton metrics manager
	customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry served on /metrics
)

func init() { //nolint:gochecknoinits // global metrics setup
	customRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "meritrack",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // flat list of collectors
	auto := promauto.With(m.registry)

	m.githubSyncs = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "github_syncs_total",
		Help:      "GitHub sync attempts by outcome",
	}, []string{"outcome"})

	m.githubFetchErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "github_fetch_errors_total",
		Help:      "GitHub sub-fetch failures by kind (profile, repositories, commits, pull_requests)",
	}, []string{"kind"})

	m.githubSyncDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "github_sync_duration_milliseconds",
		Help:      "End-to-end GitHub sync latency in milliseconds",
		Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000},
	})

	m.githubScore = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "github_score",
		Help:      "Distribution of computed GitHub sub-scores",
		Buckets:   prometheus.LinearBuckets(0, 10, 11),
	})

	m.githubRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "github_requests_total",
		Help:      "GitHub API requests by kind and response status",
	}, []string{"kind", "status"})

	m.badgesAwarded = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "badges_awarded_total",
		Help:      "Badges newly awarded by type",
	}, []string{"badge"})

	m.badgeDuplicates = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "badge_duplicates_total",
		Help:      "Award attempts for badges already held",
	}, []string{"badge"})

	m.badgeAwardErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "badge_award_errors_total",
		Help:      "Badge award attempts that failed with a storage error",
	}, []string{"badge"})

	m.badgeEvaluations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "badge_evaluations_total",
		Help:      "Completed badge rule evaluations",
	})

	m.skillGapAnalyses = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "skill_gap_analyses_total",
		Help:      "Skill gap analyses by target role",
	}, []string{"role"})

	m.skillGapOverall = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "skill_gap_overall_score",
		Help:      "Distribution of overall skill gap scores",
		Buckets:   prometheus.LinearBuckets(0, 10, 11),
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "evaluation_queue_size",
		Help:      "Pending badge evaluation jobs",
	})

	m.queueRejected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "evaluation_queue_rejected_total",
		Help:      "Evaluation jobs rejected because the queue was full or closed",
	})

	m.queueCoalesced = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "evaluation_queue_coalesced_total",
		Help:      "Evaluation requests merged into an already pending job",
	})

	m.queueDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "evaluation_queue_dropped_total",
		Help:      "Queued evaluation jobs abandoned at shutdown",
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_count",
		Help:      "Number of badge evaluation workers",
	})

	m.evalLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "evaluation_latency_milliseconds",
		Help:      "Badge evaluation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.scheduledSweeps = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scheduled_sweeps_total",
		Help:      "Scheduled badge re-evaluation sweeps",
	})

	m.eventsPublished = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_published_total",
		Help:      "Domain events published by outcome",
	}, []string{"outcome"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status code",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
}

// RecordGitHubSync counts a sync attempt with the given outcome.
func RecordGitHubSync(outcome string) {
	globalManager.githubSyncs.WithLabelValues(outcome).Inc()
}

// RecordGitHubFetchError counts a failed GitHub sub-fetch.
func RecordGitHubFetchError(kind string) {
	globalManager.githubFetchErrors.WithLabelValues(kind).Inc()
}

// RecordGitHubSyncDuration records sync latency in milliseconds.
func RecordGitHubSyncDuration(ms float64) {
	globalManager.githubSyncDuration.Observe(ms)
}

// RecordGitHubScore records a computed GitHub sub-score.
func RecordGitHubScore(score int) {
	globalManager.githubScore.Observe(float64(score))
}

// RecordGitHubRequest counts a GitHub API call by kind and status.
func RecordGitHubRequest(kind, status string) {
	globalManager.githubRequests.WithLabelValues(kind, status).Inc()
}

// RecordBadgeAwarded counts a newly awarded badge.
func RecordBadgeAwarded(badge string) {
	globalManager.badgesAwarded.WithLabelValues(badge).Inc()
}

// RecordBadgeDuplicate counts an award attempt that was a no-op.
func RecordBadgeDuplicate(badge string) {
	globalManager.badgeDuplicates.WithLabelValues(badge).Inc()
}

// RecordBadgeAwardError counts a failed award attempt.
func RecordBadgeAwardError(badge string) {
	globalManager.badgeAwardErrors.WithLabelValues(badge).Inc()
}

// RecordBadgeEvaluation counts a completed rule evaluation.
func RecordBadgeEvaluation() {
	globalManager.badgeEvaluations.Inc()
}

// RecordSkillGapAnalysis counts an analysis and observes its overall gap.
func RecordSkillGapAnalysis(role string, overall int) {
	globalManager.skillGapAnalyses.WithLabelValues(role).Inc()
	globalManager.skillGapOverall.Observe(float64(overall))
}

// UpdateQueueSize sets the number of pending evaluation jobs.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// RecordQueueRejected counts a rejected evaluation job.
func RecordQueueRejected() {
	globalManager.queueRejected.Inc()
}

// RecordQueueCoalesced counts a request merged into a pending job.
func RecordQueueCoalesced() {
	globalManager.queueCoalesced.Inc()
}

// RecordQueueDropped counts n evaluation jobs abandoned at shutdown.
func RecordQueueDropped(n int) {
	globalManager.queueDropped.Add(float64(n))
}

// UpdateWorkerCount sets the number of evaluation workers.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordEvaluationLatency records evaluation latency in milliseconds.
func RecordEvaluationLatency(ms float64) {
	globalManager.evalLatency.Observe(ms)
}

// RecordScheduledSweep counts a cron-triggered sweep.
func RecordScheduledSweep() {
	globalManager.scheduledSweeps.Inc()
}

// RecordEventPublished counts a publish attempt with the given outcome.
func RecordEventPublished(outcome string) {
	globalManager.eventsPublished.WithLabelValues(outcome).Inc()
}

// RecordHTTPRequest records an HTTP request and its duration.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// GetRegistry returns the registry served on /metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
