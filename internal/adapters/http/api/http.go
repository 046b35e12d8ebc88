// Package api exposes the engine over HTTP/JSON.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/meritrack/internal/adapters/github"
	"github.com/okian/meritrack/internal/adapters/repository"
	service "github.com/okian/meritrack/internal/app"
	"github.com/okian/meritrack/internal/domain/badge"
	"github.com/okian/meritrack/internal/domain/skillgap"
	"github.com/okian/meritrack/internal/guard"
	"github.com/okian/meritrack/pkg/metrics"
)

const maxBodyBytes = 1 << 20

// Dependencies is everything the handlers call.
type Dependencies interface {
	BadgeDependencies
	GitHubDependencies
	ScoreDependencies
	SkillGapDependencies
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	badges   *BadgeHandler
	github   *GitHubHandler
	score    *ScoreHandler
	skillgap *SkillGapHandler
	stats    *StatsHandler
	guard    *guard.Guard
}

// NewServer creates the API server. With a nil guard the per-user routes
// are not access checked.
func NewServer(deps Dependencies, g *guard.Guard) *Server {
	return &Server{
		badges:   NewBadgeHandler(deps),
		github:   NewGitHubHandler(deps),
		score:    NewScoreHandler(deps),
		skillgap: NewSkillGapHandler(deps),
		stats:    NewStatsHandler(deps),
		guard:    g,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(handleHealth, "healthz"))
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.stats.HandleStats, "stats"))

	mux.HandleFunc("GET /badges/definitions", MetricsMiddleware(s.badges.HandleDefinitions, "badge_definitions"))
	mux.HandleFunc("GET /skillgap/roles", MetricsMiddleware(s.skillgap.HandleRoles, "skillgap_roles"))
	mux.HandleFunc("GET /skillgap/roles/{role}", MetricsMiddleware(s.skillgap.HandleRole, "skillgap_role"))

	user := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, MetricsMiddleware(s.protect(h), endpoint))
	}
	user("GET /users/{userID}/badges", "user_badges", s.badges.HandleList)
	user("POST /users/{userID}/badges/check", "user_badges_check", s.badges.HandleCheck)
	user("POST /users/{userID}/badges/evaluate", "user_badges_evaluate", s.badges.HandleEvaluate)
	user("POST /users/{userID}/github/sync", "github_sync", s.github.HandleSync)
	user("GET /users/{userID}/github", "github_data", s.github.HandleGet)
	user("GET /users/{userID}/score", "score", s.score.HandleGet)
	user("POST /users/{userID}/skillgap", "skillgap_analyze", s.skillgap.HandleAnalyze)
	user("GET /users/{userID}/skillgap", "skillgap_get", s.skillgap.HandleGet)
}

// protect requires a consented, onboarded caller acting on their own
// record, or an admin.
func (s *Server) protect(h http.HandlerFunc) http.HandlerFunc {
	if s.guard == nil {
		return h
	}
	return s.guard.Require(guard.Consent, guard.Onboarded, guard.SelfOrAdmin(userID))(h)
}

func userID(r *http.Request) string {
	return r.PathValue("userID")
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// WriteGuardError renders guard failures in the API envelope.
func WriteGuardError(w http.ResponseWriter, _ *http.Request, err error) {
	code := "forbidden"
	if guard.StatusCode(err) == http.StatusUnauthorized {
		code = "unauthenticated"
	}
	writeError(w, guard.StatusCode(err), code, err)
}

// writeServiceError maps domain and adapter errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, skillgap.ErrUnknownRole):
		writeError(w, http.StatusUnprocessableEntity, "unknown_role", skillgap.ErrUnknownRole)
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, github.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, skillgap.ErrInvalidSource),
		errors.Is(err, badge.ErrUnknownType):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, ErrBackpressure), errors.Is(err, github.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "rate_limited", err)
	case errors.Is(err, service.ErrNoGitHub):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	case errors.Is(err, service.ErrSyncFailed):
		writeError(w, http.StatusBadGateway, "upstream_error", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// decodeBody reads a JSON request body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %w", ErrBadRequest, err)
	}
	return nil
}
