package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/okian/meritrack/internal/domain/badge"
	"github.com/okian/meritrack/internal/domain/model"
)

// BadgeDependencies are the badge operations.
type BadgeDependencies interface {
	GetUserBadges(ctx context.Context, userID string) ([]badge.View, error)
	CheckAndAwardBadges(ctx context.Context, userID string) ([]badge.Type, error)
	EnqueueEvaluation(ctx context.Context, userID, reason string) bool
}

// BadgeHandler serves badge routes.
type BadgeHandler struct {
	deps BadgeDependencies
}

// NewBadgeHandler creates a badge handler.
func NewBadgeHandler(deps BadgeDependencies) *BadgeHandler {
	return &BadgeHandler{deps: deps}
}

type badgeListResponse struct {
	Badges     []badge.View `json:"badges"`
	BadgeScore int          `json:"badge_score"`
}

type badgeCheckResponse struct {
	Awarded []badge.Type `json:"awarded"`
}

type badgeEvaluateResponse struct {
	Queued bool `json:"queued"`
}

// HandleDefinitions handles GET /badges/definitions.
func (h *BadgeHandler) HandleDefinitions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"definitions": badge.Definitions()})
}

// HandleList handles GET /users/{userID}/badges.
func (h *BadgeHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	views, err := h.deps.GetUserBadges(r.Context(), userID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, badgeListResponse{
		Badges:     views,
		BadgeScore: badge.CalculateScore(len(views)),
	})
}

// HandleCheck handles POST /users/{userID}/badges/check.
func (h *BadgeHandler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	awarded, err := h.deps.CheckAndAwardBadges(r.Context(), userID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if awarded == nil {
		awarded = []badge.Type{}
	}
	writeJSON(w, http.StatusOK, badgeCheckResponse{Awarded: awarded})
}

// HandleEvaluate handles POST /users/{userID}/badges/evaluate. The rules
// run in the background; a full or stopped pipeline is reported as 429.
func (h *BadgeHandler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	id := userID(r)
	if !h.deps.EnqueueEvaluation(r.Context(), id, model.ReasonManual) {
		writeServiceError(w, fmt.Errorf("%w: evaluation for %s not queued", ErrBackpressure, id))
		return
	}
	writeJSON(w, http.StatusAccepted, badgeEvaluateResponse{Queued: true})
}
