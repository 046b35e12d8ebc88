package api

import (
	"context"
	"net/http"

	"github.com/okian/meritrack/internal/domain/scoring"
)

// ScoreDependencies computes the composite score.
type ScoreDependencies interface {
	GetScore(ctx context.Context, userID string) (scoring.Breakdown, error)
}

// ScoreHandler serves the score route.
type ScoreHandler struct {
	deps ScoreDependencies
}

// NewScoreHandler creates a score handler.
func NewScoreHandler(deps ScoreDependencies) *ScoreHandler {
	return &ScoreHandler{deps: deps}
}

// HandleGet handles GET /users/{userID}/score.
func (h *ScoreHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	b, err := h.deps.GetScore(r.Context(), userID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}
