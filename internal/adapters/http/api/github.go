package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/meritrack/internal/adapters/github"
	"github.com/okian/meritrack/internal/domain/model"
)

// GitHubDependencies are the GitHub sync operations.
type GitHubDependencies interface {
	SyncGitHubData(ctx context.Context, userID string, cred github.Credentials) (model.GitHubData, error)
	GetGitHubData(ctx context.Context, userID string) (model.GitHubData, error)
}

// GitHubHandler serves GitHub routes.
type GitHubHandler struct {
	deps GitHubDependencies
}

// NewGitHubHandler creates a GitHub handler.
func NewGitHubHandler(deps GitHubDependencies) *GitHubHandler {
	return &GitHubHandler{deps: deps}
}

// syncRequest carries the credentials obtained by the OAuth flow.
type syncRequest struct {
	Username    string `json:"username"`
	AccessToken string `json:"access_token"`
}

func (s syncRequest) validate() error {
	switch {
	case strings.TrimSpace(s.Username) == "":
		return fmt.Errorf("%w: missing username", ErrBadRequest)
	case strings.TrimSpace(s.AccessToken) == "":
		return fmt.Errorf("%w: missing access_token", ErrBadRequest)
	}
	return nil
}

// HandleSync handles POST /users/{userID}/github/sync.
func (h *GitHubHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	if err := req.validate(); err != nil {
		writeServiceError(w, err)
		return
	}
	data, err := h.deps.SyncGitHubData(r.Context(), userID(r), github.Credentials{
		Username:    strings.TrimSpace(req.Username),
		AccessToken: req.AccessToken,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

// HandleGet handles GET /users/{userID}/github.
func (h *GitHubHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	data, err := h.deps.GetGitHubData(r.Context(), userID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}
