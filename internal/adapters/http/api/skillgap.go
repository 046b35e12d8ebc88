package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/meritrack/internal/domain/skillgap"
)

// SkillGapDependencies are the skill-gap operations.
type SkillGapDependencies interface {
	AnalyzeSkillGap(ctx context.Context, userID, targetRole string, skills []skillgap.UserSkill) (skillgap.Profile, error)
	GetSkillGap(ctx context.Context, userID string) (skillgap.Profile, error)
	Roles() []string
	RequiredSkills(role string) (string, []string, error)
}

// SkillGapHandler serves skill-gap routes.
type SkillGapHandler struct {
	deps SkillGapDependencies
}

// NewSkillGapHandler creates a skill-gap handler.
func NewSkillGapHandler(deps SkillGapDependencies) *SkillGapHandler {
	return &SkillGapHandler{deps: deps}
}

type skillInput struct {
	Skill       string `json:"skill"`
	Proficiency int    `json:"proficiency"`
	Source      string `json:"source"`
}

type analyzeRequest struct {
	TargetRole string       `json:"target_role"`
	UserSkills []skillInput `json:"user_skills"`
}

func (a analyzeRequest) skills() ([]skillgap.UserSkill, error) {
	if strings.TrimSpace(a.TargetRole) == "" {
		return nil, fmt.Errorf("%w: missing target_role", ErrBadRequest)
	}
	out := make([]skillgap.UserSkill, 0, len(a.UserSkills))
	for i, s := range a.UserSkills {
		if strings.TrimSpace(s.Skill) == "" {
			return nil, fmt.Errorf("%w: user_skills[%d]: missing skill", ErrBadRequest, i)
		}
		if s.Proficiency < 0 || s.Proficiency > 100 {
			return nil, fmt.Errorf("%w: user_skills[%d]: proficiency must be between 0 and 100", ErrBadRequest, i)
		}
		src, err := skillgap.ParseSource(s.Source)
		if err != nil {
			return nil, fmt.Errorf("user_skills[%d]: %w", i, err)
		}
		out = append(out, skillgap.UserSkill{Skill: s.Skill, Proficiency: s.Proficiency, Source: src})
	}
	return out, nil
}

type roleResponse struct {
	Role           string   `json:"role"`
	RequiredSkills []string `json:"required_skills"`
}

// HandleRoles handles GET /skillgap/roles.
func (h *SkillGapHandler) HandleRoles(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"roles": h.deps.Roles()})
}

// HandleRole handles GET /skillgap/roles/{role}.
func (h *SkillGapHandler) HandleRole(w http.ResponseWriter, r *http.Request) {
	role, skills, err := h.deps.RequiredSkills(r.PathValue("role"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, roleResponse{Role: role, RequiredSkills: skills})
}

// HandleAnalyze handles POST /users/{userID}/skillgap.
func (h *SkillGapHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	skills, err := req.skills()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	p, err := h.deps.AnalyzeSkillGap(r.Context(), userID(r), req.TargetRole, skills)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleGet handles GET /users/{userID}/skillgap.
func (h *SkillGapHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.deps.GetSkillGap(r.Context(), userID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
