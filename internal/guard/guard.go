// Package guard holds the access preconditions checked before any engine
// operation, and HTTP middleware that applies them.
package guard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/okian/meritrack/internal/domain/model"
	"github.com/okian/meritrack/pkg/logger"
)

// UserHeader carries the authenticated user id set by the gateway.
const UserHeader = "X-User-ID"

// Check is a precondition on the authenticated user.
type Check func(r *http.Request, u model.User) error

// Consent requires recorded data-processing consent.
func Consent(_ *http.Request, u model.User) error {
	if !u.DPDPConsent.Consented {
		return ErrConsentRequired
	}
	return nil
}

// Onboarded requires department and graduation year.
func Onboarded(_ *http.Request, u model.User) error {
	if !u.Onboarded() {
		return ErrNotOnboarded
	}
	return nil
}

// Role requires one of roles.
func Role(roles ...string) Check {
	return func(_ *http.Request, u model.User) error {
		if !slices.Contains(roles, u.Role) {
			return ErrForbidden
		}
		return nil
	}
}

// SelfOrAdmin requires the target user, as read by target, to be the
// caller unless the caller is an admin.
func SelfOrAdmin(target func(*http.Request) string) Check {
	return func(r *http.Request, u model.User) error {
		if u.Role == model.RoleAdmin || target(r) == u.ID {
			return nil
		}
		return ErrForbidden
	}
}

// UserLookup loads the authenticated user.
type UserLookup interface {
	GetUser(ctx context.Context, userID string) (model.User, error)
}

// PrincipalFunc extracts the caller's user id from a request.
type PrincipalFunc func(r *http.Request) (string, bool)

// ErrorHandler writes a guard failure.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// HeaderPrincipal reads the caller from UserHeader.
func HeaderPrincipal(r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.Header.Get(UserHeader))
	return id, id != ""
}

// Guard resolves the caller and applies checks.
type Guard struct {
	users     UserLookup
	principal PrincipalFunc
	onError   ErrorHandler
	logger    logger.Logger
}

// New creates a Guard.
func New(users UserLookup, opts ...Option) *Guard {
	g := &Guard{
		users:     users,
		principal: HeaderPrincipal,
		onError:   WriteError,
		logger:    logger.Named("guard"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Require wraps next so it only runs when every check passes. The loaded
// user is available to next through UserFrom.
func (g *Guard) Require(checks ...Check) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			id, ok := g.principal(r)
			if !ok {
				g.onError(w, r, ErrUnauthenticated)
				return
			}
			u, err := g.users.GetUser(r.Context(), id)
			if err != nil {
				g.logger.Debug(r.Context(), "user lookup failed",
					logger.String("userID", id),
					logger.Error(err),
				)
				g.onError(w, r, ErrUnauthenticated)
				return
			}
			for _, check := range checks {
				if err := check(r, u); err != nil {
					g.onError(w, r, err)
					return
				}
			}
			next(w, r.WithContext(withUser(r.Context(), u)))
		}
	}
}

// RequireConsent is Require(Consent).
func (g *Guard) RequireConsent(next http.HandlerFunc) http.HandlerFunc {
	return g.Require(Consent)(next)
}

// RequireOnboarded is Require(Onboarded).
func (g *Guard) RequireOnboarded(next http.HandlerFunc) http.HandlerFunc {
	return g.Require(Onboarded)(next)
}

// RequireRole is Require(Role(roles...)).
func (g *Guard) RequireRole(roles ...string) func(http.HandlerFunc) http.HandlerFunc {
	return g.Require(Role(roles...))
}

type userKey struct{}

func withUser(ctx context.Context, u model.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFrom returns the user stored by Require.
func UserFrom(ctx context.Context) (model.User, bool) {
	u, ok := ctx.Value(userKey{}).(model.User)
	return u, ok
}

// StatusCode maps a guard error to its HTTP status.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrConsentRequired), errors.Is(err, ErrNotOnboarded), errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// WriteError is the default ErrorHandler: a {code, message} JSON body.
func WriteError(w http.ResponseWriter, _ *http.Request, err error) {
	status := StatusCode(err)
	code := "forbidden"
	switch {
	case status == http.StatusUnauthorized:
		code = "unauthenticated"
	case errors.Is(err, ErrConsentRequired):
		code = "consent_required"
	case errors.Is(err, ErrNotOnboarded):
		code = "onboarding_required"
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"code": code, "message": err.Error()})
}
