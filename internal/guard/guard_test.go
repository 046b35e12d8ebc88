package guard

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/meritrack/internal/domain/model"
	"github.com/okian/meritrack/pkg/logger"
)

func TestMain(m *testing.M) {
	_ = logger.InitWith(io.Discard, "text")
	os.Exit(m.Run())
}

type userMap map[string]model.User

func (m userMap) GetUser(_ context.Context, id string) (model.User, error) {
	u, ok := m[id]
	if !ok {
		return model.User{}, errors.New("not found")
	}
	return u, nil
}

var users = userMap{
	"ready":    {ID: "ready", Role: model.RoleStudent, Department: "CSE", GraduationYear: 2027, DPDPConsent: model.Consent{Consented: true}},
	"noconsent": {ID: "noconsent", Role: model.RoleStudent, Department: "CSE", GraduationYear: 2027},
	"fresh":    {ID: "fresh", Role: model.RoleStudent, DPDPConsent: model.Consent{Consented: true}},
	"blankdep": {ID: "blankdep", Role: model.RoleStudent, Department: "  ", GraduationYear: 2027, DPDPConsent: model.Consent{Consented: true}},
	"admin":    {ID: "admin", Role: model.RoleAdmin, Department: "Ops", GraduationYear: 1, DPDPConsent: model.Consent{Consented: true}},
}

func serve(h http.HandlerFunc, caller string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/users/ready/badges", nil)
	if caller != "" {
		req.Header.Set(UserHeader, caller)
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFrom(r.Context())
	_, _ = io.WriteString(w, u.ID)
}

func errorCode(rec *httptest.ResponseRecorder) string {
	var body map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return body["code"]
}

func TestRequire(t *testing.T) {
	Convey("Given a guard over an in-memory user table", t, func() {
		g := New(users)
		h := g.Require(Consent, Onboarded)(okHandler)

		Convey("A consented, onboarded user passes and is put in context", func() {
			rec := serve(h, "ready")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldEqual, "ready")
		})

		Convey("A missing principal is 401", func() {
			rec := serve(h, "")
			So(rec.Code, ShouldEqual, http.StatusUnauthorized)
			So(errorCode(rec), ShouldEqual, "unauthenticated")
		})

		Convey("An unknown user is 401", func() {
			So(serve(h, "ghost").Code, ShouldEqual, http.StatusUnauthorized)
		})

		Convey("Missing consent is 403", func() {
			rec := serve(h, "noconsent")
			So(rec.Code, ShouldEqual, http.StatusForbidden)
			So(errorCode(rec), ShouldEqual, "consent_required")
		})

		Convey("An incomplete profile is 403", func() {
			rec := serve(h, "fresh")
			So(rec.Code, ShouldEqual, http.StatusForbidden)
			So(errorCode(rec), ShouldEqual, "onboarding_required")
			So(serve(h, "blankdep").Code, ShouldEqual, http.StatusForbidden)
		})
	})
}

func TestShortcutsAndRoles(t *testing.T) {
	Convey("Given a guard", t, func() {
		g := New(users)

		Convey("RequireConsent checks only consent", func() {
			So(serve(g.RequireConsent(okHandler), "fresh").Code, ShouldEqual, http.StatusOK)
			So(serve(g.RequireConsent(okHandler), "noconsent").Code, ShouldEqual, http.StatusForbidden)
		})

		Convey("RequireOnboarded checks only the profile", func() {
			So(serve(g.RequireOnboarded(okHandler), "noconsent").Code, ShouldEqual, http.StatusOK)
			So(serve(g.RequireOnboarded(okHandler), "fresh").Code, ShouldEqual, http.StatusForbidden)
		})

		Convey("RequireRole admits listed roles only", func() {
			h := g.RequireRole(model.RoleAdmin)(okHandler)
			So(serve(h, "admin").Code, ShouldEqual, http.StatusOK)
			So(serve(h, "ready").Code, ShouldEqual, http.StatusForbidden)
		})

		Convey("SelfOrAdmin compares the caller with the target", func() {
			target := func(*http.Request) string { return "ready" }
			h := g.Require(SelfOrAdmin(target))(okHandler)
			So(serve(h, "ready").Code, ShouldEqual, http.StatusOK)
			So(serve(h, "admin").Code, ShouldEqual, http.StatusOK)
			So(serve(h, "fresh").Code, ShouldEqual, http.StatusForbidden)
		})
	})

	Convey("Injected principal and error handler are used", t, func() {
		var got error
		g := New(users,
			WithPrincipal(func(*http.Request) (string, bool) { return "noconsent", true }),
			WithErrorHandler(func(w http.ResponseWriter, _ *http.Request, err error) {
				got = err
				w.WriteHeader(http.StatusTeapot)
			}),
		)
		rec := serve(g.RequireConsent(okHandler), "")
		So(rec.Code, ShouldEqual, http.StatusTeapot)
		So(errors.Is(got, ErrConsentRequired), ShouldBeTrue)
	})
}

func TestStatusCode(t *testing.T) {
	Convey("Guard errors map to HTTP statuses", t, func() {
		So(StatusCode(ErrUnauthenticated), ShouldEqual, http.StatusUnauthorized)
		So(StatusCode(ErrConsentRequired), ShouldEqual, http.StatusForbidden)
		So(StatusCode(ErrNotOnboarded), ShouldEqual, http.StatusForbidden)
		So(StatusCode(ErrForbidden), ShouldEqual, http.StatusForbidden)
		So(StatusCode(errors.New("boom")), ShouldEqual, http.StatusInternalServerError)
	})
}
