package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

var testSecret = []byte("test-secret")

func issueToken(t *testing.T, actor Actor) string {
	t.Helper()
	token, err := NewToken(testSecret, actor, time.Hour)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestJWTMiddleware_RoundTrip(t *testing.T) {
	e := echo.New()
	actor := Actor{Email: "kibuli.focal@emtct.gov", Name: "Mary Jane", Role: RoleFacility, Facility: "Kibuli Health Centre", District: "Kampala"}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, actor))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		got, ok := ActorFromContext(c.Request().Context())
		if !ok {
			t.Fatal("expected actor on context")
		}
		if got != actor {
			t.Errorf("expected %+v, got %+v", actor, got)
		}
		return c.NoContent(http.StatusOK)
	}

	if err := JWTMiddleware(testSecret)(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestJWTMiddleware_MissingHeader(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := JWTMiddleware(testSecret)(func(c echo.Context) error { return nil })(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestJWTMiddleware_WrongSecret(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, Actor{Email: "x@emtct.gov", Role: RoleAdmin}))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := JWTMiddleware([]byte("other-secret"))(func(c echo.Context) error { return nil })(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestJWTMiddleware_UnknownRole(t *testing.T) {
	e := echo.New()
	token, err := NewToken(testSecret, Actor{Email: "x@emtct.gov", Role: Role("superuser")}, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err = JWTMiddleware(testSecret)(func(c echo.Context) error { return nil })(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	pass := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	cases := []struct {
		name    string
		actor   Actor
		allowed []Role
		wantOK  bool
	}{
		{"district allowed", Actor{Role: RoleDistrict}, []Role{RoleDistrict}, true},
		{"facility denied district route", Actor{Role: RoleFacility}, []Role{RoleDistrict}, false},
		{"admin passes everything", Actor{Role: RoleAdmin}, []Role{RoleFacility}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(WithActor(req.Context(), tc.actor))
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			err := RequireRole(tc.allowed...)(pass)(c)
			if tc.wantOK && err != nil {
				t.Errorf("expected pass, got %v", err)
			}
			if !tc.wantOK {
				he, ok := err.(*echo.HTTPError)
				if !ok || he.Code != http.StatusForbidden {
					t.Errorf("expected 403, got %v", err)
				}
			}
		})
	}
}

func TestActorInScope(t *testing.T) {
	facility := Actor{Role: RoleFacility, Facility: "Kibuli Health Centre", District: "Kampala"}
	district := Actor{Role: RoleDistrict, District: "Kampala"}
	admin := Actor{Role: RoleAdmin}

	if !facility.InScope("Kibuli Health Centre", "Kampala") {
		t.Error("facility actor should see own facility")
	}
	if facility.InScope("Mulago Hospital", "Kampala") {
		t.Error("facility actor should not see other facilities")
	}
	if !district.InScope("Mulago Hospital", "Kampala") {
		t.Error("district actor should see any facility in its district")
	}
	if district.InScope("Entebbe General", "Wakiso") {
		t.Error("district actor should not see other districts")
	}
	if !admin.InScope("Entebbe General", "Wakiso") {
		t.Error("admin should see everything")
	}
}
