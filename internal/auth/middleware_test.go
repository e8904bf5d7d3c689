package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Subject", SubjectFromContext(r.Context()))
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware_NoToken(t *testing.T) {
	secret := []byte("test-secret")
	mw := NewMiddleware(secret, NewDefaultPolicy(nil, nil))
	handler := mw.Wrap(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/kpis/today", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestAuthMiddleware_ExemptPaths(t *testing.T) {
	mw := NewMiddleware([]byte("test-secret"), NewDefaultPolicy(nil, nil))
	handler := mw.Wrap(okHandler())

	for _, path := range []string{"/healthz", "/metrics", "/api/v1/auth/login"} {
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, resp.Code)
		}
	}
}

func TestAuthMiddleware_ViewerReadsDashboard(t *testing.T) {
	secret := []byte("test-secret")
	token := mustToken(t, secret, "ana", "viewer", time.Hour)
	handler := NewMiddleware(secret, NewDefaultPolicy(nil, nil)).Wrap(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/charts", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if got := resp.Header().Get("X-Subject"); got != "ana" {
		t.Fatalf("expected subject ana, got %q", got)
	}
}

func TestAuthMiddleware_QueryTokenForStreams(t *testing.T) {
	secret := []byte("test-secret")
	token := mustToken(t, secret, "ana", "viewer", time.Hour)
	handler := NewMiddleware(secret, NewDefaultPolicy(nil, nil)).Wrap(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/live/stream?access_token="+token, nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestAuthMiddleware_ViewerForbiddenAliasChange(t *testing.T) {
	secret := []byte("test-secret")
	token := mustToken(t, secret, "ana", "viewer", time.Hour)
	handler := NewMiddleware(secret, NewDefaultPolicy(nil, nil)).Wrap(okHandler())

	req := httptest.NewRequest(http.MethodPut, "/api/v1/clients/7", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}

func TestAuthMiddleware_ViewerForbiddenExport(t *testing.T) {
	secret := []byte("test-secret")
	token := mustToken(t, secret, "ana", "viewer", time.Hour)
	handler := NewMiddleware(secret, NewDefaultPolicy(nil, nil)).Wrap(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/export.pdf", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	secret := []byte("test-secret")
	token := mustToken(t, secret, "ana", "admin", -time.Minute)
	handler := NewMiddleware(secret, NewDefaultPolicy(nil, nil)).Wrap(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/kpis/today", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestAuthMiddleware_WrongSecret(t *testing.T) {
	token := mustToken(t, []byte("other-secret"), "ana", "admin", time.Hour)
	handler := NewMiddleware([]byte("test-secret"), NewDefaultPolicy(nil, nil)).Wrap(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/kpis/today", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func mustToken(t *testing.T, secret []byte, subject, role string, ttl time.Duration) string {
	t.Helper()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestDefaultPolicyRequiredRoles(t *testing.T) {
	policy := NewDefaultPolicy(nil, nil)
	cases := []struct {
		method string
		path   string
		want   Role
		ok     bool
	}{
		{http.MethodGet, "/api/v1/kpis/period", RoleViewer, true},
		{http.MethodGet, "/api/v1/clients", RoleViewer, true},
		{http.MethodPut, "/api/v1/clients/4", RoleAdmin, true},
		{http.MethodDelete, "/api/v1/clients/aliases", RoleAdmin, true},
		{http.MethodGet, "/api/v1/reports/export.xlsx", RoleOperator, true},
		{http.MethodPost, "/api/v1/reports/archive", RoleOperator, true},
		{http.MethodGet, "/api/v1/audit", RoleAdmin, true},
		{http.MethodPost, "/api/v1/kpis/today", RoleOperator, true},
		{http.MethodGet, "/index.html", "", false},
	}
	for _, tc := range cases {
		got, ok := policy.RequiredRole(httptest.NewRequest(tc.method, tc.path, nil))
		if ok != tc.ok || got != tc.want {
			t.Fatalf("%s %s: got (%q, %v), want (%q, %v)", tc.method, tc.path, got, ok, tc.want, tc.ok)
		}
	}
	if !policy.IsExempt(httptest.NewRequest(http.MethodOptions, "/api/v1/audit", nil)) {
		t.Fatalf("preflight must be exempt")
	}
}
