package apiapp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	authsvc "github.com/egonyu/tesotunes-moderation/internal/services/auth"
)

func TestRequireRoleAllowsCaseInsensitiveMatch(t *testing.T) {
	mw := RequireRole("MODERATOR", "ADMIN")

	req := httptest.NewRequest(http.MethodGet, "/moderation", nil)
	req = req.WithContext(authsvc.WithIdentity(context.Background(), authsvc.Identity{
		ModeratorID: 1,
		Role:        "moderator",
	}))
	rr := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusNoContent)
	}
}

func TestRequireRoleRejectsForbiddenRole(t *testing.T) {
	mw := RequireRole("MODERATOR", "ADMIN")

	req := httptest.NewRequest(http.MethodGet, "/moderation", nil)
	req = req.WithContext(authsvc.WithIdentity(context.Background(), authsvc.Identity{
		ModeratorID: 2,
		Role:        "SERVICE",
	}))
	rr := httptest.NewRecorder()

	mw(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Fatalf("handler must not be called for forbidden role")
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusForbidden)
	}
}

func TestRequireRoleRejectsMissingIdentity(t *testing.T) {
	mw := RequireRole("MODERATOR")

	req := httptest.NewRequest(http.MethodGet, "/moderation", nil)
	rr := httptest.NewRecorder()

	mw(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Fatalf("handler must not be called without identity")
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	jwtManager := authsvc.NewJWTManager("test-secret", time.Minute)
	signed, _, err := jwtManager.GenerateAccessToken(42, authsvc.RoleModerator)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	mw := AuthMiddleware(jwtManager, nil)

	req := httptest.NewRequest(http.MethodGet, "/moderation", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rr := httptest.NewRecorder()

	var seen authsvc.Identity
	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := authsvc.IdentityFromContext(r.Context())
		if !ok {
			t.Fatalf("expected identity in context")
		}
		seen = identity
		w.WriteHeader(http.StatusNoContent)
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusNoContent)
	}
	if seen.ModeratorID != 42 || seen.Role != authsvc.RoleModerator {
		t.Fatalf("unexpected identity: %+v", seen)
	}
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	mw := AuthMiddleware(authsvc.NewJWTManager("test-secret", time.Minute), nil)

	req := httptest.NewRequest(http.MethodGet, "/moderation", nil)
	rr := httptest.NewRecorder()

	mw(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Fatalf("handler must not be called without a token")
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusUnauthorized)
	}
}
