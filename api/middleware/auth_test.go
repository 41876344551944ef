package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/quoteengine-backend/pkg/auth"
	"github.com/angelmondragon/quoteengine-backend/pkg/config"
	"github.com/angelmondragon/quoteengine-backend/pkg/enums"
	"github.com/angelmondragon/quoteengine-backend/pkg/outbox"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthRejectsMissingToken(t *testing.T) {
	handler := Auth(testJWTConfig(), nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	handler := Auth(testJWTConfig(), nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthAllowsValidToken(t *testing.T) {
	cfg := testJWTConfig()
	userID := uuid.New()
	token := mintTestToken(t, cfg, userID, enums.UserRoleSeller)

	var captured struct {
		user string
		role enums.UserRole
	}
	handler := Auth(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.user = UserIDFromContext(r.Context())
		captured.role = RoleFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if captured.user != userID.String() {
		t.Fatalf("expected user %s got %s", userID, captured.user)
	}
	if captured.role != enums.UserRoleSeller {
		t.Fatalf("expected role seller got %s", captured.role)
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name string
		role enums.UserRole
		want int
	}{
		{"admin allowed", enums.UserRoleAdmin, http.StatusOK},
		{"seller forbidden", enums.UserRoleSeller, http.StatusForbidden},
		{"anonymous forbidden", "", http.StatusForbidden},
	}

	for _, tt := range tests {
		handler := RequireRole(nil, enums.UserRoleAdmin)(okHandler())
		req := httptest.NewRequest(http.MethodDelete, "/", nil)
		req = req.WithContext(WithPrincipal(req.Context(), Principal{Role: tt.role}))
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != tt.want {
			t.Fatalf("%s: expected %d got %d", tt.name, tt.want, resp.Code)
		}
	}
}

func TestRequireWriterRejectsViewer(t *testing.T) {
	handler := RequireWriter(nil)(okHandler())
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req = req.WithContext(WithPrincipal(req.Context(), Principal{UserID: uuid.New(), Role: enums.UserRoleViewer}))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func mintTestToken(t *testing.T, cfg config.JWTConfig, userID uuid.UUID, role enums.UserRole) string {
	t.Helper()
	token, err := auth.MintAccessToken(cfg, time.Now(), auth.AccessTokenPayload{UserID: userID, Role: role})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestWithPrincipalRegistersEventActor(t *testing.T) {
	userID := uuid.New()
	ctx := WithPrincipal(context.Background(), Principal{UserID: userID, Role: enums.UserRoleAdmin})

	actor := outbox.ActorFromContext(ctx)
	if actor == nil || actor.UserID != userID || actor.Role != "admin" {
		t.Fatalf("unexpected actor %+v", actor)
	}
	if UserIDFromContext(ctx) != userID.String() {
		t.Fatalf("unexpected user id %q", UserIDFromContext(ctx))
	}

	anon := WithPrincipal(context.Background(), Principal{Role: enums.UserRoleViewer})
	if outbox.ActorFromContext(anon) != nil || UserIDFromContext(anon) != "" {
		t.Fatal("anonymous principal should not register an actor")
	}
}
