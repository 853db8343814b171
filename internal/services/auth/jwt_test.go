package auth

import (
	"errors"
	"testing"
	"time"
)

func TestGenerateAndParseAccessToken(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Minute)

	signed, expiresAt, err := manager.GenerateAccessToken(42, RoleModerator)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if signed == "" || expiresAt.IsZero() {
		t.Fatalf("unexpected token output: %q %v", signed, expiresAt)
	}

	claims, err := manager.ParseAccessToken(signed)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.ModeratorID != 42 {
		t.Fatalf("unexpected moderator id: %d", claims.ModeratorID)
	}
	if claims.Role != RoleModerator {
		t.Fatalf("unexpected role: %s", claims.Role)
	}
}

func TestParseAccessTokenRejectsWrongSecret(t *testing.T) {
	manager := NewJWTManager("secret-a", time.Minute)
	other := NewJWTManager("secret-b", time.Minute)

	signed, _, err := manager.GenerateAccessToken(7, RoleAdmin)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	if _, err := other.ParseAccessToken(signed); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Minute)
	manager.now = func() time.Time { return time.Now().Add(-time.Hour) }

	signed, _, err := manager.GenerateAccessToken(7, RoleModerator)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	verifier := NewJWTManager("test-secret", time.Minute)
	if _, err := verifier.ParseAccessToken(signed); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for expired token, got %v", err)
	}
}
