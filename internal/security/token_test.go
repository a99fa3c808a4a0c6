package security

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/happyhours/orderhub/internal/domain"
	"github.com/happyhours/orderhub/internal/testutil"
)

func TestTokenRoundTrip(t *testing.T) {
	tm, err := NewTokenManager("test-secret", 3600)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}

	token, expiresAt, err := tm.IssueToken("user-1", domain.RolePartner)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if !strings.HasPrefix(token, AccessTokenPrefix) {
		t.Errorf("token missing prefix: %s", token)
	}
	if expiresAt.IsZero() {
		t.Error("expected non-zero expiry")
	}

	payload, err := tm.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if payload.UserID != "user-1" {
		t.Errorf("expected user-1, got %s", payload.UserID)
	}
	if payload.Role != domain.RolePartner {
		t.Errorf("expected partner role, got %s", payload.Role)
	}
}

func TestTokenExpiry(t *testing.T) {
	tm, _ := NewTokenManager("test-secret", 3600)

	token, _, err := tm.IssueTokenWithExpiry("user-1", domain.RoleClient, -1)
	if err != nil {
		t.Fatalf("IssueTokenWithExpiry: %v", err)
	}

	if _, err := tm.ValidateToken(token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("expected ErrExpiredToken, got %v", err)
	}
}

func TestTokenTampering(t *testing.T) {
	tm, _ := NewTokenManager("test-secret", 3600)
	other, _ := NewTokenManager("other-secret", 3600)

	token, _, _ := tm.IssueToken("user-1", domain.RoleClient)

	if _, err := other.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for wrong secret, got %v", err)
	}

	tests := []string{
		"",
		"garbage",
		AccessTokenPrefix,
		AccessTokenPrefix + "not-base64!!",
	}
	for _, bad := range tests {
		if _, err := tm.ValidateToken(bad); err == nil {
			t.Errorf("expected error for token %q", bad)
		}
	}
}

func TestTokenAuthenticator(t *testing.T) {
	tm, _ := NewTokenManager("test-secret", 3600)
	users := testutil.NewMemStore()
	users.Users["user-1"] = domain.User{ID: "user-1", Email: "p@example.com", Role: domain.RolePartner}
	auth := NewTokenAuthenticator(tm, users)

	token, _, _ := tm.IssueToken("user-1", domain.RolePartner)

	principal, err := auth.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if principal.UserID != "user-1" || !principal.IsPartner() {
		t.Errorf("unexpected principal: %+v", principal)
	}

	// A token for a deleted account is refused even though the signature
	// still verifies.
	ghost, _, _ := tm.IssueToken("user-gone", domain.RoleClient)
	if _, err := auth.Authenticate(context.Background(), ghost); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}
