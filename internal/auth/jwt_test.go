package auth

import (
	"errors"
	"testing"
	"time"

	"form-shield/internal/config"
)

func testManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(config.AuthConfig{
		JWTSecret:       "secret",
		JWTIssuer:       "issuer",
		JWTAudience:     "aud",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	return m
}

func TestIssueAndVerifyAccessToken(t *testing.T) {
	m := testManager(t)
	now := time.Unix(1700000000, 0).UTC()
	pair, err := m.IssuePair(now, "admin", "moderator")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" || pair.ExpiresIn != 900 {
		t.Fatalf("unexpected pair %+v", pair)
	}

	claims, err := m.Verify(pair.AccessToken, TokenTypeAccess, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Username() != "admin" || claims.Role != "moderator" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, err := m.Verify(pair.AccessToken, TokenTypeAccess, now.Add(time.Hour)); err == nil {
		t.Fatalf("expected expired token rejected")
	}
}

func TestVerifyRejectsWrongTokenType(t *testing.T) {
	m := testManager(t)
	now := time.Now()
	p, err := m.IssuePair(now, "u", "viewer")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Verify(p.RefreshToken, TokenTypeAccess, now); !errors.Is(err, ErrTokenType) {
		t.Fatalf("expected token_type mismatch, got %v", err)
	}
	claims, err := m.Verify(p.RefreshToken, TokenTypeRefresh, now)
	if err != nil || claims.Role != "" {
		t.Fatalf("refresh token should verify without a role: %+v err=%v", claims, err)
	}
}

func TestAccounts_Authenticate(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	accs := Accounts{{Username: "admin", PasswordHash: hash, Role: "admin"}}

	acc, err := accs.Authenticate("admin", "s3cret")
	if err != nil || acc.Role != "admin" {
		t.Fatalf("expected login, got %+v err=%v", acc, err)
	}
	if _, err := accs.Authenticate("admin", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected bad password rejected, got %v", err)
	}
	if _, err := accs.Authenticate("nobody", "s3cret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected unknown user rejected, got %v", err)
	}
	if _, err := HashPassword(""); err == nil {
		t.Fatalf("expected empty password rejected")
	}
}

func TestVerifyUsesCallerClockWithLeeway(t *testing.T) {
	m := testManager(t)
	issued := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	pair, err := m.IssuePair(issued, "admin", "admin")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	expiry := issued.Add(15 * time.Minute)

	if _, err := m.Verify(pair.AccessToken, TokenTypeAccess, expiry.Add(20*time.Second)); err != nil {
		t.Fatalf("expected token within leeway accepted, got %v", err)
	}
	if _, err := m.Verify(pair.AccessToken, TokenTypeAccess, expiry.Add(45*time.Second)); err == nil {
		t.Fatalf("expected token past leeway rejected")
	}

	other, err := NewManager(config.AuthConfig{
		JWTSecret:       "secret",
		JWTIssuer:       "issuer",
		JWTAudience:     "someone-else",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: time.Hour,
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	if _, err := other.Verify(pair.AccessToken, TokenTypeAccess, issued); err == nil {
		t.Fatalf("expected audience mismatch rejected")
	}
}
