package auth

import (
	"testing"
	"time"
)

func newTestManager() *Manager {
	return NewManager("test-secret-please-rotate", 15*time.Minute, 24*time.Hour)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := newTestManager()

	raw, err := m.GenerateAccessToken("user-1", "sam", true)

	if err != nil {
		t.Fatalf("failed to generate access token: %v", err)
	}

	claims, err := m.VerifyAccessToken(raw)

	if err != nil {
		t.Fatalf("failed to verify access token: %v", err)
	}

	if claims.UserID != "user-1" {
		t.Fatalf("got userID %q, want user-1", claims.UserID)
	}

	if claims.Username != "sam" {
		t.Fatalf("got username %q, want sam", claims.Username)
	}

	if !claims.IsAdmin {
		t.Fatalf("expected IsAdmin to survive the round trip")
	}

	if claims.TokenType != "access" {
		t.Fatalf("got token type %q, want access", claims.TokenType)
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	m := newTestManager()

	raw, jti, expiresAt, err := m.GenerateRefreshToken("user-1", "sam", false)

	if err != nil {
		t.Fatalf("failed to generate refresh token: %v", err)
	}

	if jti == "" {
		t.Fatalf("expected a non-empty jti")
	}

	if !expiresAt.After(time.Now().Add(23 * time.Hour)) {
		t.Fatalf("expiresAt %v is not ~24h out", expiresAt)
	}

	claims, err := m.VerifyRefreshToken(raw)

	if err != nil {
		t.Fatalf("failed to verify refresh token: %v", err)
	}

	if claims.JTI != jti {
		t.Fatalf("got jti %q, want %q", claims.JTI, jti)
	}

	if claims.TokenType != "refresh" {
		t.Fatalf("got token type %q, want refresh", claims.TokenType)
	}
}

// The two token kinds must never be interchangeable.

func TestTokenTypeIsEnforced(t *testing.T) {
	m := newTestManager()

	access, err := m.GenerateAccessToken("user-1", "sam", false)
	if err != nil {
		t.Fatalf("failed to generate access token: %v", err)
	}

	refresh, _, _, err := m.GenerateRefreshToken("user-1", "sam", false)
	if err != nil {
		t.Fatalf("failed to generate refresh token: %v", err)
	}

	if _, err := m.VerifyRefreshToken(access); err == nil {
		t.Fatalf("access token must not pass refresh verification")
	}

	if _, err := m.VerifyAccessToken(refresh); err == nil {
		t.Fatalf("refresh token must not pass access verification")
	}
}

func TestTamperedTokenIsRejected(t *testing.T) {
	m := newTestManager()

	raw, err := m.GenerateAccessToken("user-1", "sam", false)
	if err != nil {
		t.Fatalf("failed to generate access token: %v", err)
	}

	tampered := raw[:len(raw)-2] + "xx"

	if _, err := m.VerifyAccessToken(tampered); err == nil {
		t.Fatalf("tampered token must not verify")
	}
}

func TestWrongSecretIsRejected(t *testing.T) {
	m := newTestManager()
	other := NewManager("a-completely-different-secret", 15*time.Minute, 24*time.Hour)

	raw, err := m.GenerateAccessToken("user-1", "sam", false)
	if err != nil {
		t.Fatalf("failed to generate access token: %v", err)
	}

	if _, err := other.VerifyAccessToken(raw); err == nil {
		t.Fatalf("token signed with another secret must not verify")
	}
}

func TestHashRefreshToken(t *testing.T) {
	m := newTestManager()

	h1 := m.HashRefreshToken("token-a")
	h2 := m.HashRefreshToken("token-a")
	h3 := m.HashRefreshToken("token-b")

	if h1 != h2 {
		t.Fatalf("hash must be deterministic")
	}

	if h1 == h3 {
		t.Fatalf("different tokens must not collide")
	}

	if h1 == "token-a" {
		t.Fatalf("hash must not echo the input")
	}
}
