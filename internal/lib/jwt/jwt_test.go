package jwt

import (
	"errors"
	"testing"
	"time"

	"tutor_lms/internal/models"
)

func testUser() models.User {
	return models.User{
		ID:    42,
		Email: "alice@example.com",
		Role:  models.RoleStudent,
	}
}

func TestAccessToken_RoundTrip(t *testing.T) {
	t.Parallel()

	m := NewManager("super-secret", 30*time.Minute, 7*24*time.Hour)

	tok, err := m.NewAccessToken(testUser())
	if err != nil {
		t.Fatalf("NewAccessToken error: %v", err)
	}

	claims, err := m.Parse(tok, TypeAccess)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if claims.Subject != "42" {
		t.Fatalf("subject mismatch: got %q want %q", claims.Subject, "42")
	}
	if claims.Email != "alice@example.com" {
		t.Fatalf("email mismatch: got %q", claims.Email)
	}
	if claims.Role != "student" {
		t.Fatalf("role mismatch: got %q", claims.Role)
	}
	if claims.TokenType != TypeAccess {
		t.Fatalf("token type mismatch: got %q", claims.TokenType)
	}
}

func TestParse_TypeConfusionRejected(t *testing.T) {
	t.Parallel()

	m := NewManager("super-secret", 30*time.Minute, 7*24*time.Hour)

	access, err := m.NewAccessToken(testUser())
	if err != nil {
		t.Fatalf("NewAccessToken error: %v", err)
	}
	refresh, err := m.NewRefreshToken(testUser())
	if err != nil {
		t.Fatalf("NewRefreshToken error: %v", err)
	}

	if _, err := m.Parse(access, TypeRefresh); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("access token verified as refresh: err = %v", err)
	}
	if _, err := m.Parse(refresh, TypeAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("refresh token verified as access: err = %v", err)
	}
}

func TestParse_Expiry(t *testing.T) {
	t.Parallel()

	m := NewManager("super-secret", 30*time.Minute, 7*24*time.Hour)

	issuedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return issuedAt }

	tok, err := m.NewAccessToken(testUser())
	if err != nil {
		t.Fatalf("NewAccessToken error: %v", err)
	}

	// One second before expiry the token still verifies.
	m.now = func() time.Time { return issuedAt.Add(30*time.Minute - time.Second) }
	if _, err := m.Parse(tok, TypeAccess); err != nil {
		t.Fatalf("token rejected before expiry: %v", err)
	}

	m.now = func() time.Time { return issuedAt.Add(30*time.Minute + time.Second) }
	if _, err := m.Parse(tok, TypeAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token accepted: err = %v", err)
	}
}

func TestParse_WrongSecret(t *testing.T) {
	t.Parallel()

	m := NewManager("right-secret", 30*time.Minute, 7*24*time.Hour)

	tok, err := m.NewAccessToken(testUser())
	if err != nil {
		t.Fatalf("NewAccessToken error: %v", err)
	}

	other := NewManager("wrong-secret", 30*time.Minute, 7*24*time.Hour)
	if _, err := other.Parse(tok, TypeAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("token with wrong signature accepted: err = %v", err)
	}
}

func TestParse_Malformed(t *testing.T) {
	t.Parallel()

	m := NewManager("super-secret", 30*time.Minute, 7*24*time.Hour)

	if _, err := m.Parse("not.a.jwt", TypeAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("malformed token accepted: err = %v", err)
	}
	if _, err := m.Parse("", TypeAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("empty token accepted: err = %v", err)
	}
}

func TestUserID_VerifiesFirst(t *testing.T) {
	t.Parallel()

	m := NewManager("super-secret", 30*time.Minute, 7*24*time.Hour)

	tok, err := m.NewRefreshToken(testUser())
	if err != nil {
		t.Fatalf("NewRefreshToken error: %v", err)
	}

	id, err := m.UserID(tok, TypeRefresh)
	if err != nil {
		t.Fatalf("UserID error: %v", err)
	}
	if id != 42 {
		t.Fatalf("user id mismatch: got %d want 42", id)
	}

	// Subject extraction must not bypass verification.
	if _, err := m.UserID(tok, TypeAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("UserID skipped type check: err = %v", err)
	}

	other := NewManager("wrong-secret", 30*time.Minute, 7*24*time.Hour)
	if _, err := other.UserID(tok, TypeRefresh); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("UserID skipped signature check: err = %v", err)
	}
}
