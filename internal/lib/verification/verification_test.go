package verification

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"tutor_lms/internal/models"
)

type capturingPublisher struct {
	msg models.Message
}

func (c *capturingPublisher) SendMessage(_ context.Context, msg models.Message) error {
	c.msg = msg
	return nil
}

func TestVerificationToken_RoundTrip(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	pub := &capturingPublisher{}

	err := SendVerificationEmail(context.Background(), log, pub,
		time.Hour, "secret", 77, "http://localhost:8080", "alice@example.com")
	if err != nil {
		t.Fatalf("SendVerificationEmail error: %v", err)
	}

	if pub.msg.Email != "alice@example.com" {
		t.Fatalf("message recipient = %q", pub.msg.Email)
	}

	_, token, ok := strings.Cut(pub.msg.Link, "token=")
	if !ok {
		t.Fatalf("link %q has no token", pub.msg.Link)
	}

	userID, err := ParseVerificationToken(token, "secret")
	if err != nil {
		t.Fatalf("ParseVerificationToken error: %v", err)
	}
	if userID != 77 {
		t.Fatalf("user id = %d, want 77", userID)
	}
}

func TestParseVerificationToken_WrongSecret(t *testing.T) {
	t.Parallel()

	token, err := newVerificationToken(1, time.Hour, "secret")
	if err != nil {
		t.Fatalf("newVerificationToken error: %v", err)
	}

	if _, err := ParseVerificationToken(token, "other"); err == nil {
		t.Fatal("token parsed with wrong secret")
	}
}

func TestParseVerificationToken_Expired(t *testing.T) {
	t.Parallel()

	token, err := newVerificationToken(1, -time.Minute, "secret")
	if err != nil {
		t.Fatalf("newVerificationToken error: %v", err)
	}

	if _, err := ParseVerificationToken(token, "secret"); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestParseVerificationToken_WrongPurpose(t *testing.T) {
	t.Parallel()

	if _, err := ParseVerificationToken("not.a.jwt", "secret"); err == nil {
		t.Fatal("malformed token accepted")
	}
}
