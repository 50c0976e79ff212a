package verification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	sl "tutor_lms/internal/lib/logger"
	"tutor_lms/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

const purposeEmailVerification = "email_verification"

type Publisher interface {
	SendMessage(ctx context.Context, msg models.Message) error
}

// SendVerificationEmail signs a one-time verification token and hands
// the link off to the email queue. Publish failures are logged but do
// not fail the caller: the user can request a resend.
func SendVerificationEmail(
	ctx context.Context,
	log *slog.Logger,
	pub Publisher,
	tokenTTL time.Duration,
	tokenSecret string,
	userID int64,
	baseURL, email string,
) error {
	token, err := newVerificationToken(userID, tokenTTL, tokenSecret)
	if err != nil {
		log.Error("failed to generate verification token", sl.Err(err))
		return err
	}

	msg := models.Message{
		Email:   email,
		Link:    fmt.Sprintf("%s/verify?token=%s", baseURL, token),
		Purpose: purposeEmailVerification,
	}

	if err := pub.SendMessage(ctx, msg); err != nil {
		log.Error("failed to publish verification email", sl.Err(err))
	}

	return nil
}

// ParseVerificationToken returns the user id embedded in a valid,
// unexpired verification token.
func ParseVerificationToken(tokenStr, secret string) (int64, error) {
	const op = "verification.ParseVerificationToken"

	claims := jwt.MapClaims{}

	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%s: unexpected signing method", op)
		}
		return []byte(secret), nil
	})
	if err != nil {
		return 0, fmt.Errorf("%s: failed to parse token: %w", op, err)
	}

	if !parsed.Valid {
		return 0, fmt.Errorf("%s: invalid token", op)
	}

	if purpose, ok := claims["purpose"].(string); !ok || purpose != purposeEmailVerification {
		return 0, fmt.Errorf("%s: invalid token purpose", op)
	}

	expFloat, ok := claims["exp"].(float64)
	if !ok {
		return 0, fmt.Errorf("%s: missing exp claim", op)
	}
	if time.Now().Unix() > int64(expFloat) {
		return 0, fmt.Errorf("%s: token expired", op)
	}

	subFloat, ok := claims["sub"].(float64)
	if !ok {
		return 0, fmt.Errorf("%s: missing sub claim", op)
	}

	return int64(subFloat), nil
}

func newVerificationToken(userID int64, tokenTTL time.Duration, secret string) (string, error) {
	claims := jwt.MapClaims{
		"sub":     userID,
		"purpose": purposeEmailVerification,
		"exp":     time.Now().Add(tokenTTL).Unix(),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
