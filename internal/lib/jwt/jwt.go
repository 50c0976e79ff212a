package jwt

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"tutor_lms/internal/models"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers every verification failure: bad signature,
// expiry, malformed string, and token-type mismatch. Callers get no
// finer detail.
var ErrInvalidToken = errors.New("invalid token")

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// Claims is the signed payload of both token kinds. TokenType keeps
// access and refresh tokens from being used interchangeably.
type Claims struct {
	gojwt.RegisteredClaims
	Email     string `json:"email"`
	Role      string `json:"role,omitempty"`
	TokenType string `json:"type"`
}

type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewManager(secret string, accessTTL, refreshTTL time.Duration) *Manager {
	return &Manager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func (m *Manager) AccessTTL() time.Duration {
	return m.accessTTL
}

// NewAccessToken issues a short-lived token carrying the user's id,
// email and role.
func (m *Manager) NewAccessToken(user models.User) (string, error) {
	const op = "jwt.NewAccessToken"

	now := m.now()
	claims := Claims{
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(m.accessTTL)),
		},
		Email:     user.Email,
		Role:      string(user.Role),
		TokenType: TypeAccess,
	}

	signed, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// NewRefreshToken issues a long-lived token usable only for minting a
// new pair via Refresh.
func (m *Manager) NewRefreshToken(user models.User) (string, error) {
	const op = "jwt.NewRefreshToken"

	now := m.now()
	claims := Claims{
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(m.refreshTTL)),
		},
		Email:     user.Email,
		TokenType: TypeRefresh,
	}

	signed, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// Parse verifies signature, expiry and token type. Any failure resolves
// to ErrInvalidToken.
func (m *Manager) Parse(tokenString, expectedType string) (*Claims, error) {
	claims := &Claims{}

	parsed, err := gojwt.ParseWithClaims(tokenString, claims, func(t *gojwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*gojwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	},
		gojwt.WithTimeFunc(m.now),
		gojwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if !parsed.Valid {
		return nil, ErrInvalidToken
	}

	if claims.TokenType != expectedType {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// UserID runs full verification before extracting the subject claim.
func (m *Manager) UserID(tokenString, expectedType string) (int64, error) {
	claims, err := m.Parse(tokenString, expectedType)
	if err != nil {
		return 0, err
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}

	return id, nil
}
