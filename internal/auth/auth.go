package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tutor_lms/internal/lib/hash"
	jwtlib "tutor_lms/internal/lib/jwt"
	sl "tutor_lms/internal/lib/logger"
	"tutor_lms/internal/models"
	"tutor_lms/internal/storage"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactiveAccount    = errors.New("inactive account")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUserNotFound       = errors.New("user not found")
)

type Auth struct {
	log         *slog.Logger
	usrSaver    UserSaver
	usrProvider UserProvider
	tokens      *jwtlib.Manager
}

type UserSaver interface {
	SaveUser(ctx context.Context, email string, passHash []byte, firstName, lastName string, role models.Role) (int64, error)
	TouchLastLogin(ctx context.Context, id int64) error
}

type UserProvider interface {
	UserByEmail(ctx context.Context, email string) (models.User, error)
	UserByID(ctx context.Context, id int64) (models.User, error)
}

func New(
	log *slog.Logger,
	userSaver UserSaver,
	userProvider UserProvider,
	tokens *jwtlib.Manager,
) *Auth {
	return &Auth{
		log:         log,
		usrSaver:    userSaver,
		usrProvider: userProvider,
		tokens:      tokens,
	}
}

func (a *Auth) Register(
	ctx context.Context,
	email, password, firstName, lastName string,
	role models.Role,
) (models.User, error) {
	const op = "auth.Register"

	log := a.log.With(slog.String("op", op))

	if role == "" {
		role = models.RoleStudent
	}
	if !role.IsValid() {
		return models.User{}, fmt.Errorf("%s: unknown role %q", op, role)
	}

	passHash, err := hash.Password(password)
	if err != nil {
		log.Error("failed to generate password hash", sl.Err(err))
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	id, err := a.usrSaver.SaveUser(ctx, email, passHash, firstName, lastName, role)
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			log.Warn("user already exists")
			return models.User{}, ErrUserExists
		}

		log.Error("failed to save user", sl.Err(err))
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	user, err := a.usrProvider.UserByID(ctx, id)
	if err != nil {
		log.Error("failed to load created user", sl.Err(err))
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user registered", slog.Int64("uid", user.ID))

	return user, nil
}

// Login checks credentials and returns a fresh token pair. Unknown
// email and wrong password are indistinguishable to the caller.
func (a *Auth) Login(ctx context.Context, email, password string) (models.TokenPair, error) {
	const op = "auth.Login"

	log := a.log.With(slog.String("op", op))

	user, err := a.usrProvider.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("user not found")
			return models.TokenPair{}, ErrInvalidCredentials
		}

		log.Error("failed to get user", sl.Err(err))
		return models.TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	if !hash.Verify(password, user.PassHash) {
		log.Info("invalid credentials")
		return models.TokenPair{}, ErrInvalidCredentials
	}

	if !user.IsActive {
		return models.TokenPair{}, ErrInactiveAccount
	}

	pair, err := a.issuePair(user)
	if err != nil {
		log.Error("failed to issue tokens", sl.Err(err))
		return models.TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	// Best effort: a failed timestamp write must not fail the login.
	if err := a.usrSaver.TouchLastLogin(ctx, user.ID); err != nil {
		log.Warn("failed to update last login", sl.Err(err))
	}

	log.Info("user logged in successfully", slog.Int64("uid", user.ID))

	return pair, nil
}

// Refresh trades a valid refresh token for a brand-new pair. The user
// is re-fetched so a deactivated account cannot keep refreshing.
func (a *Auth) Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error) {
	const op = "auth.Refresh"

	log := a.log.With(slog.String("op", op))

	userID, err := a.tokens.UserID(refreshToken, jwtlib.TypeRefresh)
	if err != nil {
		log.Warn("invalid refresh token", sl.Err(err))
		return models.TokenPair{}, ErrInvalidToken
	}

	user, err := a.usrProvider.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("user not found", slog.Int64("uid", userID))
			return models.TokenPair{}, ErrInvalidToken
		}

		log.Error("failed to load user", sl.Err(err))
		return models.TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	if !user.IsActive {
		log.Warn("inactive account", slog.Int64("uid", userID))
		return models.TokenPair{}, ErrInvalidToken
	}

	pair, err := a.issuePair(user)
	if err != nil {
		log.Error("failed to issue tokens", sl.Err(err))
		return models.TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("refresh successful", slog.Int64("uid", user.ID))

	return pair, nil
}

// Identify resolves an access token to its user.
func (a *Auth) Identify(ctx context.Context, accessToken string) (models.User, error) {
	const op = "auth.Identify"

	log := a.log.With(slog.String("op", op))

	userID, err := a.tokens.UserID(accessToken, jwtlib.TypeAccess)
	if err != nil {
		log.Warn("invalid access token", sl.Err(err))
		return models.User{}, ErrInvalidToken
	}

	user, err := a.usrProvider.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return models.User{}, ErrUserNotFound
		}

		log.Error("failed to load user", sl.Err(err))
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// Logout acknowledges a client-side token discard. Tokens are
// stateless, so there is nothing to invalidate server-side.
func (a *Auth) Logout(ctx context.Context) error {
	a.log.Info("user logged out")
	return nil
}

func (a *Auth) issuePair(user models.User) (models.TokenPair, error) {
	accessToken, err := a.tokens.NewAccessToken(user)
	if err != nil {
		return models.TokenPair{}, err
	}

	refreshToken, err := a.tokens.NewRefreshToken(user)
	if err != nil {
		return models.TokenPair{}, err
	}

	return models.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(a.tokens.AccessTTL().Seconds()),
	}, nil
}
