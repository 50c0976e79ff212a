package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	sl "tutor_lms/internal/lib/logger"
	"tutor_lms/internal/lib/verification"
	"tutor_lms/internal/models"
	"tutor_lms/internal/storage"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already taken")
	ErrEmptyUpdate    = errors.New("no fields to update")
)

type UserProvider interface {
	UserByID(ctx context.Context, id int64) (models.User, error)
	Users(ctx context.Context, offset, limit int, activeOnly bool) ([]models.User, error)
	CountUsers(ctx context.Context) (total, active int, err error)
}

type UserUpdater interface {
	UpdateUser(ctx context.Context, id int64, upd models.UserUpdate) (models.User, error)
	SetUserActive(ctx context.Context, id int64, active bool) error
	SetEmailVerified(ctx context.Context, id int64) error
	DeleteUser(ctx context.Context, id int64) error
}

type StatsSource interface {
	SessionAggregates(ctx context.Context, userID int64) (models.UserStats, error)
}

// StatsCache fronts the stats aggregation. Misses return
// storage.ErrStatsNotCached.
type StatsCache interface {
	UserStats(ctx context.Context, userID int64) (models.UserStats, error)
	SetUserStats(ctx context.Context, userID int64, stats models.UserStats) error
}

type Service struct {
	log         *slog.Logger
	usrProvider UserProvider
	usrUpdater  UserUpdater
	statsSource StatsSource
	statsCache  StatsCache
}

func New(
	log *slog.Logger,
	userProvider UserProvider,
	userUpdater UserUpdater,
	statsSource StatsSource,
	statsCache StatsCache,
) *Service {
	return &Service{
		log:         log,
		usrProvider: userProvider,
		usrUpdater:  userUpdater,
		statsSource: statsSource,
		statsCache:  statsCache,
	}
}

func (s *Service) Profile(ctx context.Context, userID int64) (models.User, error) {
	const op = "users.Profile"

	user, err := s.usrProvider.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return models.User{}, ErrUserNotFound
		}

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID int64, upd models.UserUpdate) (models.User, error) {
	const op = "users.UpdateProfile"

	log := s.log.With(slog.String("op", op))

	if upd.IsEmpty() {
		return models.User{}, ErrEmptyUpdate
	}

	user, err := s.usrUpdater.UpdateUser(ctx, userID, upd)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrUserNotFound):
			return models.User{}, ErrUserNotFound
		case errors.Is(err, storage.ErrUserExists):
			return models.User{}, ErrDuplicateEmail
		}

		log.Error("failed to update user", sl.Err(err))
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("profile updated", slog.Int64("uid", userID))

	return user, nil
}

func (s *Service) Deactivate(ctx context.Context, userID int64) error {
	const op = "users.Deactivate"

	if err := s.usrUpdater.SetUserActive(ctx, userID, false); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user deactivated", slog.Int64("uid", userID))

	return nil
}

func (s *Service) Activate(ctx context.Context, userID int64) error {
	const op = "users.Activate"

	if err := s.usrUpdater.SetUserActive(ctx, userID, true); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Delete removes the account and all of its test history. The store
// runs this as one transaction.
func (s *Service) Delete(ctx context.Context, userID int64) error {
	const op = "users.Delete"

	if err := s.usrUpdater.DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return ErrUserNotFound
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user deleted", slog.Int64("uid", userID))

	return nil
}

// VerifyEmail marks a user verified from a signed verification token.
func (s *Service) VerifyEmail(ctx context.Context, token, secret string) error {
	const op = "users.VerifyEmail"

	log := s.log.With(slog.String("op", op))

	userID, err := verification.ParseVerificationToken(token, secret)
	if err != nil {
		log.Warn("invalid verification token", sl.Err(err))
		return err
	}

	if err := s.usrUpdater.SetEmailVerified(ctx, userID); err != nil {
		log.Error("failed to mark email verified", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("email verified", slog.Int64("uid", userID))

	return nil
}

func (s *Service) List(ctx context.Context, offset, limit int, activeOnly bool) ([]models.User, error) {
	const op = "users.List"

	if limit <= 0 || limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	users, err := s.usrProvider.Users(ctx, offset, limit, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return users, nil
}

func (s *Service) Counts(ctx context.Context) (total, active int, err error) {
	const op = "users.Counts"

	total, active, err = s.usrProvider.CountUsers(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}

	return total, active, nil
}

// Stats serves the per-user rollup, cache first. Cache trouble only
// costs a recount, never the request.
func (s *Service) Stats(ctx context.Context, userID int64) (models.UserStats, error) {
	const op = "users.Stats"

	log := s.log.With(slog.String("op", op))

	if s.statsCache != nil {
		stats, err := s.statsCache.UserStats(ctx, userID)
		if err == nil {
			return stats, nil
		}
		if !errors.Is(err, storage.ErrStatsNotCached) {
			log.Warn("stats cache read failed", sl.Err(err))
		}
	}

	stats, err := s.statsSource.SessionAggregates(ctx, userID)
	if err != nil {
		return models.UserStats{}, fmt.Errorf("%s: %w", op, err)
	}

	// Trend analysis is not implemented; the field is a fixed
	// placeholder until the analytics work lands.
	stats.ImprovementTrend = "stable"

	if s.statsCache != nil {
		if err := s.statsCache.SetUserStats(ctx, userID, stats); err != nil {
			log.Warn("stats cache write failed", sl.Err(err))
		}
	}

	return stats, nil
}
