package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tutor_lms/internal/models"
	"tutor_lms/internal/storage"

	"github.com/redis/go-redis/v9"
)

type RedisRepo struct {
	client *redis.Client
	ttl    time.Duration
}

func New(ctx context.Context, addr, pass string, db int, statsTTL time.Duration) (*RedisRepo, error) {
	const op = "storage.redis.New"

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     pass,
		DB:           db,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &RedisRepo{
		client: client,
		ttl:    statsTTL,
	}, nil
}

func statsKey(userID int64) string {
	return fmt.Sprintf("stats:user:%d", userID)
}

// UserStats returns the cached stats snapshot, or ErrStatsNotCached on
// a miss.
func (r *RedisRepo) UserStats(ctx context.Context, userID int64) (models.UserStats, error) {
	const op = "storage.redis.UserStats"

	raw, err := r.client.Get(ctx, statsKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.UserStats{}, storage.ErrStatsNotCached
		}

		return models.UserStats{}, fmt.Errorf("%s: %w", op, err)
	}

	var stats models.UserStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return models.UserStats{}, fmt.Errorf("%s: %w", op, err)
	}

	return stats, nil
}

func (r *RedisRepo) SetUserStats(ctx context.Context, userID int64, stats models.UserStats) error {
	const op = "storage.redis.SetUserStats"

	raw, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := r.client.Set(ctx, statsKey(userID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// InvalidateUserStats drops the cached snapshot after activity that
// changes it, such as a graded answer.
func (r *RedisRepo) InvalidateUserStats(ctx context.Context, userID int64) error {
	const op = "storage.redis.InvalidateUserStats"

	if err := r.client.Del(ctx, statsKey(userID)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *RedisRepo) Close() {
	r.client.Close()
}
