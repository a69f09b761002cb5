package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const revokedKeyPrefix = "revoked:"

func InitRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// RedisRevocations keeps each fingerprint under a key that expires together
// with the token, so the set never needs pruning.
type RedisRevocations struct {
	rdb    redis.Cmdable
	logger *zap.Logger
	now    func() time.Time
}

func NewRedisRevocationRepository(logger *zap.Logger, rdb redis.Cmdable) *RedisRevocations {
	return &RedisRevocations{
		rdb:    rdb,
		logger: logger,
		now:    time.Now,
	}
}

func (r *RedisRevocations) Revoke(ctx context.Context, fingerprint string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(r.now())
	if ttl <= 0 {
		// already past its expiry, validation rejects it anyway
		return nil
	}
	// rounded up: the key must not disappear before the token expires
	ttl = ttl.Truncate(time.Second) + time.Second
	if err := r.rdb.Set(ctx, revokedKeyPrefix+fingerprint, 1, ttl).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (r *RedisRevocations) IsRevoked(ctx context.Context, fingerprint string) (bool, error) {
	n, err := r.rdb.Exists(ctx, revokedKeyPrefix+fingerprint).Result()
	if err != nil {
		return false, fmt.Errorf("redis error: %w", err)
	}
	return n > 0, nil
}
