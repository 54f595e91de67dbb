package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"love-sim-server/internal/models"
)

// Compile-time check to ensure implementation satisfies the interface.
var _ TokenRepository = (*redisTokenRepository)(nil)

type redisTokenRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisTokenRepository создает Redis-хранилище выданных токенов.
// Для каждой пары токенов хранятся два ключа:
// access_uuid:{AccessUUID} -> UserID и refresh_uuid:{RefreshUUID} -> UserID,
// TTL ключей совпадает со сроком жизни соответствующего токена.
func NewRedisTokenRepository(client *redis.Client, logger *zap.Logger) TokenRepository {
	return &redisTokenRepository{
		client: client,
		logger: logger.Named("RedisTokenRepo"),
	}
}

func accessKey(accessUUID string) string   { return "access_uuid:" + accessUUID }
func refreshKey(refreshUUID string) string { return "refresh_uuid:" + refreshUUID }

func (r *redisTokenRepository) SetToken(ctx context.Context, userID uuid.UUID, td *models.TokenDetails) error {
	now := time.Now()
	accessTTL := time.Unix(td.AtExpires, 0).Sub(now)
	refreshTTL := time.Unix(td.RtExpires, 0).Sub(now)
	userIDStr := userID.String()

	pipe := r.client.Pipeline()
	pipe.Set(ctx, accessKey(td.AccessUUID), userIDStr, accessTTL)
	pipe.Set(ctx, refreshKey(td.RefreshUUID), userIDStr, refreshTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Failed to set token details in redis",
			zap.Error(err),
			zap.String("userID", userIDStr))
		return fmt.Errorf("failed to set token details in redis: %w", err)
	}

	r.logger.Debug("Tokens stored in redis",
		zap.String("userID", userIDStr),
		zap.Duration("accessTTL", accessTTL),
		zap.Duration("refreshTTL", refreshTTL))
	return nil
}

func (r *redisTokenRepository) DeleteTokens(ctx context.Context, accessUUID, refreshUUID string) (int64, error) {
	keys := make([]string, 0, 2)
	if accessUUID != "" {
		keys = append(keys, accessKey(accessUUID))
	}
	if refreshUUID != "" {
		keys = append(keys, refreshKey(refreshUUID))
	}
	if len(keys) == 0 {
		r.logger.Warn("DeleteTokens called with no UUIDs")
		return 0, nil
	}

	deleted, err := r.client.Del(ctx, keys...).Result()
	if err != nil {
		r.logger.Error("Failed to delete tokens from redis", zap.Error(err))
		return 0, fmt.Errorf("failed to delete tokens from redis: %w", err)
	}

	r.logger.Debug("Tokens deleted from redis", zap.Int64("deletedCount", deleted))
	return deleted, nil
}

func (r *redisTokenRepository) GetUserIDByAccessUUID(ctx context.Context, accessUUID string) (uuid.UUID, error) {
	return r.getUserID(ctx, accessKey(accessUUID))
}

func (r *redisTokenRepository) GetUserIDByRefreshUUID(ctx context.Context, refreshUUID string) (uuid.UUID, error) {
	return r.getUserID(ctx, refreshKey(refreshUUID))
}

func (r *redisTokenRepository) getUserID(ctx context.Context, key string) (uuid.UUID, error) {
	userIDStr, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			r.logger.Debug("Token not found in redis", zap.String("key", key))
			return uuid.Nil, models.ErrTokenNotFound
		}
		r.logger.Error("Failed to get token from redis", zap.Error(err), zap.String("key", key))
		return uuid.Nil, fmt.Errorf("failed to get token from redis: %w", err)
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		// Данные в Redis повреждены
		r.logger.Error("Failed to parse userID from redis data",
			zap.Error(err),
			zap.String("key", key),
			zap.String("value", userIDStr))
		return uuid.Nil, fmt.Errorf("corrupted userID data in redis for key %s: %w", key, err)
	}
	return userID, nil
}
