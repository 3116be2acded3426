package repository

import (
	"auth-web-server/config"
	"auth-web-server/internal/util"
	"context"
	"fmt"
	"time"
)

// RedisRevocationRepository : разделяемое множество отозванных токенов.
// TTL записи равен остатку жизни токена, Redis вычищает её сам.
type RedisRevocationRepository struct {
	client *config.RedisClient
}

func NewRedisRevocationRepository(client *config.RedisClient) *RedisRevocationRepository {
	return &RedisRevocationRepository{client: client}
}

func (r *RedisRevocationRepository) Add(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}

	if err := r.client.Client.Set(ctx, r.key(tokenID), 1, ttl).Err(); err != nil {
		return util.LogError("ошибка записи отзыва в Redis", err)
	}
	return nil
}

func (r *RedisRevocationRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Client.Exists(ctx, r.key(tokenID)).Result()
	if err != nil {
		return false, util.LogError("ошибка чтения отзыва из Redis", err)
	}
	return n > 0, nil
}

func (r *RedisRevocationRepository) key(tokenID string) string {
	return fmt.Sprintf("revoked:%s", tokenID)
}
