package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisRevocationAddAndCheck(t *testing.T) {
	client, server := newTestRedis(t)
	repo := NewRedisRevocationRepository(client)
	ctx := context.Background()

	revoked, err := repo.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, repo.Add(ctx, "jti-1", time.Now().Add(time.Hour)))

	revoked, err = repo.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	// запись живёт не дольше самого токена
	ttl := server.TTL("revoked:jti-1")
	assert.Greater(t, ttl, 59*time.Minute)
	assert.LessOrEqual(t, ttl, time.Hour)
}

func TestRedisRevocationExpiredTokenNotStored(t *testing.T) {
	client, server := newTestRedis(t)
	repo := NewRedisRevocationRepository(client)
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx, "jti-expired", time.Now().Add(-time.Minute)))

	revoked, err := repo.IsRevoked(ctx, "jti-expired")
	require.NoError(t, err)
	assert.False(t, revoked)
	assert.False(t, server.Exists("revoked:jti-expired"))
}

func TestRedisRevocationEntryExpires(t *testing.T) {
	client, server := newTestRedis(t)
	repo := NewRedisRevocationRepository(client)
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx, "jti-short", time.Now().Add(time.Minute)))

	server.FastForward(2 * time.Minute)

	revoked, err := repo.IsRevoked(ctx, "jti-short")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRedisRevocationUnavailable(t *testing.T) {
	repo := NewRedisRevocationRepository(unreachableRedis(t))
	ctx := context.Background()

	err := repo.Add(ctx, "jti-1", time.Now().Add(time.Hour))
	assert.Error(t, err)

	// ошибку отдаём наверх: решение fail-closed принимает проверка токена
	_, err = repo.IsRevoked(ctx, "jti-1")
	assert.Error(t, err)
}
