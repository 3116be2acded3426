package repository

import (
	"auth-web-server/config"
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*config.RedisClient, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	client := &config.RedisClient{
		Client: redis.NewClient(&redis.Options{Addr: server.Addr()}),
	}
	t.Cleanup(func() { client.Client.Close() })

	return client, server
}

// клиент до адреса, на котором никто не слушает
func unreachableRedis(t *testing.T) *config.RedisClient {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { client.Close() })

	return &config.RedisClient{Client: client}
}

func TestRedisRateLimitCheck(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewRedisRateLimitRepository(client, time.Second, false)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, remaining, retryAfter := repo.Check(ctx, "login:10.0.0.1", 3, 60)
		assert.True(t, allowed)
		assert.Equal(t, 2-i, remaining)
		assert.Equal(t, 0, retryAfter)
	}

	allowed, remaining, retryAfter := repo.Check(ctx, "login:10.0.0.1", 3, 60)
	assert.False(t, allowed)
	assert.Equal(t, 0, remaining)
	assert.Equal(t, 60, retryAfter)
}

func TestRedisRateLimitOverflowRetracted(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewRedisRateLimitRepository(client, time.Second, false)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		repo.Check(ctx, "login:10.0.0.2", 3, 60)
	}

	// отклонённые попытки откатываются: в окне остаются только допущенные
	for i := 0; i < 5; i++ {
		allowed, _, _ := repo.Check(ctx, "login:10.0.0.2", 3, 60)
		assert.False(t, allowed)
	}

	count, err := client.Client.ZCard(ctx, "ratelimit:login:10.0.0.2").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestRedisRateLimitBlock(t *testing.T) {
	client, server := newTestRedis(t)
	repo := NewRedisRateLimitRepository(client, time.Second, false)
	ctx := context.Background()

	repo.Block(ctx, "login:10.0.0.3", 300)

	blocked, remaining := repo.IsBlocked(ctx, "login:10.0.0.3")
	assert.True(t, blocked)
	assert.Equal(t, 300, remaining)

	allowed, _, retryAfter := repo.Check(ctx, "login:10.0.0.3", 5, 60)
	assert.False(t, allowed)
	assert.Equal(t, 300, retryAfter)

	// остаток блокировки отдаётся по TTL ключа
	server.FastForward(100 * time.Second)
	blocked, remaining = repo.IsBlocked(ctx, "login:10.0.0.3")
	assert.True(t, blocked)
	assert.Equal(t, 200, remaining)

	server.FastForward(201 * time.Second)
	blocked, _ = repo.IsBlocked(ctx, "login:10.0.0.3")
	assert.False(t, blocked)

	allowed, _, _ = repo.Check(ctx, "login:10.0.0.3", 5, 60)
	assert.True(t, allowed)
}

func TestRedisRateLimitFailOpen(t *testing.T) {
	repo := NewRedisRateLimitRepository(unreachableRedis(t), 100*time.Millisecond, true)

	allowed, remaining, retryAfter := repo.Check(context.Background(), "login:10.0.0.4", 5, 60)

	assert.True(t, allowed)
	assert.Equal(t, 4, remaining)
	assert.Equal(t, 0, retryAfter)
}

func TestRedisRateLimitFailClosed(t *testing.T) {
	repo := NewRedisRateLimitRepository(unreachableRedis(t), 100*time.Millisecond, false)

	allowed, remaining, retryAfter := repo.Check(context.Background(), "login:10.0.0.5", 5, 60)

	assert.False(t, allowed)
	assert.Equal(t, 0, remaining)
	assert.Equal(t, 60, retryAfter)
}
