package repository

import (
	"auth-web-server/config"
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisRateLimitRepository : разделяемый backend ограничителя поверх Redis.
// Окно запросов — сортированное множество с отметкой времени в качестве
// score, блокировка — ключ с TTL. Сам limiter состояния не держит, им
// владеет Redis, поэтому несколько инстансов сервера делят одни квоты.
type RedisRateLimitRepository struct {
	client   *config.RedisClient
	timeout  time.Duration
	failOpen bool
}

func NewRedisRateLimitRepository(client *config.RedisClient, timeout time.Duration, failOpen bool) *RedisRateLimitRepository {
	if timeout <= 0 {
		timeout = 300 * time.Millisecond
	}
	return &RedisRateLimitRepository{
		client:   client,
		timeout:  timeout,
		failOpen: failOpen,
	}
}

func (r *RedisRateLimitRepository) Check(ctx context.Context, key string, maxRequests, windowSeconds int) (bool, int, int) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if blocked, remaining := r.isBlocked(ctx, key); blocked {
		return false, 0, remaining
	}

	now := time.Now()
	windowStart := now.Add(-time.Duration(windowSeconds) * time.Second)
	member := uuid.New().String()

	pipe := r.client.Client.Pipeline()
	pipe.ZRemRangeByScore(ctx, r.windowKey(key), "0", formatScore(windowStart))
	countCmd := pipe.ZCard(ctx, r.windowKey(key))
	pipe.ZAdd(ctx, r.windowKey(key), redis.Z{Score: scoreOf(now), Member: member})
	pipe.Expire(ctx, r.windowKey(key), time.Duration(windowSeconds+1)*time.Second)

	if _, err := pipe.Exec(ctx); err != nil {
		return r.unavailable(key, err, windowSeconds, maxRequests)
	}

	count := int(countCmd.Val())
	if count >= maxRequests {
		// квота уже была исчерпана — добавленную отметку забираем обратно,
		// отклонённая попытка не должна учитываться
		if err := r.client.Client.ZRem(ctx, r.windowKey(key), member).Err(); err != nil {
			log.Printf("ошибка отката отметки в Redis: %v", err)
		}
		return false, 0, windowSeconds
	}

	return true, maxRequests - count - 1, 0
}

func (r *RedisRateLimitRepository) Block(ctx context.Context, key string, durationSeconds int) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	err := r.client.Client.SetEx(ctx, r.blockKey(key), 1, time.Duration(durationSeconds)*time.Second).Err()
	if err != nil {
		log.Printf("ошибка установки блокировки в Redis для %s: %v", key, err)
		return
	}
	log.Printf("ключ %s заблокирован на %d секунд", key, durationSeconds)
}

func (r *RedisRateLimitRepository) IsBlocked(ctx context.Context, key string) (bool, int) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.isBlocked(ctx, key)
}

func (r *RedisRateLimitRepository) isBlocked(ctx context.Context, key string) (bool, int) {
	ttl, err := r.client.Client.TTL(ctx, r.blockKey(key)).Result()
	if err != nil {
		log.Printf("ошибка чтения блокировки из Redis для %s: %v", key, err)
		return false, 0
	}
	if ttl > 0 {
		return true, int(ttl.Seconds())
	}
	return false, 0
}

// unavailable : разделяемое хранилище недоступно, решение принимает
// настроенная политика fail-open/fail-closed
func (r *RedisRateLimitRepository) unavailable(key string, err error, windowSeconds, maxRequests int) (bool, int, int) {
	log.Printf("Redis недоступен при проверке лимита для %s: %v", key, err)
	if r.failOpen {
		return true, maxRequests - 1, 0
	}
	return false, 0, windowSeconds
}

func (r *RedisRateLimitRepository) windowKey(key string) string {
	return fmt.Sprintf("ratelimit:%s", key)
}

func (r *RedisRateLimitRepository) blockKey(key string) string {
	return fmt.Sprintf("ratelimit:block:%s", key)
}

func scoreOf(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

func formatScore(t time.Time) string {
	return strconv.FormatFloat(scoreOf(t), 'f', -1, 64)
}
