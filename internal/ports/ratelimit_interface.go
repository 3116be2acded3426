package ports

import (
	"auth-web-server/internal/model"
	"context"
	"net/http"
)

// RateLimitBackend : хранилище состояния ограничителя (окна запросов и блокировки).
// Реализация обязана быть безопасной при конкурентных вызовах по одному ключу:
// проверка и запись новой отметки времени выполняются как одна атомарная операция.
// Backend никогда не возвращает ошибку вызывающему — недоступность разделяемого
// хранилища разрешается локально согласно политике fail-open/fail-closed.
type RateLimitBackend interface {
	// Check возвращает (разрешено, остаток квоты, секунд до повтора).
	// Отклонённая попытка не записывается в окно.
	Check(ctx context.Context, key string, maxRequests, windowSeconds int) (bool, int, int)

	// Block безусловно выставляет блокировку ключа до now + durationSeconds
	Block(ctx context.Context, key string, durationSeconds int)

	// IsBlocked возвращает признак блокировки и остаток в секундах
	IsBlocked(ctx context.Context, key string) (bool, int)
}

// RateLimiter : фасад над backend-ом с эскалацией в блокировку
type RateLimiter interface {
	CheckRateLimit(ctx context.Context, key string, policy model.LimitPolicy) (allowed bool, remaining int, retryAfter int)
	GetClientKey(r *http.Request, prefix string) string
	PolicyFor(name string) model.LimitPolicy
	Enabled() bool
}
