package repository

import (
	"context"
	"sync"
	"time"
)

// MemoryRateLimitRepository : in-memory backend ограничителя.
// Скользящее окно хранится как срез отметок времени на ключ,
// блокировки — как время их окончания. Весь Check выполняется под одним
// мьютексом: подрезка, сравнение с квотой и запись новой отметки --
// одна критическая секция, иначе два конкурентных запроса могли бы
// одновременно занять последний слот.
type MemoryRateLimitRepository struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	blocked  map[string]time.Time

	// подменяется в тестах
	now func() time.Time
}

func NewMemoryRateLimitRepository() *MemoryRateLimitRepository {
	return &MemoryRateLimitRepository{
		requests: make(map[string][]time.Time),
		blocked:  make(map[string]time.Time),
		now:      time.Now,
	}
}

func (r *MemoryRateLimitRepository) Check(_ context.Context, key string, maxRequests, windowSeconds int) (bool, int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()

	if blocked, remaining := r.isBlockedLocked(key, now); blocked {
		return false, 0, remaining
	}

	cutoff := now.Add(-time.Duration(windowSeconds) * time.Second)
	kept := r.requests[key][:0]
	for _, ts := range r.requests[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	r.requests[key] = kept

	if len(kept) >= maxRequests {
		// отклонённая попытка в окно не записывается
		return false, 0, windowSeconds
	}

	r.requests[key] = append(kept, now)
	return true, maxRequests - len(kept) - 1, 0
}

func (r *MemoryRateLimitRepository) Block(_ context.Context, key string, durationSeconds int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blocked[key] = r.now().Add(time.Duration(durationSeconds) * time.Second)
}

func (r *MemoryRateLimitRepository) IsBlocked(_ context.Context, key string) (bool, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.isBlockedLocked(key, r.now())
}

// isBlockedLocked удаляет истёкшую блокировку лениво, при первом обращении
func (r *MemoryRateLimitRepository) isBlockedLocked(key string, now time.Time) (bool, int) {
	until, ok := r.blocked[key]
	if !ok {
		return false, 0
	}
	remaining := until.Sub(now)
	if remaining <= 0 {
		delete(r.blocked, key)
		return false, 0
	}
	// округление вверх, чтобы не подсказать повтор на секунду раньше времени
	return true, int((remaining + time.Second - 1) / time.Second)
}
