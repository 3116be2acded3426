package repository

import (
	"context"
	"sync"
	"time"
)

// MemoryRevocationRepository : множество отозванных идентификаторов токенов
// в памяти процесса. Вместе с идентификатором хранится срок действия самого
// токена: после него запись бессмысленна и вычищается лениво, так что
// множество не растёт бесконечно под постоянным потоком logout-ов.
type MemoryRevocationRepository struct {
	mu      sync.Mutex
	revoked map[string]time.Time

	now func() time.Time
}

func NewMemoryRevocationRepository() *MemoryRevocationRepository {
	return &MemoryRevocationRepository{
		revoked: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (r *MemoryRevocationRepository) Add(_ context.Context, tokenID string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if !expiresAt.After(now) {
		// токен уже истёк — хранить отзыв незачем
		return nil
	}

	r.revoked[tokenID] = expiresAt
	r.purgeLocked(now)
	return nil
}

func (r *MemoryRevocationRepository) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	expiresAt, ok := r.revoked[tokenID]
	if !ok {
		return false, nil
	}
	if !expiresAt.After(r.now()) {
		delete(r.revoked, tokenID)
		return false, nil
	}
	return true, nil
}

func (r *MemoryRevocationRepository) purgeLocked(now time.Time) {
	for id, expiresAt := range r.revoked {
		if !expiresAt.After(now) {
			delete(r.revoked, id)
		}
	}
}
