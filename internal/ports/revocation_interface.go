package ports

import (
	"context"
	"time"
)

// RevocationStore : множество отозванных идентификаторов токенов.
// Запись живёт не дольше собственного срока действия токена:
// отозванный токен после expires_at и так невалиден.
type RevocationStore interface {
	Add(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
