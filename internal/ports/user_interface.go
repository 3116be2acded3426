package ports

import (
	"auth-web-server/internal/model"
	"context"
)

// UserRepository : слой учётных записей.
// Ядру безопасности от него нужны только поиск при логине и создание при регистрации.
type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
}
