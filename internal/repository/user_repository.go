package repository

import (
	"auth-web-server/config"
	"auth-web-server/internal/model"
	"auth-web-server/internal/util"
	"context"
	"database/sql"
	"errors"
)

var ErrUserNotFound = errors.New("пользователь не найден")

// UserRepository : слой учётных записей. Ядро безопасности лишь потребляет
// identity при логине, поэтому поверхность минимальна.
type UserRepository struct {
	*config.Database
}

func NewUserRepository(database *config.Database) *UserRepository {
	return &UserRepository{database}
}

// FindByUsername : ищет пользователя по имени
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `SELECT uuid, username, role, password_hash, created_at FROM users WHERE username = $1`

	var user model.User
	err := r.DB.GetContext(ctx, &user, query, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, util.LogError("[UserRepo] ошибка при выполнении запроса", err)
	}

	return &user, nil
}

// CreateUser : сохраняет нового пользователя
func (r *UserRepository) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	query := `
	INSERT INTO users (uuid, username, role, password_hash)
	VALUES ($1, $2, $3, $4)
	RETURNING uuid, username, role, created_at
	`

	createdUser := &model.User{}
	err := r.DB.QueryRowxContext(ctx, query, user.UUID, user.Username, user.Role, user.PasswordHash).
		Scan(&createdUser.UUID, &createdUser.Username, &createdUser.Role, &createdUser.CreatedAt)

	if err != nil {
		return nil, util.LogError("[UserRepo] ошибка вставки данных в БД", err)
	}

	return createdUser, nil
}
