package ports

import (
	"auth-web-server/internal/model"
	"context"
)

type AuthenticationService interface {
	Login(ctx context.Context, username, password, ipAddress string) (*model.TokensPair, error)
	Refresh(ctx context.Context, refreshToken string) (*model.TokensPair, error)
	Logout(ctx context.Context, subject, refreshToken string) error
	Register(ctx context.Context, username, password, ipAddress string) (*model.TokensPair, error)
}
