package service

import (
	"auth-web-server/internal/audit"
	"auth-web-server/internal/model"
	"auth-web-server/internal/ports"
	"auth-web-server/internal/repository"
	"auth-web-server/internal/security"
	"context"
	"errors"
	"fmt"
	"unicode"

	"github.com/google/uuid"
)

type AuthenticationService struct {
	userRepository ports.UserRepository
	tokenService   security.TokenService
	auditLog       *audit.Logger
}

func NewAuthenticationService(
	userRepository ports.UserRepository,
	tokenService security.TokenService,
	auditLog *audit.Logger,
) *AuthenticationService {
	return &AuthenticationService{
		userRepository: userRepository,
		tokenService:   tokenService,
		auditLog:       auditLog,
	}
}

// Login проверяет учётные данные и выпускает пару токенов.
// Несуществующий пользователь и неверный пароль дают одинаковую ошибку.
func (s *AuthenticationService) Login(ctx context.Context, username, password, ipAddress string) (*model.TokensPair, error) {
	user, err := s.userRepository.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.auditLog.Log("login_failed", username, map[string]any{"ip": ipAddress})
			return nil, fmt.Errorf("неверный логин или пароль")
		}
		return nil, fmt.Errorf("ошибка поиска пользователя: %w", err)
	}

	if !security.CheckPassword(password, user.PasswordHash) {
		s.auditLog.Log("login_failed", username, map[string]any{"ip": ipAddress})
		return nil, fmt.Errorf("неверный логин или пароль")
	}

	tokens, err := s.tokenService.CreateTokenPair(user.Username, user.Role)
	if err != nil {
		return nil, fmt.Errorf("ошибка генерации токенов: %w", err)
	}

	s.auditLog.Log("login", username, map[string]any{"ip": ipAddress, "role": user.Role})
	return tokens, nil
}

// Refresh ротирует пару по действующему refresh токену.
// Предъявленный refresh токен одноразовый: после успешной ротации
// повторное предъявление отклоняется.
func (s *AuthenticationService) Refresh(ctx context.Context, refreshToken string) (*model.TokensPair, error) {
	tokens, err := s.tokenService.Rotate(ctx, refreshToken)
	if err != nil {
		return nil, security.ErrInvalidCredential
	}

	s.auditLog.Log("token_rotated", "", nil)
	return tokens, nil
}

// Logout отзывает refresh токен, если тот передан. Повторный logout безвреден.
func (s *AuthenticationService) Logout(ctx context.Context, subject, refreshToken string) error {
	if refreshToken != "" {
		s.tokenService.Revoke(ctx, refreshToken)
	}
	s.auditLog.Log("logout", subject, nil)
	return nil
}

// Register создаёт пользователя с самой ограниченной ролью и сразу
// выпускает для него пару токенов
func (s *AuthenticationService) Register(ctx context.Context, username, password, ipAddress string) (*model.TokensPair, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	if _, err := s.userRepository.FindByUsername(ctx, username); err == nil {
		return nil, fmt.Errorf("пользователь уже существует")
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("ошибка поиска пользователя: %w", err)
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("не удалось создать хэш пароля: %w", err)
	}

	user := &model.User{
		UUID:         uuid.New().String(),
		Username:     username,
		Role:         model.RoleGP,
		PasswordHash: hash,
	}

	createdUser, err := s.userRepository.CreateUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("ошибка сохранения пользователя: %w", err)
	}

	tokens, err := s.tokenService.CreateTokenPair(createdUser.Username, createdUser.Role)
	if err != nil {
		return nil, fmt.Errorf("ошибка генерации токенов: %w", err)
	}

	s.auditLog.Log("register", username, map[string]any{"ip": ipAddress})
	return tokens, nil
}

func validateUsername(username string) error {
	if len(username) < 3 || len(username) > 50 {
		return fmt.Errorf("логин должен быть от 3 до 50 символов")
	}
	for _, c := range username {
		if !unicode.IsLetter(c) && !unicode.IsDigit(c) {
			return fmt.Errorf("логин должен содержать только буквы и цифры")
		}
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 6 || len(password) > 100 {
		return fmt.Errorf("пароль должен быть от 6 до 100 символов")
	}
	return nil
}
