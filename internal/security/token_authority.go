package security

import (
	"auth-web-server/config"
	"auth-web-server/internal/model"
	"auth-web-server/internal/ports"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidCredential : единственная ошибка проверки токена.
// Причина (подпись, срок, отзыв, не тот вид) наружу не сообщается,
// чтобы не давать атакующему оракул.
var ErrInvalidCredential = errors.New("невалидный токен")

// Claims : полезная нагрузка самоподписанного токена
type Claims struct {
	Role string `json:"role"`
	// Kind присутствует только у refresh токенов
	Kind string `json:"type,omitempty"`
	jwt.RegisteredClaims
}

// TokenService : операции над токенами, используемые сервисами и middleware
type TokenService interface {
	CreateAccessToken(subject, role string, ttl time.Duration) (string, error)
	CreateRefreshToken(subject, role string, ttl time.Duration) (string, error)
	CreateTokenPair(subject, role string) (*model.TokensPair, error)
	Verify(ctx context.Context, tokenStr string, kind string) (*Claims, error)
	Revoke(ctx context.Context, tokenStr string) bool
	Rotate(ctx context.Context, refreshToken string) (*model.TokensPair, error)
}

// TokenAuthority выпускает, проверяет, ротирует и отзывает самоподписанные
// токены. Состояние на сервере не хранится, кроме множества отозванных
// идентификаторов в RevocationStore.
type TokenAuthority struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	leeway        time.Duration
	issuer        string
	revoked       ports.RevocationStore
}

func NewTokenAuthority(cfg *config.JWTConfig, revoked ports.RevocationStore) (*TokenAuthority, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("не задан секретный ключ подписи токенов")
	}

	accessTTL, err := time.ParseDuration(cfg.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга access_token_ttl: %w", err)
	}
	refreshTTL, err := time.ParseDuration(cfg.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга refresh_token_ttl: %w", err)
	}

	leeway := 30 * time.Second
	if cfg.Leeway != "" {
		leeway, err = time.ParseDuration(cfg.Leeway)
		if err != nil {
			return nil, fmt.Errorf("ошибка парсинга leeway: %w", err)
		}
	}

	return &TokenAuthority{
		accessSecret:  []byte(cfg.SecretKey),
		refreshSecret: refreshSecret(cfg),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		leeway:        leeway,
		issuer:        cfg.Issuer,
		revoked:       revoked,
	}, nil
}

// refreshSecret : refresh токены подписываются отдельным секретом, иначе
// украденный refresh токен позволял бы синтезировать access токены и наоборот.
// Если отдельный ключ не задан, он выводится из основного через HMAC.
func refreshSecret(cfg *config.JWTConfig) []byte {
	if cfg.RefreshSecretKey != "" {
		return []byte(cfg.RefreshSecretKey)
	}
	mac := hmac.New(sha256.New, []byte(cfg.SecretKey))
	mac.Write([]byte("refresh-token-secret"))
	return mac.Sum(nil)
}

func (s *TokenAuthority) secretFor(kind string) []byte {
	if kind == model.TokenKindRefresh {
		return s.refreshSecret
	}
	return s.accessSecret
}

func (s *TokenAuthority) CreateAccessToken(subject, role string, ttl time.Duration) (string, error) {
	return s.createToken(subject, role, model.TokenKindAccess, ttl)
}

func (s *TokenAuthority) CreateRefreshToken(subject, role string, ttl time.Duration) (string, error) {
	return s.createToken(subject, role, model.TokenKindRefresh, ttl)
}

func (s *TokenAuthority) createToken(subject, role, kind string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        uuid.New().String(),
		},
	}
	if kind == model.TokenKindRefresh {
		claims.Kind = model.TokenKindRefresh
	}

	jwtToken := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := jwtToken.SignedString(s.secretFor(kind))
	if err != nil {
		return "", fmt.Errorf("ошибка подписи токена: %w", err)
	}
	return signed, nil
}

// CreateTokenPair выпускает новую пару с настроенными TTL
func (s *TokenAuthority) CreateTokenPair(subject, role string) (*model.TokensPair, error) {
	accessToken, err := s.CreateAccessToken(subject, role, s.accessTTL)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.CreateRefreshToken(subject, role, s.refreshTTL)
	if err != nil {
		return nil, err
	}

	return &model.TokensPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    int(s.accessTTL.Seconds()),
	}, nil
}

// parseAndValidate проверяет подпись, срок действия и вид токена,
// не заглядывая в множество отозванных
func (s *TokenAuthority) parseAndValidate(tokenStr string, kind string) (*Claims, error) {
	var claims = &Claims{}

	jwtToken, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Header["alg"] != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("неверный способ подписи токена: %v", token.Header["alg"])
		}
		return s.secretFor(kind), nil
	}, jwt.WithLeeway(s.leeway))

	if err != nil || !jwtToken.Valid {
		return nil, ErrInvalidCredential
	}

	// refresh токен обязан нести дискриминатор вида,
	// access токен не должен проходить как refresh и наоборот
	if kind == model.TokenKindRefresh && claims.Kind != model.TokenKindRefresh {
		return nil, ErrInvalidCredential
	}
	if claims.Kind != "" && claims.Kind != kind {
		return nil, ErrInvalidCredential
	}
	if claims.ID == "" {
		return nil, ErrInvalidCredential
	}

	return claims, nil
}

// Verify проверяет токен ожидаемого вида и возвращает его claims.
// Любая причина отказа схлопывается в ErrInvalidCredential.
func (s *TokenAuthority) Verify(ctx context.Context, tokenStr string, kind string) (*Claims, error) {
	claims, err := s.parseAndValidate(tokenStr, kind)
	if err != nil {
		return nil, ErrInvalidCredential
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		// недоступность хранилища отзыва трактуем как отказ:
		// пропустить отозванный токен хуже, чем отклонить живой
		log.Printf("ошибка проверки отзыва токена %s: %v", claims.ID, err)
		return nil, ErrInvalidCredential
	}
	if revoked {
		return nil, ErrInvalidCredential
	}

	return claims, nil
}

// Revoke отзывает токен любого вида, если тот корректно подписан и не истёк.
// Повторный отзыв безвреден. Возвращает false для чужих и битых токенов.
func (s *TokenAuthority) Revoke(ctx context.Context, tokenStr string) bool {
	for _, kind := range []string{model.TokenKindAccess, model.TokenKindRefresh} {
		claims, err := s.parseAndValidate(tokenStr, kind)
		if err != nil {
			continue
		}
		if err := s.revoked.Add(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
			log.Printf("ошибка записи отзыва токена %s: %v", claims.ID, err)
			return false
		}
		return true
	}
	return false
}

// Rotate обменивает refresh токен на новую пару.
// Предъявленный refresh токен отзывается до выпуска новой пары,
// чтобы украденный токен нельзя было переиграть после легитимной ротации.
func (s *TokenAuthority) Rotate(ctx context.Context, refreshToken string) (*model.TokensPair, error) {
	claims, err := s.Verify(ctx, refreshToken, model.TokenKindRefresh)
	if err != nil {
		return nil, ErrInvalidCredential
	}

	if err := s.revoked.Add(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		log.Printf("ошибка отзыва refresh токена %s при ротации: %v", claims.ID, err)
		return nil, ErrInvalidCredential
	}

	return s.CreateTokenPair(claims.Subject, claims.Role)
}
