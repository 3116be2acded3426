package security

import (
	"auth-web-server/config"
	"auth-web-server/internal/model"
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ExternalVerifier проверяет HS256 токены стороннего identity-провайдера.
// Применимость определяется по issuer до проверки подписи: чужой issuer —
// fallthrough, свой issuer с плохой подписью — жёсткий отказ.
type ExternalVerifier struct {
	secret   []byte
	issuer   string
	audience string
}

func NewExternalVerifier(cfg *config.ExternalAuthConfig) *ExternalVerifier {
	return &ExternalVerifier{
		secret:   []byte(cfg.SecretKey),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
	}
}

func (v *ExternalVerifier) Verify(ctx context.Context, tokenStr string) (*Claims, error) {
	issuer, err := peekIssuer(tokenStr)
	if err != nil || issuer != v.issuer {
		return nil, ErrVerifierNotApplicable
	}

	var claims = &Claims{}
	opts := []jwt.ParserOption{jwt.WithIssuer(v.issuer)}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	jwtToken, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Header["alg"] != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("неверный способ подписи токена: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, opts...)

	if err != nil || !jwtToken.Valid {
		return nil, ErrInvalidCredential
	}

	// чужому провайдеру наш набор ролей неизвестен: отсутствующая или
	// незнакомая роль понижается до самой ограниченной
	if !model.ValidRole(claims.Role) {
		claims.Role = model.RoleGP
	}

	return claims, nil
}
