package security

import (
	"auth-web-server/internal/model"
	"auth-web-server/internal/ports"
	"auth-web-server/internal/util"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const (
	UserContextKey contextKey = "user"
)

// ErrVerifierNotApplicable : токен не той формы, которую проверяет данный
// verifier — можно пробовать следующий. Не путать с ErrInvalidCredential:
// токен нужной формы с плохой подписью отклоняется жёстко, без перебора,
// иначе подделка маскировалась бы под «не мой токен».
var ErrVerifierNotApplicable = errors.New("токен не относится к данному верификатору")

// TokenVerifier : одна стратегия проверки предъявленного токена.
// Источников идентичности может быть несколько (свои токены, сторонний
// identity-провайдер), gatekeeper перебирает их по порядку.
type TokenVerifier interface {
	Verify(ctx context.Context, tokenStr string) (*Claims, error)
}

// SelfIssuedVerifier проверяет токены, выпущенные собственным TokenAuthority
type SelfIssuedVerifier struct {
	tokens TokenService
	issuer string
}

func NewSelfIssuedVerifier(tokens TokenService, issuer string) *SelfIssuedVerifier {
	return &SelfIssuedVerifier{tokens: tokens, issuer: issuer}
}

func (v *SelfIssuedVerifier) Verify(ctx context.Context, tokenStr string) (*Claims, error) {
	issuer, err := peekIssuer(tokenStr)
	if err != nil {
		return nil, ErrVerifierNotApplicable
	}
	if issuer != "" && issuer != v.issuer {
		return nil, ErrVerifierNotApplicable
	}
	return v.tokens.Verify(ctx, tokenStr, model.TokenKindAccess)
}

// peekIssuer достаёт issuer без проверки подписи — только чтобы понять,
// какому верификатору токен адресован
func peekIssuer(tokenStr string) (string, error) {
	claims := &Claims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenStr, claims); err != nil {
		return "", err
	}
	return claims.Issuer, nil
}

// AuthMiddleware : gatekeeper идентичности. Извлекает bearer токен,
// перебирает верификаторы и проверяет роль. Кладёт claims в контекст запроса.
func AuthMiddleware(verifiers []TokenVerifier, roles ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authorizationHeader := request.Header.Get("Authorization")
			if !strings.HasPrefix(authorizationHeader, "Bearer ") {
				handleUnauthenticated(writer)
				return
			}
			token := strings.TrimPrefix(authorizationHeader, "Bearer ")

			var claims *Claims
			for _, verifier := range verifiers {
				c, err := verifier.Verify(request.Context(), token)
				if errors.Is(err, ErrVerifierNotApplicable) {
					continue
				}
				if err != nil {
					log.Printf("невалидный токен: %v", err)
					handleUnauthenticated(writer)
					return
				}
				claims = c
				break
			}

			if claims == nil {
				handleUnauthenticated(writer)
				return
			}

			if len(roles) > 0 && !hasRole(claims.Role, roles) {
				// отказ по роли может быть конкретным: он не помогает
				// подбирать учётные данные
				util.HandleError(writer,
					fmt.Sprintf("доступ запрещён, требуется роль: %s", strings.Join(roles, ", ")),
					http.StatusForbidden)
				return
			}

			req := request.WithContext(context.WithValue(request.Context(), UserContextKey, claims))
			next.ServeHTTP(writer, req)
		})
	}
}

func handleUnauthenticated(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	util.HandleError(w, "невалидный токен", http.StatusUnauthorized)
}

func hasRole(role string, allowed []string) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

// RateLimitMiddleware : gatekeeper допуска. Считает ключ клиента, спрашивает
// ограничитель и при отказе отвечает 429 с Retry-After.
func RateLimitMiddleware(limiter ports.RateLimiter, policyName string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if !limiter.Enabled() {
				next.ServeHTTP(writer, request)
				return
			}

			key := limiter.GetClientKey(request, policyName)
			policy := limiter.PolicyFor(policyName)

			allowed, _, retryAfter := limiter.CheckRateLimit(request.Context(), key, policy)
			if !allowed {
				log.Printf("превышен лимит запросов для %s", key)
				util.HandleRateLimited(writer, retryAfter)
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

func GetClaimsFromContext(ctx context.Context) (*Claims, error) {
	claims, ok := ctx.Value(UserContextKey).(*Claims)
	if !ok || claims == nil {
		return nil, fmt.Errorf("пользователь не авторизован")
	}
	return claims, nil
}
