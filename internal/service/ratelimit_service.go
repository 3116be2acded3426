package service

import (
	"auth-web-server/config"
	"auth-web-server/internal/audit"
	"auth-web-server/internal/model"
	"auth-web-server/internal/ports"
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// Таблица политик фиксируется на старте и в рантайме не меняется.
// Регистрация и сброс пароля — самые ценные цели для злоупотреблений
// (перебор аккаунтов, рассылка писем), у них квоты жёстче и блокировки дольше.
var limitPolicies = map[string]model.LimitPolicy{
	"login":          {MaxRequests: 5, WindowSeconds: 60, BlockSeconds: 300},
	"register":       {MaxRequests: 3, WindowSeconds: 60, BlockSeconds: 600},
	"password_reset": {MaxRequests: 3, WindowSeconds: 60, BlockSeconds: 300},
	"oauth":          {MaxRequests: 10, WindowSeconds: 60, BlockSeconds: 300},
	"default":        {MaxRequests: 60, WindowSeconds: 60, BlockSeconds: 0},
}

// RateLimitService : фасад над backend-ом ограничителя.
// Добавляет к скользящему окну эскалацию в блокировку и вычисление
// ключа клиента. Собственного состояния не имеет.
type RateLimitService struct {
	backend          ports.RateLimitBackend
	enabled          bool
	trustProxyHeader bool
	auditLog         *audit.Logger
}

func NewRateLimitService(cfg *config.RateLimitConfig, backend ports.RateLimitBackend, auditLog *audit.Logger) *RateLimitService {
	return &RateLimitService{
		backend:          backend,
		enabled:          cfg.Enabled,
		trustProxyHeader: cfg.TrustProxyHeader,
		auditLog:         auditLog,
	}
}

func (s *RateLimitService) Enabled() bool {
	return s.enabled
}

// CheckRateLimit делегирует backend-у и при исчерпании квоты переводит ключ
// в блокировку, если она настроена политикой. "Квота исчерпана" превращается
// в "квота исчерпана и наказана": retry_after становится полной длительностью
// блокировки, а не размером окна.
func (s *RateLimitService) CheckRateLimit(ctx context.Context, key string, policy model.LimitPolicy) (bool, int, int) {
	allowed, remaining, retryAfter := s.backend.Check(ctx, key, policy.MaxRequests, policy.WindowSeconds)

	if !allowed && policy.BlockSeconds > 0 {
		if blocked, _ := s.backend.IsBlocked(ctx, key); !blocked {
			s.backend.Block(ctx, key, policy.BlockSeconds)
			s.auditLog.Log("rate_limit_block", key, map[string]any{"block_seconds": policy.BlockSeconds})
			return false, 0, policy.BlockSeconds
		}
	}

	return allowed, remaining, retryAfter
}

// GetClientKey : ключ клиента — адрес плюс префикс операции, чтобы логин
// и регистрация не делили один счётчик. Заголовок прокси учитывается только
// если перед сервером стоит доверенный reverse proxy.
func (s *RateLimitService) GetClientKey(r *http.Request, prefix string) string {
	var clientIP string

	if s.trustProxyHeader {
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			clientIP = strings.TrimSpace(strings.Split(forwarded, ",")[0])
		}
	}

	if clientIP == "" {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err == nil && host != "" {
			clientIP = host
		} else if r.RemoteAddr != "" {
			clientIP = r.RemoteAddr
		} else {
			clientIP = "unknown"
		}
	}

	return fmt.Sprintf("%s:%s", prefix, clientIP)
}

func (s *RateLimitService) PolicyFor(name string) model.LimitPolicy {
	if policy, ok := limitPolicies[name]; ok {
		return policy
	}
	return limitPolicies["default"]
}
