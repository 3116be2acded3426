package config

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type JWTConfig struct {
	SecretKey        string `yaml:"secret_key"`
	RefreshSecretKey string `yaml:"refresh_secret_key"`
	AccessTokenTTL   string `yaml:"access_token_ttl"`
	RefreshTokenTTL  string `yaml:"refresh_token_ttl"`
	Leeway           string `yaml:"leeway"`
	Issuer           string `yaml:"issuer"`
}

// RateLimitConfig : настройки ограничителя запросов.
// Backend может быть "memory" или "redis"; при недоступности Redis
// на старте сервис переходит на in-memory backend.
type RateLimitConfig struct {
	Enabled          bool   `yaml:"enabled"`
	Backend          string `yaml:"backend"`
	TrustProxyHeader bool   `yaml:"trust_proxy_header"`
	FailOpen         bool   `yaml:"fail_open"`
	CheckTimeout     string `yaml:"check_timeout"`
}

// ExternalAuthConfig : параметры проверки токенов стороннего identity-провайдера
type ExternalAuthConfig struct {
	Enabled   bool   `yaml:"enabled"`
	SecretKey string `yaml:"secret_key"`
	Issuer    string `yaml:"issuer"`
	Audience  string `yaml:"audience"`
}

type AuditConfig struct {
	Path string `yaml:"path"`
}
