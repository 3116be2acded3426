package config

import (
	"github.com/go-chi/chi/v5"
	"gopkg.in/yaml.v3"
	"net/http"
	"os"
)

type AppConfig struct {
	DatabaseConfig DatabaseConfig     `yaml:"databaseConfig"`
	RedisConfig    RedisConfig        `yaml:"redisConfig"`
	ServerAddr     string             `yaml:"serverAddr"`
	JWT            JWTConfig          `yaml:"jwt"`
	RateLimit      RateLimitConfig    `yaml:"rateLimit"`
	ExternalAuth   ExternalAuthConfig `yaml:"externalAuth"`
	Audit          AuditConfig        `yaml:"audit"`
}

func LoadConfig(path string) (*AppConfig, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(file, &cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

// applyEnvOverrides : секреты и переключатели можно задавать через окружение,
// значения из окружения имеют приоритет над файлом
func applyEnvOverrides(cfg *AppConfig) {
	if v := os.Getenv("JWT_SECRET_KEY"); v != "" {
		cfg.JWT.SecretKey = v
	}
	if v := os.Getenv("JWT_REFRESH_SECRET_KEY"); v != "" {
		cfg.JWT.RefreshSecretKey = v
	}
	if v := os.Getenv("EXTERNAL_AUTH_SECRET"); v != "" {
		cfg.ExternalAuth.SecretKey = v
	}
	if v := os.Getenv("RATE_LIMIT_ENABLED"); v != "" {
		cfg.RateLimit.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("RATE_LIMIT_BACKEND"); v != "" {
		cfg.RateLimit.Backend = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisConfig.Addr = v
	}
}

func SetupServer(serverAddress string) (*http.Server, *chi.Mux) {
	router := chi.NewRouter()
	server := &http.Server{
		Addr:    serverAddress,
		Handler: router,
	}

	return server, router
}

func SetupDatabase(dsn string) (*Database, error) {
	return NewDatabaseConnection("postgres", dsn)
}

func SetupRedis(cfg *RedisConfig) (*RedisClient, error) {
	return NewRedisClient(cfg)
}
