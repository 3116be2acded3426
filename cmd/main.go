package main

import (
	"auth-web-server/config"
	_ "auth-web-server/docs"
	"auth-web-server/internal/audit"
	"auth-web-server/internal/handler"
	"auth-web-server/internal/ports"
	"auth-web-server/internal/repository"
	"auth-web-server/internal/security"
	"auth-web-server/internal/service"
	"context"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	httpSwagger "github.com/swaggo/http-swagger"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// @title Auth-web-server
// @version 1.0
// @description Сервис аутентификации: самоподписанные токены с ротацией и отзывом, ограничение частоты запросов

// @host localhost:8080

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	db, err := config.SetupDatabase(cfg.DatabaseConfig.DSN)
	if err != nil {
		log.Fatalf("Не удалось подключиться к БД: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Ошибка при закрытии БД: %v", err)
		}
	}()

	// Redis нужен только при backend=redis; при недоступности на старте
	// сервис продолжает работу на in-memory хранилищах
	var redisClient *config.RedisClient
	if cfg.RateLimit.Backend == "redis" {
		redisClient, err = config.SetupRedis(&cfg.RedisConfig)
		if err != nil {
			log.Printf("Ошибка подключения к Redis: %v, переход на in-memory backend", err)
			redisClient = nil
		}
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			log.Printf("Ошибка при закрытии Redis: %v", err)
		}
	}()

	srv, router := config.SetupServer(cfg.ServerAddr)

	userRepo := repository.NewUserRepository(db)

	var revocationStore ports.RevocationStore
	var rateLimitBackend ports.RateLimitBackend
	if redisClient != nil {
		revocationStore = repository.NewRedisRevocationRepository(redisClient)
		rateLimitBackend = repository.NewRedisRateLimitRepository(redisClient, parseCheckTimeout(cfg.RateLimit.CheckTimeout), cfg.RateLimit.FailOpen)
	} else {
		revocationStore = repository.NewMemoryRevocationRepository()
		rateLimitBackend = repository.NewMemoryRateLimitRepository()
	}

	tokenAuthority, err := security.NewTokenAuthority(&cfg.JWT, revocationStore)
	if err != nil {
		log.Fatalf("Ошибка создания TokenAuthority: %v", err)
	}

	auditLog := audit.New(cfg.Audit.Path)
	limiter := service.NewRateLimitService(&cfg.RateLimit, rateLimitBackend, auditLog)
	authService := service.NewAuthenticationService(userRepo, tokenAuthority, auditLog)
	authHandler := handler.NewAuthenticationHandler(authService)

	verifiers := []security.TokenVerifier{
		security.NewSelfIssuedVerifier(tokenAuthority, cfg.JWT.Issuer),
	}
	if cfg.ExternalAuth.Enabled {
		verifiers = append(verifiers, security.NewExternalVerifier(&cfg.ExternalAuth))
	}

	router.Get("/swagger/*", httpSwagger.WrapHandler)

	setupAuthRoutes(router, authHandler, limiter, verifiers)

	runServer(ctx, srv)
}

func setupAuthRoutes(r chi.Router, h *handler.AuthenticationHandler, limiter ports.RateLimiter, verifiers []security.TokenVerifier) {
	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(security.RateLimitMiddleware(limiter, "register"))
			r.Post("/register", h.Register)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(security.RateLimitMiddleware(limiter, "login"))
				r.Post("/", h.Login)
			})

			r.Group(func(r chi.Router) {
				r.Use(security.RateLimitMiddleware(limiter, "default"))
				r.Post("/refresh", h.RefreshToken)
			})

			r.Group(func(r chi.Router) {
				r.Use(security.RateLimitMiddleware(limiter, "default"))
				r.Use(security.AuthMiddleware(verifiers))
				r.Get("/me", h.Me)
				r.Head("/me", h.MeHead)
				r.Delete("/logout", h.Logout)
			})
		})
	})
}

func parseCheckTimeout(value string) time.Duration {
	if value == "" {
		return 0
	}
	timeout, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("ошибка парсинга check_timeout: %v", err)
		return 0
	}
	return timeout
}

func runServer(ctx context.Context, server *http.Server) {
	serverErrors := make(chan error, 1)
	go func() {
		log.Println("сервер запущен на " + server.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	signalChannel := make(chan os.Signal, 1)
	signal.Notify(signalChannel, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil {
			log.Fatalf("ошибка работы сервера: %v", err)
		}
	case sig := <-signalChannel:
		log.Printf("получен сигнал %v остановки работы сервера ", sig)
	}

	shutDownCtx, shutDownCancel := context.WithTimeout(ctx, 5*time.Second)
	defer shutDownCancel()

	if err := server.Shutdown(shutDownCtx); err != nil {
		log.Printf("ошибка при остановке сервера: %v", err)
	} else {
		log.Println("Сервер успешно остановлен")
	}
}
