// @title         resumeflow API
// @version       1.0
// @description   Сервис загрузки PDF-резюме: извлечение текста, структурирование через LLM и хранение с привязкой к пользователю.
// @BasePath      /api/v1
// @schemes       http
// @host          localhost:8080
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Токен сессии. Поддерживаются форматы: "Bearer <JWT>" или "<JWT>".
// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name session
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	swagger "github.com/gofiber/swagger"

	_ "github.com/artem13815/resumeflow/docs"

	// internal imports
	"github.com/artem13815/resumeflow/api/http"
	"github.com/artem13815/resumeflow/api/http/handlers"
	"github.com/artem13815/resumeflow/pkg/auth"
	"github.com/artem13815/resumeflow/pkg/config"
	"github.com/artem13815/resumeflow/pkg/document"
	"github.com/artem13815/resumeflow/pkg/events/rabbitmq"
	"github.com/artem13815/resumeflow/pkg/health"
	healthpg "github.com/artem13815/resumeflow/pkg/health/checkers"
	"github.com/artem13815/resumeflow/pkg/ingest"
	"github.com/artem13815/resumeflow/pkg/llm"
	"github.com/artem13815/resumeflow/pkg/llm/gemini"
	"github.com/artem13815/resumeflow/pkg/llm/openrouter"
	"github.com/artem13815/resumeflow/pkg/persistence"
	pgrepo "github.com/artem13815/resumeflow/pkg/repository/postgres"
	"github.com/artem13815/resumeflow/pkg/resume"
	"github.com/artem13815/resumeflow/pkg/security/jwt"
	"github.com/artem13815/resumeflow/pkg/storage/gcs"
	"github.com/artem13815/resumeflow/pkg/storage/local"
	"github.com/artem13815/resumeflow/pkg/storage/postgres"
	"github.com/artem13815/resumeflow/pkg/storage/s3"
	"github.com/artem13815/resumeflow/pkg/writing"
)

// bodyLimit sits above the ingest ceiling so oversized uploads reach the size gate and get a 400.
const bodyLimit = 64 << 20

type fileStore interface {
	persistence.FileStore
	health.Checker
}

func main() {
	// Load configuration from env/.env
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))
	logr := slog.Default()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to PostgreSQL
	pool, err := postgres.Connect(ctx, cfg.DatabaseURL, postgres.Options{
		MaxConns: int32(cfg.DBMaxConns),
		Wait:     time.Duration(cfg.DBConnectWait) * time.Second,
	})
	if err != nil {
		log.Fatalf("postgres connect: %v", err)
	}
	defer pool.Close()

	// Repositories also ensure their DB schema.
	userRepo, err := pgrepo.NewUserRepository(pool)
	if err != nil {
		log.Fatalf("init user repo: %v", err)
	}
	resumeRepo, err := pgrepo.NewResumeRepository(pool)
	if err != nil {
		log.Fatalf("init resume repo: %v", err)
	}

	files, err := newFileStore(ctx, cfg)
	if err != nil {
		log.Fatalf("init file store: %v", err)
	}

	model, err := newChatModel(ctx, cfg)
	if err != nil {
		log.Fatalf("init llm: %v", err)
	}
	llmTimeout := time.Duration(cfg.LLMTimeoutSeconds) * time.Second

	var notifier ingest.Notifier
	if cfg.RabbitMQURL != "" {
		pub, err := rabbitmq.NewPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange)
		if err != nil {
			log.Fatalf("init rabbitmq: %v", err)
		}
		defer pub.Close()
		notifier = pub
	}

	// Token generator and session middleware
	ttl := time.Duration(cfg.JWTTTLMinutes) * time.Minute
	jwtGen := jwt.NewGenerator(cfg.JWTSecret, cfg.JWTIssuer, ttl)
	verifier := jwt.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer)
	requireAuth := jwt.NewAuthMiddleware(jwt.MiddlewareConfig{Verifier: verifier, CookieName: cfg.SessionCookie})
	optionalAuth := jwt.NewAuthMiddleware(jwt.MiddlewareConfig{Verifier: verifier, CookieName: cfg.SessionCookie, Optional: true})

	authUC := auth.NewAuthService(userRepo, jwtGen)
	gateway := persistence.NewGateway(files, resumeRepo, logr)
	ingestSvc := ingest.NewService(ingest.Deps{
		Text:       document.PDFExtractor{},
		Structurer: resume.NewExtractor(model, llmTimeout, cfg.LLMMaxInputChars),
		Store:      gateway,
		Notifier:   notifier,
		Logger:     logr,
	}, ingest.Options{MaxBytes: cfg.IngestMaxBytes()})

	// Health service: compose checkers
	readiness := health.NewService(healthpg.NewPostgresChecker(pool), files)

	app := fiber.New(fiber.Config{BodyLimit: bodyLimit})
	app.Use(recover.New())
	app.Use(logger.New())

	http.Register(app, http.Handlers{
		Auth:    handlers.NewAuthHandler(authUC, handlers.SessionCookie{Name: cfg.SessionCookie, Secure: cfg.CookieSecure, TTL: ttl}),
		Health:  handlers.NewHealthHandler(readiness),
		Ingest:  handlers.NewIngestHandler(ingestSvc, logr),
		Resumes: handlers.NewResumesHandler(gateway, logr),
		Writing: handlers.NewWritingHandler(writing.NewService(model, llmTimeout, cfg.LLMMaxInputChars), logr),
	}, requireAuth, optionalAuth)

	if cfg.StorageDriver == "local" {
		app.Static("/uploads", cfg.UploadDir)
	}

	// Swagger UI
	app.Get("/swagger/*", swagger.HandlerDefault)

	go func() {
		<-ctx.Done()
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	// Start server
	port := cfg.Port
	logr.Info("HTTP server listening", "port", port, "storage", cfg.StorageDriver, "llm", cfg.LLMProvider)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

func newFileStore(ctx context.Context, cfg config.Config) (fileStore, error) {
	switch cfg.StorageDriver {
	case "s3":
		return s3.New(ctx, s3.Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PublicURL: cfg.S3PublicURL,
		})
	case "gcs":
		return gcs.New(ctx, cfg.GCSBucket)
	case "local":
		return local.New(cfg.UploadDir, cfg.PublicBaseURL)
	default:
		return nil, errors.New("unknown storage driver " + cfg.StorageDriver)
	}
}

func newChatModel(ctx context.Context, cfg config.Config) (llm.ChatModel, error) {
	switch cfg.LLMProvider {
	case "gemini":
		return gemini.New(ctx, gemini.Config{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiModel,
			BaseURL: cfg.GeminiBaseURL,
		})
	default:
		return openrouter.New(
			cfg.OpenRouterAPIKey,
			cfg.OpenRouterBaseURL,
			cfg.OpenRouterModel,
			cfg.OpenRouterAppTitle,
			cfg.OpenRouterReferer,
			time.Duration(cfg.LLMTimeoutSeconds)*time.Second,
		), nil
	}
}
