package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/khoahotran/chatbot-service/adapters/event"
	httpAdapter "github.com/khoahotran/chatbot-service/adapters/http"
	"github.com/khoahotran/chatbot-service/adapters/llm"
	"github.com/khoahotran/chatbot-service/adapters/persistence"
	chatUC "github.com/khoahotran/chatbot-service/internal/application/usecase/chat"
	usageUC "github.com/khoahotran/chatbot-service/internal/application/usecase/usage"
	"github.com/khoahotran/chatbot-service/internal/config"
	"github.com/khoahotran/chatbot-service/internal/domain/usage"
	"github.com/khoahotran/chatbot-service/pkg/auth"
	"github.com/khoahotran/chatbot-service/pkg/logger"
	"github.com/khoahotran/chatbot-service/pkg/tracing"
)

func main() {
	fmt.Println("Start Chatbot API Server...")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: cannot load config: %v", err)
	}

	appLogger := logger.NewZapLogger(cfg.App.Env, "chatbot-api")
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing
	if cfg.Jaeger.OTLPEndpoint != "" {
		tp, err := tracing.NewTracerProvider(cfg, appLogger, "chatbot-api")
		if err != nil {
			appLogger.Fatal("FATAL: cannot init tracer", err)
		}
		defer tracing.Shutdown(tp, appLogger)
	}

	// Chatbot
	provider, err := llm.NewGeminiChatProvider(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("FATAL: cannot init Gemini provider", err)
	}
	// One conversation per request; anonymous callers must not see each other's turns.
	newChatbot := chatUC.NewChatbotFactory(cfg.Gemini.APIKey, provider, appLogger)
	if _, err := newChatbot(ctx); err != nil {
		appLogger.Fatal("FATAL: cannot start chatbot", err)
	}

	// Usage events
	var publisher usage.Publisher = usage.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaClient, err := event.NewKafkaProducerClient(cfg, appLogger)
		if err != nil {
			appLogger.Fatal("FATAL: cannot init Kafka", err)
		}
		defer kafkaClient.Close()
		publisher = kafkaClient
	} else {
		appLogger.Warn("Kafka brokers not configured, usage events are dropped")
	}

	chatUseCase := chatUC.NewChatUseCase(newChatbot, publisher, cfg.Gemini.Model, appLogger)

	deps := httpAdapter.RouterDeps{
		ChatHandler: httpAdapter.NewChatHandler(chatUseCase, cfg.IsDevelopment(), appLogger),
		CORSOrigins: cfg.App.CORSOrigins,
		Logger:      appLogger,
	}

	// Usage listing
	if cfg.DB.DSN != "" && cfg.Auth.JWTSecret != "" {
		dbPool, err := persistence.NewPostgresPool(cfg, appLogger)
		if err != nil {
			appLogger.Fatal("FATAL: cannot connect Postgres", err)
		}
		defer dbPool.Close()

		usageRepo := persistence.NewPostgresUsageRepo(dbPool, appLogger)
		deps.UsageHandler = httpAdapter.NewUsageHandler(usageUC.NewListUsageUseCase(usageRepo, appLogger), appLogger)
		deps.JWTService = auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenLifespan)
	}

	// Rate limiting
	if cfg.Redis.Addr != "" {
		redisClient, err := persistence.NewRedisClient(cfg, appLogger)
		if err != nil {
			appLogger.Fatal("FATAL: cannot connect Redis", err)
		}
		defer redisClient.Close()
		limiter, err := persistence.NewRedisRateLimiter(redisClient, cfg.RateLimit.Window, cfg.RateLimit.Max)
		if err != nil {
			appLogger.Fatal("FATAL: invalid rate limit config", err)
		}
		deps.Limiter = limiter
	}

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           httpAdapter.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info("Server is running", zap.String("port", cfg.App.Port), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("Cannot run server", err)
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", err)
	}
	chatUseCase.Wait()
}
