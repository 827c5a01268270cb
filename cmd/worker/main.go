package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/khoahotran/chatbot-service/adapters/event"
	"github.com/khoahotran/chatbot-service/adapters/persistence"
	usageUC "github.com/khoahotran/chatbot-service/internal/application/usecase/usage"
	"github.com/khoahotran/chatbot-service/internal/config"
	"github.com/khoahotran/chatbot-service/pkg/logger"
)

func main() {
	fmt.Println("Starting Chatbot Usage Worker...")

	// Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: cannot load config: %v", err)
	}
	if len(cfg.Kafka.Brokers) == 0 {
		log.Fatalf("FATAL: config Kafka brokers not found")
	}

	appLogger := logger.NewZapLogger(cfg.App.Env, "chatbot-worker")

	// Database
	dbPool, err := persistence.NewPostgresPool(cfg, appLogger)
	if err != nil {
		log.Fatalf("FATAL: cannot connect Postgres: %v", err)
	}
	defer dbPool.Close()

	usageRepo := persistence.NewPostgresUsageRepo(dbPool, appLogger)
	recordUsageUC := usageUC.NewRecordUsageUseCase(usageRepo, appLogger)

	// Kafka Consumer
	usageReader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Kafka.Brokers,
		Topic:    event.TopicUsageEvents,
		GroupID:  "usage-recorder-group",
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})
	defer usageReader.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appLogger.Info("Worker listening", zap.String("topic", event.TopicUsageEvents))

	if err := newUsageConsumer(usageReader, recordUsageUC, appLogger).Run(ctx); err != nil {
		appLogger.Fatal("FATAL: worker stopped", err)
	}
}
