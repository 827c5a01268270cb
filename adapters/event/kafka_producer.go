package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/khoahotran/chatbot-service/internal/config"
	"github.com/khoahotran/chatbot-service/internal/domain/usage"
	"github.com/khoahotran/chatbot-service/pkg/logger"
)

const (
	TopicUsageEvents = "usage.events"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaProducerClient struct {
	UsageEventsWriter messageWriter
	logger            logger.Logger
}

func NewKafkaProducerClient(cfg config.Config, log logger.Logger) (*KafkaProducerClient, error) {
	brokers := cfg.Kafka.Brokers
	if len(brokers) == 0 {
		return nil, fmt.Errorf("config Kafka brokers not found")
	}

	// writer 'usage.events'
	usageWriter := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  TopicUsageEvents,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
	}

	log.Info("Initialize Kafka Producers successfully.")

	return &KafkaProducerClient{
		UsageEventsWriter: usageWriter,
		logger:            log,
	}, nil
}

func (c *KafkaProducerClient) PublishUsage(ctx context.Context, r *usage.Record) error {
	value, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal usage event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(r.ID.String()),
		Value: value,
	}
	if err := c.UsageEventsWriter.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write usage event: %w", err)
	}
	return nil
}

// DecodeUsageEvent parses a message produced by PublishUsage.
func DecodeUsageEvent(msg kafka.Message) (*usage.Record, error) {
	var r usage.Record
	if err := json.Unmarshal(msg.Value, &r); err != nil {
		return nil, fmt.Errorf("unmarshal usage event: %w", err)
	}
	return &r, nil
}

func (c *KafkaProducerClient) Close() {
	if c.UsageEventsWriter != nil {
		if err := c.UsageEventsWriter.Close(); err != nil {
			c.logger.Error("Failed to close Kafka usage writer", err)
		}
	}
	c.logger.Info("Closed Kafka Producers")
}
