package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/khoahotran/chatbot-service/adapters/event"
	"github.com/khoahotran/chatbot-service/internal/domain/usage"
	"github.com/khoahotran/chatbot-service/pkg/logger"
)

const (
	defaultRecordAttempts = 3
	defaultRetryBackoff   = time.Second
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

type usageRecorder interface {
	Execute(ctx context.Context, record *usage.Record) error
}

// usageConsumer moves usage events from Kafka into the repository. An offset
// is committed only after its record is stored or found undecodable.
type usageConsumer struct {
	reader   messageReader
	recorder usageRecorder
	logger   logger.Logger
	attempts int
	backoff  time.Duration
}

func newUsageConsumer(reader messageReader, recorder usageRecorder, log logger.Logger) *usageConsumer {
	return &usageConsumer{
		reader:   reader,
		recorder: recorder,
		logger:   log,
		attempts: defaultRecordAttempts,
		backoff:  defaultRetryBackoff,
	}
}

// Run consumes until ctx is cancelled (nil) or a record cannot be stored after
// all attempts (error). In the second case the offset stays uncommitted so the
// event is redelivered once the worker restarts.
func (c *usageConsumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				c.logger.Info("Worker stopped")
				return nil
			}
			c.logger.Error("Failed to read message from Kafka", err)
			if !c.sleep(ctx) {
				return nil
			}
			continue
		}

		l := c.logger.With(zap.String("key", string(msg.Key)), zap.Int64("offset", msg.Offset))

		record, err := event.DecodeUsageEvent(msg)
		if err != nil {
			l.Error("Failed to decode usage event, skipping", err)
			c.commit(ctx, msg, l)
			continue
		}

		if err := c.record(ctx, record, l); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("usage event at offset %d not recorded: %w", msg.Offset, err)
		}

		c.commit(ctx, msg, l)
	}
}

func (c *usageConsumer) record(ctx context.Context, record *usage.Record, l logger.Logger) error {
	var err error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if err = c.recorder.Execute(ctx, record); err == nil {
			return nil
		}
		l.Warn("Failed to record usage event", zap.Int("attempt", attempt), zap.Error(err))
		if attempt < c.attempts && !c.sleep(ctx) {
			return ctx.Err()
		}
	}
	return err
}

func (c *usageConsumer) commit(ctx context.Context, msg kafka.Message, l logger.Logger) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		l.Error("Failed to commit message", err)
	}
}

func (c *usageConsumer) sleep(ctx context.Context) bool {
	t := time.NewTimer(c.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
