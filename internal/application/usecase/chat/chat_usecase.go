package chat

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/khoahotran/chatbot-service/internal/domain/usage"
	"github.com/khoahotran/chatbot-service/pkg/apperror"
	"github.com/khoahotran/chatbot-service/pkg/logger"
)

const (
	previewLength  = 50
	publishTimeout = 10 * time.Second
)

type Responder interface {
	GenerateResponse(ctx context.Context, message string) (string, error)
}

// ResponderFactory opens a fresh conversation.
type ResponderFactory func(ctx context.Context) (Responder, error)

// ChatUseCase answers each request in its own conversation, so no request
// sees another caller's turns, and reports the usage of every request.
type ChatUseCase struct {
	newResponder ResponderFactory
	publisher    usage.Publisher
	model        string
	logger       logger.Logger

	pending sync.WaitGroup
}

func NewChatUseCase(newResponder ResponderFactory, pub usage.Publisher, model string, log logger.Logger) *ChatUseCase {
	if pub == nil {
		pub = usage.NopPublisher{}
	}
	return &ChatUseCase{
		newResponder: newResponder,
		publisher:    pub,
		model:        model,
		logger:       log,
	}
}

type ChatInput struct {
	Message string
}

type ChatOutput struct {
	Response string `json:"response"`
}

var tracer = otel.Tracer("chat_usecase")

func (uc *ChatUseCase) Execute(ctx context.Context, input ChatInput) (*ChatOutput, error) {
	ctx, span := tracer.Start(ctx, "Execute")
	defer span.End()

	if input.Message == "" {
		uc.logger.Warn("Empty message received")
		return nil, apperror.NewInvalidInput("Message is required", nil)
	}

	uc.logger.Info("Processing chat request", zap.String("message", preview(input.Message)))
	span.SetAttributes(attribute.String("model", uc.model), attribute.Int("message_length", len(input.Message)))

	bot, err := uc.newResponder(ctx)
	if err != nil {
		span.RecordError(err)
		uc.publishAsync(usage.NewFailedRecord(uc.model, err))
		return nil, err
	}

	reply, err := bot.GenerateResponse(ctx, input.Message)
	if err != nil {
		span.RecordError(err)
		uc.publishAsync(usage.NewFailedRecord(uc.model, err))
		return nil, err
	}

	uc.publishAsync(usage.NewSuccessRecord(uc.model, input.Message, reply))
	uc.logger.Info("Successfully generated AI response")
	return &ChatOutput{Response: reply}, nil
}

// publishAsync sends r off the request path; it outlives the request context.
func (uc *ChatUseCase) publishAsync(r *usage.Record) {
	uc.pending.Add(1)
	go func() {
		defer uc.pending.Done()

		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := uc.publisher.PublishUsage(ctx, r); err != nil {
			uc.logger.Warn("Failed to publish usage record", zap.String("record_id", r.ID.String()), zap.Error(err))
		}
	}()
}

// Wait blocks until every usage record handed to the publisher has been sent or dropped.
func (uc *ChatUseCase) Wait() {
	uc.pending.Wait()
}

func preview(msg string) string {
	runes := []rune(msg)
	if len(runes) <= previewLength {
		return msg
	}
	return string(runes[:previewLength]) + "..."
}
