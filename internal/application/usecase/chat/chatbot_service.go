package chat

import (
	"context"
	"strings"

	"github.com/khoahotran/chatbot-service/internal/application/service"
	chatdomain "github.com/khoahotran/chatbot-service/internal/domain/chat"
	"github.com/khoahotran/chatbot-service/pkg/apperror"
	"github.com/khoahotran/chatbot-service/pkg/logger"
)

// ChatbotService owns a single provider chat session for its whole lifetime.
//
// It is not safe for concurrent use: parallel GenerateResponse calls interleave
// against the same session history. Callers sharing an instance must serialise.
type ChatbotService struct {
	session service.ChatSession
	logger  logger.Logger
}

func NewChatbotService(ctx context.Context, apiKey string, provider service.ChatProvider, log logger.Logger) (*ChatbotService, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, apperror.NewConfiguration("GEMINI_API_KEY is required", nil)
	}

	session, err := provider.StartChat(ctx, apiKey)
	if err != nil {
		return nil, apperror.NewConfiguration("failed to open chat session", err)
	}

	return &ChatbotService{session: session, logger: log}, nil
}

// GenerateResponse forwards message to the session and returns the reply text.
// Provider failures are logged once and returned wrapped in apperror.ErrProvider.
func (s *ChatbotService) GenerateResponse(ctx context.Context, message string) (string, error) {
	reply, err := s.session.SendMessage(ctx, message)
	if err != nil {
		s.logger.Error("Error generating response", err)
		return "", apperror.NewProvider("failed to generate response", err)
	}
	return reply, nil
}

func (s *ChatbotService) History() []chatdomain.Turn {
	return s.session.History()
}

// NewChatbotFactory returns a ResponderFactory that opens a new ChatbotService,
// and so a new provider session, on every call.
func NewChatbotFactory(apiKey string, provider service.ChatProvider, log logger.Logger) ResponderFactory {
	return func(ctx context.Context) (Responder, error) {
		svc, err := NewChatbotService(ctx, apiKey, provider, log)
		if err != nil {
			return nil, err
		}
		return svc, nil
	}
}
