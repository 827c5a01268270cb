package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/khoahotran/chatbot-service/internal/application/service"
	"github.com/khoahotran/chatbot-service/internal/config"
	"github.com/khoahotran/chatbot-service/internal/domain/chat"
	"github.com/khoahotran/chatbot-service/pkg/logger"
)

type geminiChatProvider struct {
	model   string
	baseURL string
	log     logger.Logger

	mu      sync.Mutex
	clients map[string]*genai.Client
}

func NewGeminiChatProvider(cfg config.Config, log logger.Logger) (service.ChatProvider, error) {
	if cfg.Gemini.Model == "" {
		return nil, fmt.Errorf("gemini model is not configured")
	}
	return &geminiChatProvider{
		model:   cfg.Gemini.Model,
		baseURL: cfg.Gemini.BaseURL,
		log:     log,
		clients: make(map[string]*genai.Client),
	}, nil
}

// StartChat opens a new chat with empty history. Clients are reused per API key.
func (p *geminiChatProvider) StartChat(ctx context.Context, apiKey string) (service.ChatSession, error) {
	client, err := p.client(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	session, err := client.Chats.Create(ctx, p.model, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create gemini chat: %w", err)
	}

	p.log.Info("Gemini chat session started", zap.String("model", p.model))
	return &geminiChatSession{chat: session}, nil
}

func (p *geminiChatProvider) client(ctx context.Context, apiKey string) (*genai.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.clients[apiKey]; ok {
		return c, nil
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if p.baseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: p.baseURL}
	}

	c, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("new gemini client: %w", err)
	}
	p.clients[apiKey] = c
	return c, nil
}

type geminiChatSession struct {
	chat *genai.Chat
}

func (s *geminiChatSession) SendMessage(ctx context.Context, message string) (string, error) {
	resp, err := s.chat.SendMessage(ctx, genai.Part{Text: message})
	if err != nil {
		return "", fmt.Errorf("gemini send message failed: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}
	return resp.Text(), nil
}

func (s *geminiChatSession) History() []chat.Turn {
	contents := s.chat.History(false)
	turns := make([]chat.Turn, 0, len(contents))
	for _, c := range contents {
		if c == nil {
			continue
		}
		var text strings.Builder
		for _, part := range c.Parts {
			if part != nil {
				text.WriteString(part.Text)
			}
		}
		role := chat.RoleModel
		if c.Role == string(chat.RoleUser) {
			role = chat.RoleUser
		}
		turns = append(turns, chat.Turn{Role: role, Text: text.String()})
	}
	return turns
}
