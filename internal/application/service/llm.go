package service

import (
	"context"

	"github.com/khoahotran/chatbot-service/internal/domain/chat"
)

// ChatSession is a provider-owned conversation. Each SendMessage appends the
// user turn and the reply to the provider's history.
type ChatSession interface {
	SendMessage(ctx context.Context, message string) (string, error)
	History() []chat.Turn
}

// ChatProvider authenticates with apiKey and opens a session with empty history.
type ChatProvider interface {
	StartChat(ctx context.Context, apiKey string) (ChatSession, error)
}
