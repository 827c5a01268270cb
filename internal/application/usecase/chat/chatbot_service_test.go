package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/khoahotran/chatbot-service/internal/application/service"
	chatdomain "github.com/khoahotran/chatbot-service/internal/domain/chat"
	"github.com/khoahotran/chatbot-service/pkg/apperror"
	"github.com/khoahotran/chatbot-service/pkg/logger"
)

type echoSession struct {
	history []chatdomain.Turn
	failWith error
}

func (s *echoSession) SendMessage(_ context.Context, message string) (string, error) {
	if s.failWith != nil {
		return "", s.failWith
	}
	reply := "echo:" + message
	s.history = append(s.history,
		chatdomain.Turn{Role: chatdomain.RoleUser, Text: message},
		chatdomain.Turn{Role: chatdomain.RoleModel, Text: reply},
	)
	return reply, nil
}

func (s *echoSession) History() []chatdomain.Turn {
	return append([]chatdomain.Turn(nil), s.history...)
}

type fakeProvider struct {
	calls   int
	gotKey  string
	session *echoSession
	err     error
}

func (p *fakeProvider) StartChat(_ context.Context, apiKey string) (service.ChatSession, error) {
	p.calls++
	p.gotKey = apiKey
	if p.err != nil {
		return nil, p.err
	}
	return p.session, nil
}

func observedLogger() (logger.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return logger.NewFromZap(zap.New(core)), logs
}

func TestNewChatbotService_MissingCredential(t *testing.T) {
	for _, key := range []string{"", "   "} {
		provider := &fakeProvider{session: &echoSession{}}
		log, _ := observedLogger()

		svc, err := NewChatbotService(context.Background(), key, provider, log)

		assert.Nil(t, svc)
		assert.ErrorIs(t, err, apperror.ErrConfiguration)
		assert.Zero(t, provider.calls, "provider must not be contacted without a credential")
	}
}

func TestNewChatbotService_OpensOneEmptySession(t *testing.T) {
	provider := &fakeProvider{session: &echoSession{}}
	log, logs := observedLogger()

	svc, err := NewChatbotService(context.Background(), "secret", provider, log)
	require.NoError(t, err)

	assert.Equal(t, 1, provider.calls)
	assert.Equal(t, "secret", provider.gotKey)
	assert.Empty(t, svc.History())
	assert.Zero(t, logs.Len())
}

func TestNewChatbotService_StartChatFailure(t *testing.T) {
	cause := errors.New("invalid client options")
	provider := &fakeProvider{err: cause}
	log, _ := observedLogger()

	svc, err := NewChatbotService(context.Background(), "secret", provider, log)

	assert.Nil(t, svc)
	assert.ErrorIs(t, err, apperror.ErrConfiguration)
	assert.ErrorIs(t, err, cause)
}

func TestGenerateResponse_Echo(t *testing.T) {
	log, logs := observedLogger()
	svc, err := NewChatbotService(context.Background(), "secret", &fakeProvider{session: &echoSession{}}, log)
	require.NoError(t, err)

	reply, err := svc.GenerateResponse(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, "echo:hello", reply)
	assert.Zero(t, logs.Len(), "successful calls do not log")
}

func TestGenerateResponse_ProviderFailure(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	log, logs := observedLogger()
	svc, err := NewChatbotService(context.Background(), "secret", &fakeProvider{session: &echoSession{failWith: cause}}, log)
	require.NoError(t, err)

	reply, err := svc.GenerateResponse(context.Background(), "hello")

	assert.Empty(t, reply)
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, apperror.ErrProvider)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "Error generating response", entries[0].Message)
	assert.Equal(t, "dial tcp: connection refused", entries[0].ContextMap()["error"])
}

func TestGenerateResponse_SequentialCallsExtendHistoryInOrder(t *testing.T) {
	log, _ := observedLogger()
	svc, err := NewChatbotService(context.Background(), "secret", &fakeProvider{session: &echoSession{}}, log)
	require.NoError(t, err)

	first, err := svc.GenerateResponse(context.Background(), "one")
	require.NoError(t, err)
	second, err := svc.GenerateResponse(context.Background(), "two")
	require.NoError(t, err)

	assert.Equal(t, "echo:one", first)
	assert.Equal(t, "echo:two", second)
	assert.Equal(t, []chatdomain.Turn{
		{Role: chatdomain.RoleUser, Text: "one"},
		{Role: chatdomain.RoleModel, Text: "echo:one"},
		{Role: chatdomain.RoleUser, Text: "two"},
		{Role: chatdomain.RoleModel, Text: "echo:two"},
	}, svc.History())
}

func TestGenerateResponse_NeverSwallowsFailures(t *testing.T) {
	session := &echoSession{}
	log, logs := observedLogger()
	svc, err := NewChatbotService(context.Background(), "secret", &fakeProvider{session: session}, log)
	require.NoError(t, err)

	causes := []error{
		errors.New("401 API key not valid"),
		errors.New("429 quota exhausted"),
		errors.New("malformed response"),
	}
	for _, cause := range causes {
		session.failWith = cause
		_, err := svc.GenerateResponse(context.Background(), "ping")
		assert.ErrorIs(t, err, cause)
	}
	assert.Equal(t, len(causes), logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}
