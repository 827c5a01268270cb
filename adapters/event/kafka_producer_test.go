package event

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/chatbot-service/internal/config"
	"github.com/khoahotran/chatbot-service/internal/domain/usage"
	"github.com/khoahotran/chatbot-service/pkg/logger"
)

type captureWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *captureWriter) Close() error {
	w.closed = true
	return nil
}

func TestNewKafkaProducerClient_RequiresBrokers(t *testing.T) {
	_, err := NewKafkaProducerClient(config.Config{}, logger.NewNopLogger())
	assert.Error(t, err)
}

func TestPublishUsage_RoundTrip(t *testing.T) {
	w := &captureWriter{}
	client := &KafkaProducerClient{UsageEventsWriter: w, logger: logger.NewNopLogger()}

	rec := usage.NewSuccessRecord("gemini-pro", "hello", "echo:hello")
	require.NoError(t, client.PublishUsage(context.Background(), rec))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, rec.ID.String(), string(w.msgs[0].Key))

	decoded, err := DecodeUsageEvent(w.msgs[0])
	require.NoError(t, err)
	assert.Equal(t, rec.ID, decoded.ID)
	assert.Equal(t, rec.Status, decoded.Status)
	assert.Equal(t, rec.UsageQuantity, decoded.UsageQuantity)
	assert.InDelta(t, rec.Cost, decoded.Cost, 1e-12)

	client.Close()
	assert.True(t, w.closed)
}

func TestPublishUsage_WriteError(t *testing.T) {
	cause := errors.New("leader not available")
	client := &KafkaProducerClient{UsageEventsWriter: &captureWriter{err: cause}, logger: logger.NewNopLogger()}

	err := client.PublishUsage(context.Background(), usage.NewFailedRecord("gemini-pro", nil))
	assert.ErrorIs(t, err, cause)
}

func TestDecodeUsageEvent_Malformed(t *testing.T) {
	_, err := DecodeUsageEvent(kafka.Message{Value: []byte("{not json")})
	assert.Error(t, err)
}
