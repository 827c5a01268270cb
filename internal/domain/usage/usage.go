package usage

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

const (
	ServiceGemini = "Gemini"
	UnitTokens    = "TOKENS"
	DefaultModel  = "gemini-pro"
)

type Rate struct {
	Input  float64
	Output float64
}

// Rates are USD per token.
var Rates = map[string]Rate{
	"gemini-pro":        {Input: 0.00001, Output: 0.00002},
	"gemini-pro-vision": {Input: 0.00001, Output: 0.00002},
}

type Record struct {
	ID            uuid.UUID `json:"id"`
	Service       string    `json:"service_name"`
	Model         string    `json:"model"`
	InputTokens   int       `json:"input_tokens"`
	OutputTokens  int       `json:"output_tokens"`
	UsageQuantity int       `json:"usage_quantity"`
	Unit          string    `json:"unit"`
	Cost          float64   `json:"cost"`
	Status        Status    `json:"status"`
	Error         string    `json:"error,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type Repository interface {
	Save(ctx context.Context, r *Record) error
	ListRecent(ctx context.Context, service string, limit int) ([]*Record, error)
}

type Publisher interface {
	PublishUsage(ctx context.Context, r *Record) error
}

// EstimateTokens approximates a token count as one token per four bytes.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return int(math.Ceil(float64(len(text)) / 4))
}

func CalculateCost(model string, inputTokens, outputTokens int) float64 {
	rate, ok := Rates[model]
	if !ok {
		rate = Rates[DefaultModel]
	}
	return float64(inputTokens)*rate.Input + float64(outputTokens)*rate.Output
}

func NewSuccessRecord(model, prompt, reply string) *Record {
	in := EstimateTokens(prompt)
	out := EstimateTokens(reply)
	return &Record{
		ID:            uuid.New(),
		Service:       ServiceGemini,
		Model:         model,
		InputTokens:   in,
		OutputTokens:  out,
		UsageQuantity: in + out,
		Unit:          UnitTokens,
		Cost:          CalculateCost(model, in, out),
		Status:        StatusSuccess,
		CreatedAt:     time.Now().UTC(),
	}
}

func NewFailedRecord(model string, cause error) *Record {
	r := &Record{
		ID:        uuid.New(),
		Service:   ServiceGemini,
		Model:     model,
		Unit:      UnitTokens,
		Status:    StatusFailed,
		CreatedAt: time.Now().UTC(),
	}
	if cause != nil {
		r.Error = cause.Error()
	}
	return r
}

type NopPublisher struct{}

func (NopPublisher) PublishUsage(context.Context, *Record) error { return nil }
