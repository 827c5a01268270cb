package http

import (
	"time"

	"github.com/khoahotran/chatbot-service/internal/domain/usage"
)

// Chat DTOs

type ChatRequest struct {
	Message string `json:"message"`
}

type ChatResponse struct {
	Response string `json:"response"`
}

type ChatErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Usage DTOs

type UsageRecordDTO struct {
	ID            string    `json:"id"`
	ServiceName   string    `json:"service_name"`
	Model         string    `json:"model"`
	InputTokens   int       `json:"input_tokens"`
	OutputTokens  int       `json:"output_tokens"`
	UsageQuantity int       `json:"usage_quantity"`
	Unit          string    `json:"unit"`
	Cost          float64   `json:"cost"`
	Status        string    `json:"status"`
	Error         string    `json:"error,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func ToUsageRecordDTO(r *usage.Record) UsageRecordDTO {
	return UsageRecordDTO{
		ID:            r.ID.String(),
		ServiceName:   r.Service,
		Model:         r.Model,
		InputTokens:   r.InputTokens,
		OutputTokens:  r.OutputTokens,
		UsageQuantity: r.UsageQuantity,
		Unit:          r.Unit,
		Cost:          r.Cost,
		Status:        string(r.Status),
		Error:         r.Error,
		CreatedAt:     r.CreatedAt,
	}
}
