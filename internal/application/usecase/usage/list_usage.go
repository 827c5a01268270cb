package usage

import (
	"context"

	"github.com/khoahotran/chatbot-service/internal/domain/usage"
	"github.com/khoahotran/chatbot-service/pkg/apperror"
	"github.com/khoahotran/chatbot-service/pkg/logger"
)

const maxListLimit = 100

type ListUsageUseCase struct {
	repo   usage.Repository
	logger logger.Logger
}

func NewListUsageUseCase(repo usage.Repository, log logger.Logger) *ListUsageUseCase {
	return &ListUsageUseCase{repo: repo, logger: log}
}

type ListUsageInput struct {
	Service string
	Limit   int
}

func (uc *ListUsageUseCase) Execute(ctx context.Context, input ListUsageInput) ([]*usage.Record, error) {
	if input.Service == "" {
		input.Service = usage.ServiceGemini
	}
	if input.Limit <= 0 || input.Limit > maxListLimit {
		input.Limit = maxListLimit
	}

	records, err := uc.repo.ListRecent(ctx, input.Service, input.Limit)
	if err != nil {
		uc.logger.Error("Failed to list usage records", err)
		return nil, apperror.NewInternal("failed to fetch usage data", err)
	}
	return records, nil
}
