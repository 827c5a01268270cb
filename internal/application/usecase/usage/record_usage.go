package usage

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/khoahotran/chatbot-service/internal/domain/usage"
	"github.com/khoahotran/chatbot-service/pkg/apperror"
	"github.com/khoahotran/chatbot-service/pkg/logger"
)

type RecordUsageUseCase struct {
	repo   usage.Repository
	logger logger.Logger
}

func NewRecordUsageUseCase(repo usage.Repository, log logger.Logger) *RecordUsageUseCase {
	return &RecordUsageUseCase{repo: repo, logger: log}
}

// Execute stores one usage event. Redelivered events that already exist are skipped.
func (uc *RecordUsageUseCase) Execute(ctx context.Context, r *usage.Record) error {
	if r == nil {
		return apperror.NewInvalidInput("usage record is empty", nil)
	}

	l := uc.logger.With(zap.String("record_id", r.ID.String()), zap.String("status", string(r.Status)))

	if err := uc.repo.Save(ctx, r); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			l.Warn("Usage record already stored, skip.")
			return nil
		}
		return fmt.Errorf("save usage record failed: %w", err)
	}

	l.Info("Usage record stored", zap.Float64("cost", r.Cost), zap.Int("usage_quantity", r.UsageQuantity))
	return nil
}
