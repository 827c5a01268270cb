package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	usageUC "github.com/khoahotran/chatbot-service/internal/application/usecase/usage"
	"github.com/khoahotran/chatbot-service/internal/domain/usage"
	"github.com/khoahotran/chatbot-service/pkg/apperror"
	"github.com/khoahotran/chatbot-service/pkg/logger"
)

type UsageHandler struct {
	listUsageUseCase *usageUC.ListUsageUseCase
	logger           logger.Logger
}

func NewUsageHandler(uc *usageUC.ListUsageUseCase, log logger.Logger) *UsageHandler {
	return &UsageHandler{
		listUsageUseCase: uc,
		logger:           log,
	}
}

func (h *UsageHandler) ListGeminiUsage(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil {
		c.Error(apperror.NewInvalidInput("'limit' must be a number", err))
		return
	}

	operatorID, _ := GetOperatorIDFromGinContext(c)
	h.logger.Info("Listing usage records", zap.String("operator_id", operatorID.String()), zap.Int("limit", limit))

	records, err := h.listUsageUseCase.Execute(c.Request.Context(), usageUC.ListUsageInput{
		Service: usage.ServiceGemini,
		Limit:   limit,
	})
	if err != nil {
		c.Error(err)
		return
	}

	dtos := make([]UsageRecordDTO, len(records))
	for i, r := range records {
		dtos[i] = ToUsageRecordDTO(r)
	}
	c.JSON(http.StatusOK, dtos)
}
