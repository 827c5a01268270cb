package http

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	chatUC "github.com/khoahotran/chatbot-service/internal/application/usecase/chat"
	"github.com/khoahotran/chatbot-service/pkg/apperror"
	"github.com/khoahotran/chatbot-service/pkg/logger"
)

type ChatHandler struct {
	chatUseCase *chatUC.ChatUseCase
	showDetails bool
	logger      logger.Logger
}

// NewChatHandler builds the chat endpoint. showDetails exposes the failure text
// to clients and is meant for development only.
func NewChatHandler(uc *chatUC.ChatUseCase, showDetails bool, log logger.Logger) *ChatHandler {
	return &ChatHandler{
		chatUseCase: uc,
		showDetails: showDetails,
		logger:      log,
	}
}

func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.Error(apperror.NewInvalidInput("invalid JSON body", err))
		return
	}

	output, err := h.chatUseCase.Execute(c.Request.Context(), chatUC.ChatInput{Message: req.Message})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, ChatResponse{Response: output.Response})
}

func (h *ChatHandler) writeError(c *gin.Context, err error) {
	if errors.Is(err, apperror.ErrInvalidInput) {
		c.JSON(http.StatusBadRequest, ChatErrorResponse{Error: "Message is required"})
		return
	}

	h.logger.Warn("Chat Error", zap.Error(err))

	if errors.Is(err, apperror.ErrConfiguration) || strings.Contains(err.Error(), "API key") {
		c.JSON(http.StatusInternalServerError, ChatErrorResponse{Error: "AI service configuration error"})
		return
	}

	resp := ChatErrorResponse{Error: "Failed to process chat message"}
	if h.showDetails {
		resp.Details = err.Error()
	}
	c.JSON(http.StatusInternalServerError, resp)
}
