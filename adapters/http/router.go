package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/khoahotran/chatbot-service/pkg/auth"
	"github.com/khoahotran/chatbot-service/pkg/logger"
)

// RouterDeps wires the API. UsageHandler, JWTService and Limiter are optional;
// the usage routes are mounted only when both UsageHandler and JWTService are set.
type RouterDeps struct {
	ChatHandler  *ChatHandler
	UsageHandler *UsageHandler
	JWTService   *auth.JWTService
	Limiter      RateLimiter
	CORSOrigins  []string
	Logger       logger.Logger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if len(deps.CORSOrigins) > 0 {
		router.Use(CORSMiddleware(deps.CORSOrigins))
	}
	if deps.Limiter != nil {
		router.Use(RateLimitMiddleware(deps.Limiter, deps.Logger))
	}
	router.Use(ErrorMiddleware(deps.Logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "timestamp": time.Now().UTC().Format(time.RFC3339)})
	})

	api := router.Group("/api")
	{
		// No authentication for chat
		api.POST("/chat", deps.ChatHandler.Chat)

		if deps.UsageHandler != nil && deps.JWTService != nil {
			private := api.Group("/")
			private.Use(AuthMiddleware(deps.JWTService, deps.Logger))
			{
				private.GET("/usage", deps.UsageHandler.ListGeminiUsage)
			}
		}
	}

	return router
}
