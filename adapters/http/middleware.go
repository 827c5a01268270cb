package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/chatbot-service/pkg/apperror"
	"github.com/khoahotran/chatbot-service/pkg/auth"
	"github.com/khoahotran/chatbot-service/pkg/logger"
)

const (
	GinContextKeyOperatorID = "operatorID"
)

type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, int, error)
}

func ErrorMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status := apperror.ToHTTPStatus(err)

		var appErr *apperror.AppError
		if errors.As(err, &appErr) && status != http.StatusInternalServerError {
			log.Warn("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
			c.JSON(status, appErr.ToJSON())
			return
		}

		log.Error("Unhandled Error", err, zap.String("path", c.FullPath()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// AuthMiddleware rejects requests without a valid operator bearer token. The
// rejection is rendered by ErrorMiddleware.
func AuthMiddleware(jwtSvc *auth.JWTService, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Error(apperror.NewUnauthorized("Authorization header is required", nil))
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.Error(apperror.NewUnauthorized("Invalid token format", nil))
			c.Abort()
			return
		}

		claims, err := jwtSvc.ValidateToken(tokenString)
		if err != nil {
			log.Warn("Rejected bearer token", zap.Error(err))
			c.Error(apperror.NewUnauthorized("Invalid or expired token", err))
			c.Abort()
			return
		}

		c.Set(GinContextKeyOperatorID, claims.OperatorID)

		c.Next()
	}
}

func GetOperatorIDFromGinContext(c *gin.Context) (uuid.UUID, bool) {
	operatorID, ok := c.Get(GinContextKeyOperatorID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := operatorID.(uuid.UUID)
	if !ok {
		return uuid.Nil, false
	}
	return id, true
}

// RateLimitMiddleware limits requests per client IP. Requests pass when the
// limiter itself fails.
func RateLimitMiddleware(limiter RateLimiter, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, remaining, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			log.Warn("Rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests, please try again later."})
			return
		}

		c.Next()
	}
}

func CORSMiddleware(origins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "X-Project-ID"},
		ExposeHeaders:    []string{"Access-Control-Allow-Origin"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}
