package rest

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// UserIDHeader carries the caller's user id
	UserIDHeader = "X-User-ID"
	// CorrelationIDHeader is echoed on every response
	CorrelationIDHeader = "X-Correlation-ID"

	correlationIDKey = "correlation_id"
	userIDKey        = "user_id"
)

// CorrelationIDMiddleware reuses the caller's correlation id or generates a new one
func CorrelationIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := c.GetHeader(CorrelationIDHeader)
		if correlationID == "" {
			correlationID = uuid.New().String()
		}

		c.Set(correlationIDKey, correlationID)
		c.Header(CorrelationIDHeader, correlationID)
		c.Next()
	}
}

// RequestLogger logs one line per request after it completes
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("correlation_id", c.GetString(correlationIDKey)),
		)
	}
}

// AuthMiddleware checks the bearer token and resolves the caller from X-User-ID
func AuthMiddleware(apiToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
		if token == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(apiToken)) != 1 {
			abortUnauthorized(c, "invalid token")
			return
		}

		raw := c.GetHeader(UserIDHeader)
		if raw == "" {
			abortUnauthorized(c, "missing user id header")
			return
		}
		userID, err := uuid.Parse(raw)
		if err != nil || userID == uuid.Nil {
			abortUnauthorized(c, "invalid user id")
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
		Error:         message,
		CorrelationID: c.GetString(correlationIDKey),
	})
}

// currentUser returns the id set by AuthMiddleware
func currentUser(c *gin.Context) uuid.UUID {
	userID, _ := c.MustGet(userIDKey).(uuid.UUID)
	return userID
}
