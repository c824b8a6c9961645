package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/simaogato/bizplan-backend/internal/domain"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error         string `json:"error"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// sendError logs the failure and aborts the request with an ErrorResponse
func (h *Handler) sendError(c *gin.Context, statusCode int, message string, err error) {
	correlationID := c.GetString(correlationIDKey)

	fields := []zap.Field{
		zap.Int("status", statusCode),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
		zap.String("correlation_id", correlationID),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}

	if statusCode >= http.StatusInternalServerError {
		h.Logger.Error(message, fields...)
	} else {
		h.Logger.Debug(message, fields...)
	}

	c.AbortWithStatusJSON(statusCode, ErrorResponse{
		Error:         message,
		CorrelationID: correlationID,
	})
}

// handleDomainError maps domain errors to HTTP statuses
func (h *Handler) handleDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		h.sendError(c, http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, domain.ErrNotFound):
		h.sendError(c, http.StatusNotFound, err.Error(), err)
	case errors.Is(err, domain.ErrForbidden):
		h.sendError(c, http.StatusForbidden, err.Error(), err)
	case errors.Is(err, domain.ErrNotComputable):
		h.sendError(c, http.StatusUnprocessableEntity, err.Error(), err)
	default:
		h.sendError(c, http.StatusInternalServerError, "internal error", err)
	}
}
