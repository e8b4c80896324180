package errorx

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrorHandler provides unified error handling for the HTTP surface.
type ErrorHandler struct {
	logger *zap.Logger
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *zap.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleError converts any error to an APIError response. Non-APIError
// values are logged with a trace id and surfaced as an opaque internal
// error.
func (h *ErrorHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		traceID := uuid.New().String()
		h.logger.Error("unhandled error",
			zap.String("trace_id", traceID),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.Error(err))
		apiErr = ErrInternal.WithDetail("trace_id", traceID)
	} else if apiErr.HTTPStatus >= 500 {
		h.logger.Error(apiErr.Message,
			zap.String("kind", string(apiErr.Kind)),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
	}

	c.AbortWithStatusJSON(apiErr.HTTPStatus, gin.H{"error": apiErr})
}

// RecoveryMiddleware returns a gin middleware for panic recovery
func (h *ErrorHandler) RecoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered interface{}) {
		h.logger.Error("panic recovered",
			zap.String("path", c.Request.URL.Path),
			zap.String("panic", fmt.Sprintf("%v", recovered)))
		h.HandleError(c, ErrInternal)
	})
}
