package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

// RequestLogger stores a per-request zap logger under "logger" in the gin
// context, tagged with the request id and client IP.
func RequestLogger(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)
		c.Set("logger", base.With(
			zap.String("requestId", requestID),
			zap.String("ip", getClientIP(c)),
		))
		c.Next()
	}
}
