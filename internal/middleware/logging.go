package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/HuskeLuv/SFC-sub003/internal/logger"
)

// RequestIDKey holds the request id in the gin context.
const RequestIDKey = "requestID"

// RequestLogging tags each request with an id (reusing a well-formed inbound
// X-Request-ID) and logs one line per request. While a consultant acts for a
// client both user ids are logged.
func RequestLogging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader("X-Request-ID")
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDKey, requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)

		c.Next()

		fields := []interface{}{
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if id := c.GetString(UserIDKey); id != "" {
			fields = append(fields, "user_id", id)
		}
		if acting, ok := GetActing(c); ok && acting.IsActing() {
			fields = append(fields, "acting_client_id", acting.TargetUserID)
		}
		logger.Named("http").Infow("request", fields...)
	}
}
