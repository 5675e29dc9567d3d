package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/iwtcode/transferStation/internal/middleware/logging"

	"github.com/gin-gonic/gin"
)

// LoggingMiddleware пишет по строке на запрос. Сессия /ws логируется при закрытии,
// опрос /metrics и preflight запросы не логируются.
func LoggingMiddleware(parentLogger *logging.Logger) gin.HandlerFunc {
	logger := parentLogger.WithPrefix("HTTP")

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if c.Request.Method == http.MethodOptions || path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		fields := []interface{}{
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}

		switch status := c.Writer.Status(); {
		case path == "/ws":
			logger.Info("Websocket session closed", fields...)
		case status >= http.StatusInternalServerError:
			logger.Error("Request failed", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("Request rejected", fields...)
		case strings.HasPrefix(path, "/swagger"):
			logger.Debug("Request completed", fields...)
		default:
			logger.Info("Request completed", fields...)
		}
	}
}
