package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/estate/api/internal/logger"
)

// LoggerKey is the context key for the request-scoped logger
const LoggerKey = "logger"

// Logger stores a request-scoped logger in the context and writes one line
// per request once the handlers are done. The line carries the matched
// route, the caller identity resolved by Auth and the upload size of
// multipart requests. Successful health checks from load balancers are
// logged at debug level.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestLogger := log.WithRequestID(GetRequestID(c))
		c.Set(LoggerKey, requestLogger)

		c.Next()

		status := c.Writer.Status()
		fields := map[string]interface{}{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      status,
			"duration_ms": time.Since(start).Milliseconds(),
			"ip":          c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
			"bytes_out":   c.Writer.Size(),
		}
		if route := c.FullPath(); route != "" {
			fields["route"] = route
		}
		if c.Request.URL.RawQuery != "" {
			fields["query"] = c.Request.URL.RawQuery
		}
		if strings.HasPrefix(c.ContentType(), "multipart/") {
			fields["bytes_in"] = c.Request.ContentLength
		}
		if actor := GetActor(c); actor != nil {
			fields["actor_id"] = actor.ID.String()
			fields["role"] = string(actor.Role)
		}
		if location := c.Writer.Header().Get("Location"); location != "" && status == http.StatusAccepted {
			fields["media_job"] = location
		}
		if len(c.Errors) > 0 && status >= http.StatusBadRequest {
			fields["errors"] = c.Errors.String()
		}

		switch {
		case status >= http.StatusInternalServerError:
			requestLogger.Error("Request completed with server error", nil, fields)
		case status >= http.StatusBadRequest:
			requestLogger.Warn("Request completed with client error", fields)
		case strings.HasPrefix(c.Request.URL.Path, "/health"):
			requestLogger.Debug("Health check completed", fields)
		default:
			requestLogger.Info("Request completed", fields)
		}
	}
}

// GetLogger retrieves the logger from the Gin context.
// Returns nil if not found.
func GetLogger(c *gin.Context) *logger.Logger {
	if v, exists := c.Get(LoggerKey); exists {
		if log, ok := v.(*logger.Logger); ok {
			return log
		}
	}
	return nil
}
