package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/estate/api/internal/logger"
)

// Recovery turns a handler panic into a 500 with the standard error body.
// If the handler already started writing, the response is only aborted.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}

			requestLogger := GetLogger(c)
			if requestLogger == nil {
				requestLogger = log
			}
			fields := map[string]interface{}{
				"request_id": GetRequestID(c),
				"method":     c.Request.Method,
				"route":      c.FullPath(),
				"stack":      string(debug.Stack()),
			}
			if actor := GetActor(c); actor != nil {
				fields["actor_id"] = actor.ID.String()
			}
			requestLogger.Error("Panic recovered", fmt.Errorf("panic: %v", recovered), fields)

			if c.Writer.Written() {
				c.Abort()
				return
			}
			abortWithError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "An unexpected error occurred")
		}()

		c.Next()
	}
}

// abortWithError writes the error envelope shared with the handlers.
func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":       code,
			"message":    message,
			"request_id": GetRequestID(c),
		},
	})
}
