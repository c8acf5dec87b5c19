package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/estate/api/internal/auth"
)

// ActorKey is the context key for the authenticated actor
const ActorKey = "actor"

// Auth resolves an optional bearer token into an auth.Actor. Requests
// without an Authorization header pass through anonymously; the services
// decide whether an identity is required. A header that is present but
// invalid is rejected with 401.
func Auth(verifier *auth.TokenVerifier, roles auth.RoleResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			abortAuth(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization header must be a bearer token", nil)
			return
		}

		actor, err := auth.Authenticate(c.Request.Context(), verifier, roles, strings.TrimSpace(token))
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				abortAuth(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired access token", err)
				return
			}
			abortAuth(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "An unexpected error occurred", err)
			return
		}

		c.Set(ActorKey, actor)
		if log := GetLogger(c); log != nil {
			c.Set(LoggerKey, log.With(map[string]interface{}{
				"actor_id": actor.ID.String(),
				"role":     string(actor.Role),
			}))
		}
		c.Next()
	}
}

func abortAuth(c *gin.Context, status int, code, message string, err error) {
	requestID := GetRequestID(c)

	if log := GetLogger(c); log != nil {
		fields := map[string]interface{}{
			"request_id": requestID,
			"path":       c.Request.URL.Path,
		}
		if status >= http.StatusInternalServerError {
			log.Error("Failed to authenticate request", err, fields)
		} else {
			if err != nil {
				fields["error"] = err.Error()
			}
			log.Warn("Rejected credentials", fields)
		}
	}

	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", `Bearer realm="estate"`)
	}
	abortWithError(c, status, code, message)
}

// GetActor retrieves the authenticated actor from the Gin context.
// Returns nil for anonymous requests.
func GetActor(c *gin.Context) *auth.Actor {
	if v, exists := c.Get(ActorKey); exists {
		if actor, ok := v.(*auth.Actor); ok {
			return actor
		}
	}
	return nil
}
