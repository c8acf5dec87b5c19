package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/estate/api/internal/auth"
	"github.com/stwalsh4118/estate/api/internal/logger"
)

type staticRoles struct {
	roles map[uuid.UUID]string
	err   error
}

func (s staticRoles) RoleOf(_ context.Context, userID uuid.UUID) (string, error) {
	return s.roles[userID], s.err
}

func authRouter(verifier *auth.TokenVerifier, roles auth.RoleResolver) (*gin.Engine, **auth.Actor) {
	var seen *auth.Actor
	router := gin.New()
	router.Use(RequestID())
	router.Use(Logger(logger.Nop()))
	router.Use(Auth(verifier, roles))
	router.GET("/whoami", func(c *gin.Context) {
		seen = GetActor(c)
		c.String(http.StatusOK, "OK")
	})
	return router, &seen
}

func TestAuth(t *testing.T) {
	verifier := auth.NewTokenVerifier("test-secret")
	userID := uuid.New()
	roles := staticRoles{roles: map[uuid.UUID]string{userID: "admin"}}

	t.Run("anonymous request passes through", func(t *testing.T) {
		router, seen := authRouter(verifier, roles)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Nil(t, *seen)
	})

	t.Run("valid token resolves actor and role", func(t *testing.T) {
		router, seen := authRouter(verifier, roles)
		token, err := verifier.Issue(userID, time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, *seen)
		assert.Equal(t, userID, (*seen).ID)
		assert.Equal(t, auth.RoleAdmin, (*seen).Role)
	})

	t.Run("identity without profile is a plain user", func(t *testing.T) {
		router, seen := authRouter(verifier, roles)
		token, err := verifier.Issue(uuid.New(), time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.NotNil(t, *seen)
		assert.Equal(t, auth.RoleUser, (*seen).Role)
	})

	t.Run("rejects foreign signature", func(t *testing.T) {
		router, seen := authRouter(verifier, roles)
		token, err := auth.NewTokenVerifier("other-secret").Issue(userID, time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "UNAUTHORIZED")
		assert.NotEmpty(t, w.Header().Get("WWW-Authenticate"))
		assert.Nil(t, *seen)
	})

	t.Run("rejects non-bearer scheme", func(t *testing.T) {
		router, _ := authRouter(verifier, roles)

		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("role lookup failure is a server error", func(t *testing.T) {
		router, _ := authRouter(verifier, staticRoles{err: errors.New("connection refused")})
		token, err := verifier.Issue(userID, time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "INTERNAL_SERVER_ERROR")
	})
}

func TestGetActor_NotSet(t *testing.T) {
	c := &gin.Context{}
	assert.Nil(t, GetActor(c))
}
