package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/estate/api/internal/middleware"
)

const (
	// APIVersion is the current version of the API
	APIVersion = "0.1.0"
	// HealthCheckTimeout is the timeout for dependency health checks
	HealthCheckTimeout = 2 * time.Second
)

// Pinger is a dependency whose availability can be checked.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// Ping calls f(ctx).
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthHandler handles health check and readiness endpoints.
type HealthHandler struct {
	db        Pinger
	cache     Pinger
	startTime time.Time
	env       string
}

// NewHealthHandler creates a new HealthHandler instance. cache may be nil
// when drafts are kept in memory.
func NewHealthHandler(db, cache Pinger, env string) *HealthHandler {
	return &HealthHandler{
		db:        db,
		cache:     cache,
		startTime: time.Now(),
		env:       env,
	}
}

// HealthResponse represents the basic health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse represents the readiness check response.
type ReadyResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Cache    string `json:"cache,omitempty"`
}

// InfoResponse represents the API information response.
type InfoResponse struct {
	Version     string `json:"version"`
	Environment string `json:"environment"`
	Uptime      string `json:"uptime"`
}

// Health handles GET /health endpoint.
// This is a basic health check that always returns 200 OK.
// It does not check any dependencies and is used for basic liveness checks.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "healthy",
	})
}

// Ready handles GET /health/ready endpoint.
// Returns 200 OK when the database and the draft cache answer, 503 Service
// Unavailable otherwise.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), HealthCheckTimeout)
	defer cancel()

	response := ReadyResponse{Status: "ready", Database: "connected"}
	status := http.StatusOK

	if err := h.db.Ping(ctx); err != nil {
		h.logFailure(c, "Database health check failed", err)
		response.Database = "disconnected"
		status = http.StatusServiceUnavailable
	}

	if h.cache != nil {
		response.Cache = "connected"
		if err := h.cache.Ping(ctx); err != nil {
			h.logFailure(c, "Cache health check failed", err)
			response.Cache = "disconnected"
			status = http.StatusServiceUnavailable
		}
	}

	if status != http.StatusOK {
		response.Status = "not_ready"
	}
	c.JSON(status, response)
}

func (h *HealthHandler) logFailure(c *gin.Context, msg string, err error) {
	if log := middleware.GetLogger(c); log != nil {
		log.Error(msg, err, map[string]interface{}{
			"timeout": HealthCheckTimeout.String(),
		})
	}
}

// Info handles GET /api/v1/info endpoint.
// Returns API metadata including version, environment, and uptime.
func (h *HealthHandler) Info(c *gin.Context) {
	uptime := time.Since(h.startTime)

	c.JSON(http.StatusOK, InfoResponse{
		Version:     APIVersion,
		Environment: h.env,
		Uptime:      formatUptime(uptime),
	})
}

// formatUptime formats a duration into a human-readable string.
func formatUptime(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}
