// Package handlers provides HTTP request handlers.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Pinger checks backend storage connectivity. Nil for the in-memory
// backend, which has nothing to ping.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	storage Pinger
	backend string
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(storage Pinger, backend string) *HealthHandler {
	return &HealthHandler{storage: storage, backend: backend}
}

// Live handles liveness probe (is the process alive?).
// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Ready handles readiness probe (is the service ready to accept traffic?).
// GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	checks := map[string]string{
		"storage": h.backend,
	}

	if h.storage != nil {
		if err := h.storage.Ping(c.Request.Context()); err != nil {
			checks["database"] = "unhealthy: " + err.Error()
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "error",
				"checks": checks,
			})
			return
		}
		checks["database"] = "healthy"
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"checks": checks,
	})
}

// Info returns application information.
// GET /health/info
func (h *HealthHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"app":     "tillpoint",
		"version": "0.1.0",
		"storage": h.backend,
	})
}
