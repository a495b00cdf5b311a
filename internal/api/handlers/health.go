package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/edtriage/backend/internal/health"
	"github.com/edtriage/backend/internal/models"
	"github.com/gin-gonic/gin"
)

type HealthReporter interface {
	CheckAll(ctx context.Context) health.OverallHealth
}

type HealthHandler struct {
	checker HealthReporter
}

func NewHealthHandler(checker HealthReporter) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// HandleHealth reports per-dependency status. It answers 503 only when no
// model tier is reachable.
func (h *HealthHandler) HandleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	overall := h.checker.CheckAll(ctx)

	services := make(map[string]string, len(overall.Services))
	for _, s := range overall.Services {
		services[s.Name] = s.Status
	}

	code := http.StatusOK
	if overall.Status == health.StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, models.HealthResponse{
		Status:    overall.Status,
		Service:   "edtriage-backend",
		Timestamp: time.Now().Format(time.RFC3339),
		Services:  services,
	})
}
