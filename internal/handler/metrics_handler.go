package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lgdark7/timetable/internal/service"
	appErrors "github.com/lgdark7/timetable/pkg/errors"
	"github.com/lgdark7/timetable/pkg/response"
)

const readinessTimeout = 2 * time.Second

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	checks  []ReadinessCheck
}

// NewMetricsHandler constructs a metrics handler.
func NewMetricsHandler(metrics *service.MetricsService, checks ...ReadinessCheck) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, checks: checks}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.AbortWithStatus(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health responds with a generic OK payload for liveness usage.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready runs every readiness check and reports 503 when one fails.
func (h *MetricsHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for _, check := range h.checks {
		if err := check.Check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			results[check.Name] = err.Error()
			continue
		}
		results[check.Name] = "ok"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "unavailable"
	}
	c.JSON(status, gin.H{"status": overall, "checks": results})
}

// Summary godoc
// @Summary Service metrics summary
// @Tags System
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /system/metrics [get]
func (h *MetricsHandler) Summary(c *gin.Context) {
	if h.metrics == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrPreconditionFailed, "metrics are disabled"))
		return
	}
	response.JSON(c, http.StatusOK, h.metrics.Snapshot())
}
