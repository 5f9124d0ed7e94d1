// internal/handler/health_handler.go
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"printer-service/internal/config"
	"printer-service/internal/database"
	"printer-service/internal/orchestrator"
	"printer-service/internal/utils"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	db           *database.DB
	config       *config.Config
	orchestrator *orchestrator.Orchestrator
	logger       *utils.ServiceLogger
	startedAt    time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *database.DB, config *config.Config, orch *orchestrator.Orchestrator, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:           db,
		config:       config,
		orchestrator: orch,
		logger:       utils.NewServiceLogger(logger, "health-handler"),
		startedAt:    time.Now(),
	}
}

// RegisterRoutes registers health check routes
func (h *HealthHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/health", h.HealthCheck)
	router.GET("/health/db", h.DatabaseHealthCheck)
	router.GET("/ready", h.ReadinessCheck)
	router.GET("/live", h.LivenessCheck)
}

// HealthCheck performs the overall service health check
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	health := &HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Service:   h.config.App.Name,
		Version:   h.config.App.Version,
		Uptime:    time.Since(h.startedAt).String(),
		Checks:    make(map[string]CheckResult),
	}

	if err := h.db.HealthCheck(c.Request.Context()); err != nil {
		health.Status = "unhealthy"
		health.Checks["database"] = CheckResult{
			Status:  "unhealthy",
			Message: err.Error(),
		}
	} else {
		health.Checks["database"] = CheckResult{
			Status:  "healthy",
			Message: "Database connection OK",
		}
	}

	if h.orchestrator != nil {
		status := h.orchestrator.Status()
		streamStatus := "healthy"
		if !status.StreamHealthy {
			// The poll loop still works without the stream, degraded
			// rather than unhealthy
			streamStatus = "degraded"
		}
		health.Checks["order_stream"] = CheckResult{
			Status: streamStatus,
			Data: map[string]interface{}{
				"last_poll_at":  status.LastPollAt,
				"alert_showing": status.AlertShowing,
			},
		}
	}

	statusCode := http.StatusOK
	if health.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, health)
}

// DatabaseHealthCheck checks database connectivity
func (h *HealthHandler) DatabaseHealthCheck(c *gin.Context) {
	startTime := time.Now()

	if err := h.db.HealthCheck(c.Request.Context()); err != nil {
		h.logger.Error("Database health check failed", zap.Error(err))
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "Database unhealthy", err)
		return
	}

	stats := h.db.GetStats()
	response := gin.H{
		"status":           "healthy",
		"response_time_ms": time.Since(startTime).Milliseconds(),
		"stats": gin.H{
			"open_connections": stats.OpenConnections,
			"in_use":           stats.InUse,
			"idle":             stats.Idle,
			"wait_count":       stats.WaitCount,
			"wait_duration":    stats.WaitDuration,
		},
	}

	utils.SuccessResponse(c, http.StatusOK, "Database is healthy", response)
}

// ReadinessCheck for Kubernetes readiness probe
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	if err := h.db.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "database not available",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"timestamp": time.Now(),
	})
}

// LivenessCheck for Kubernetes liveness probe
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now(),
	})
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Service   string                 `json:"service"`
	Version   string                 `json:"version"`
	Uptime    string                 `json:"uptime"`
	Checks    map[string]CheckResult `json:"checks"`
}

// CheckResult represents individual check result
type CheckResult struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
}
