// internal/handler/alert_handler.go
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"printer-service/internal/orchestrator"
	"printer-service/internal/utils"
)

// AlertHandler exposes the staff alert state
type AlertHandler struct {
	orchestrator *orchestrator.Orchestrator
	logger       *utils.ServiceLogger
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(orch *orchestrator.Orchestrator, logger *zap.Logger) *AlertHandler {
	return &AlertHandler{
		orchestrator: orch,
		logger:       utils.NewServiceLogger(logger, "alert-handler"),
	}
}

// RegisterRoutes registers alert routes
func (h *AlertHandler) RegisterRoutes(router *gin.RouterGroup) {
	alerts := router.Group("/alerts")
	{
		alerts.GET("/status", h.Status)
		alerts.POST("/dismiss", h.Dismiss)
	}
}

// Status returns the current alert and pipeline state
func (h *AlertHandler) Status(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Alert status", h.orchestrator.Status())
}

// Dismiss acknowledges the current alert
func (h *AlertHandler) Dismiss(c *gin.Context) {
	h.orchestrator.Dismiss()
	h.logger.Info("Alert dismissed via API")
	utils.SuccessResponse(c, http.StatusOK, "Alert dismissed", h.orchestrator.Status())
}
