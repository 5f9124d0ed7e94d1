// internal/handler/discovery_handler.go
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"printer-service/internal/discovery"
	"printer-service/internal/service"
	"printer-service/internal/utils"
)

// DiscoveryHandler handles network scan requests
type DiscoveryHandler struct {
	discoveryService *service.DiscoveryService
	logger           *utils.ServiceLogger
}

// NewDiscoveryHandler creates a new discovery handler
func NewDiscoveryHandler(discoveryService *service.DiscoveryService, logger *zap.Logger) *DiscoveryHandler {
	return &DiscoveryHandler{
		discoveryService: discoveryService,
		logger:           utils.NewServiceLogger(logger, "discovery-handler"),
	}
}

// RegisterRoutes registers discovery routes
func (h *DiscoveryHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/discovery")
	{
		group.POST("/scan", h.StartScan)
		group.GET("/result", h.LastResult)
		group.POST("/add", h.AddDiscovered)
	}
}

// StartScan kicks off a background network scan. Progress arrives over
// the event WebSocket.
func (h *DiscoveryHandler) StartScan(c *gin.Context) {
	// An empty body means a default scan
	var req service.ScanRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	if err := h.discoveryService.StartScan(c.Request.Context(), &req); err != nil {
		if errors.Is(err, discovery.ErrScanInProgress) {
			utils.ErrorResponse(c, http.StatusConflict, "A scan is already in progress", err)
			return
		}
		h.logger.Error("Failed to start scan", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to start scan", err)
		return
	}

	utils.SuccessResponse(c, http.StatusAccepted, "Scan started", nil)
}

// LastResult returns the most recent finished scan
func (h *DiscoveryHandler) LastResult(c *gin.Context) {
	result, runAt, err := h.discoveryService.LastResult()
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Last scan failed", err)
		return
	}
	if result == nil {
		utils.SuccessResponse(c, http.StatusOK, "No scan has run yet", nil)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Scan result", gin.H{
		"result": result,
		"run_at": runAt,
	})
}

// AddDiscovered registers a printer found by a scan
func (h *DiscoveryHandler) AddDiscovered(c *gin.Context) {
	var req service.AddDiscoveredRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	printer, err := h.discoveryService.AddDiscovered(c.Request.Context(), &req)
	if err != nil {
		h.logger.Error("Failed to add discovered printer", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to add printer", err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Printer registered successfully", printer)
}
