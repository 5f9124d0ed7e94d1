// internal/handler/printer_handler.go
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"printer-service/internal/repository"
	"printer-service/internal/service"
	"printer-service/internal/utils"
)

// PrinterHandler handles printer registry and manual print requests
type PrinterHandler struct {
	printerService *service.PrinterService
	logger         *utils.ServiceLogger
}

// NewPrinterHandler creates a new printer handler
func NewPrinterHandler(printerService *service.PrinterService, logger *zap.Logger) *PrinterHandler {
	return &PrinterHandler{
		printerService: printerService,
		logger:         utils.NewServiceLogger(logger, "printer-handler"),
	}
}

// RegisterRoutes registers printer-related routes
func (h *PrinterHandler) RegisterRoutes(router *gin.RouterGroup) {
	printers := router.Group("/printers")
	{
		printers.POST("", h.CreatePrinter)
		printers.GET("", h.ListPrinters)

		printerRoutes := printers.Group("/:id")
		{
			printerRoutes.GET("", h.GetPrinter)
			printerRoutes.PUT("", h.UpdatePrinter)
			printerRoutes.DELETE("", h.DeletePrinter)
			printerRoutes.POST("/test", h.TestPrint)
			printerRoutes.POST("/probe", h.ProbePrinter)
			printerRoutes.POST("/aggressive-test", h.AggressiveTest)
		}
	}

	transport := router.Group("/transport")
	{
		transport.POST("/reset", h.ResetTransport)
		transport.GET("/status", h.TransportStatus)
	}
}

// CreatePrinter registers a new printer
func (h *PrinterHandler) CreatePrinter(c *gin.Context) {
	var req service.CreatePrinterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	printer, err := h.printerService.CreatePrinter(c.Request.Context(), &req)
	if err != nil {
		h.logger.Error("Failed to create printer", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to create printer", err)
		return
	}

	h.logger.Info("Printer registered", zap.String("printer_id", printer.ID.String()))
	utils.SuccessResponse(c, http.StatusCreated, "Printer registered successfully", printer)
}

// ListPrinters lists all registered printers
func (h *PrinterHandler) ListPrinters(c *gin.Context) {
	printers, err := h.printerService.ListPrinters(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list printers", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to list printers", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Printers retrieved successfully", gin.H{
		"printers": printers,
		"count":    len(printers),
	})
}

// GetPrinter returns one printer
func (h *PrinterHandler) GetPrinter(c *gin.Context) {
	id, ok := h.printerID(c)
	if !ok {
		return
	}

	printer, err := h.printerService.GetPrinter(c.Request.Context(), id)
	if err != nil {
		h.respondRepoError(c, "Failed to get printer", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Printer retrieved successfully", printer)
}

// UpdatePrinter applies partial changes to a printer
func (h *PrinterHandler) UpdatePrinter(c *gin.Context) {
	id, ok := h.printerID(c)
	if !ok {
		return
	}

	var req service.UpdatePrinterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	printer, err := h.printerService.UpdatePrinter(c.Request.Context(), id, &req)
	if err != nil {
		h.respondRepoError(c, "Failed to update printer", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Printer updated successfully", printer)
}

// DeletePrinter removes a printer
func (h *PrinterHandler) DeletePrinter(c *gin.Context) {
	id, ok := h.printerID(c)
	if !ok {
		return
	}

	if err := h.printerService.DeletePrinter(c.Request.Context(), id); err != nil {
		h.respondRepoError(c, "Failed to delete printer", err)
		return
	}

	h.logger.Info("Printer deleted", zap.String("printer_id", id.String()))
	utils.SuccessResponse(c, http.StatusOK, "Printer deleted successfully", nil)
}

// TestPrint sends a sample receipt to the printer
func (h *PrinterHandler) TestPrint(c *gin.Context) {
	id, ok := h.printerID(c)
	if !ok {
		return
	}

	job, err := h.printerService.TestPrint(c.Request.Context(), id)
	if err != nil {
		h.respondRepoError(c, "Failed to run test print", err)
		return
	}

	if !job.Printed() {
		utils.ErrorResponse(c, http.StatusBadGateway, "Test print failed", errors.New(job.Message))
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Test print sent", job)
}

// ProbePrinter checks printer reachability and records the result
func (h *PrinterHandler) ProbePrinter(c *gin.Context) {
	id, ok := h.printerID(c)
	if !ok {
		return
	}

	status, err := h.printerService.ProbePrinter(c.Request.Context(), id)
	if err != nil {
		h.respondRepoError(c, "Failed to probe printer", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Printer probed", gin.H{"status": status})
}

// AggressiveTest stress tests connection handling against one printer
func (h *PrinterHandler) AggressiveTest(c *gin.Context) {
	id, ok := h.printerID(c)
	if !ok {
		return
	}

	cycles := 3
	if raw := c.Query("cycles"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 20 {
			utils.ErrorResponse(c, http.StatusBadRequest, "cycles must be between 1 and 20", err)
			return
		}
		cycles = parsed
	}

	result, err := h.printerService.AggressiveTest(c.Request.Context(), id, cycles)
	if err != nil {
		h.respondRepoError(c, "Aggressive test failed", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Aggressive test completed", result)
}

// ResetTransport force-closes all tracked printer connections
func (h *PrinterHandler) ResetTransport(c *gin.Context) {
	closed := h.printerService.ResetTransport()
	h.logger.Info("Transport reset requested", zap.Int("connections_closed", closed))
	utils.SuccessResponse(c, http.StatusOK, "Transport reset", gin.H{"connections_closed": closed})
}

// TransportStatus returns tracked connection info
func (h *PrinterHandler) TransportStatus(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Transport status", h.printerService.TransportStatus())
}

func (h *PrinterHandler) printerID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid printer ID", err)
		return uuid.Nil, false
	}
	return id, true
}

func (h *PrinterHandler) respondRepoError(c *gin.Context, message string, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		utils.ErrorResponse(c, http.StatusNotFound, "Printer not found", err)
		return
	}
	h.logger.Error(message, zap.Error(err))
	utils.ErrorResponse(c, http.StatusInternalServerError, message, err)
}
