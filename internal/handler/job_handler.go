// internal/handler/job_handler.go
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"printer-service/internal/model"
	"printer-service/internal/repository"
	"printer-service/internal/utils"
)

// Reprinter prints an active order again on demand
type Reprinter interface {
	Reprint(ctx context.Context, orderID string) (*model.PrintJob, error)
}

// JobHandler exposes print job history and manual reprints
type JobHandler struct {
	jobs      repository.JobRepository
	reprinter Reprinter
	logger    *utils.ServiceLogger
}

// NewJobHandler creates a new job handler
func NewJobHandler(jobs repository.JobRepository, reprinter Reprinter, logger *zap.Logger) *JobHandler {
	return &JobHandler{
		jobs:      jobs,
		reprinter: reprinter,
		logger:    utils.NewServiceLogger(logger, "job-handler"),
	}
}

// RegisterRoutes registers job routes
func (h *JobHandler) RegisterRoutes(router *gin.RouterGroup) {
	jobs := router.Group("/jobs")
	{
		jobs.GET("", h.ListRecent)
		jobs.GET("/:id", h.GetJob)
	}

	router.POST("/orders/:id/print", h.ReprintOrder)
	router.GET("/orders/:id/jobs", h.ListByOrder)
}

// ListRecent returns the latest print jobs
func (h *JobHandler) ListRecent(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 500 {
			utils.ErrorResponse(c, http.StatusBadRequest, "limit must be between 1 and 500", err)
			return
		}
		limit = parsed
	}

	jobs, err := h.jobs.ListRecent(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list print jobs", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to list print jobs", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Print jobs retrieved successfully", gin.H{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

// GetJob returns one print job
func (h *JobHandler) GetJob(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid job ID", err)
		return
	}

	job, err := h.jobs.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.ErrorResponse(c, http.StatusNotFound, "Print job not found", err)
			return
		}
		h.logger.Error("Failed to get print job", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to get print job", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Print job retrieved successfully", job)
}

// ListByOrder returns the jobs recorded for one order
func (h *JobHandler) ListByOrder(c *gin.Context) {
	orderID := c.Param("id")
	if orderID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Order ID is required", nil)
		return
	}

	jobs, err := h.jobs.ListByOrder(c.Request.Context(), orderID)
	if err != nil {
		h.logger.Error("Failed to list order jobs", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to list order jobs", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Order jobs retrieved successfully", gin.H{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

// ReprintOrder prints an active order again
func (h *JobHandler) ReprintOrder(c *gin.Context) {
	orderID := c.Param("id")
	if orderID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Order ID is required", nil)
		return
	}

	job, err := h.reprinter.Reprint(c.Request.Context(), orderID)
	if err != nil {
		h.logger.Error("Reprint failed", zap.String("order_id", orderID), zap.Error(err))
		utils.ErrorResponse(c, http.StatusBadGateway, "Reprint failed", err)
		return
	}

	if !job.Printed() {
		utils.ErrorResponse(c, http.StatusBadGateway, "Reprint failed", errors.New(job.Message))
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Order reprinted", job)
}
