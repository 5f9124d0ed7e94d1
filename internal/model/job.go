// internal/model/job.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the aggregate outcome of a print job
type JobStatus string

const (
	JobStatusPending        JobStatus = "PENDING"
	JobStatusSuccess        JobStatus = "SUCCESS"
	JobStatusPartialSuccess JobStatus = "PARTIAL_SUCCESS"
	JobStatusFailed         JobStatus = "FAILED"
)

// PrinterResult represents the outcome for one printer within a job
type PrinterResult struct {
	PrinterID   uuid.UUID `json:"printer_id"`
	PrinterName string    `json:"printer_name"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
	DurationMS  int64     `json:"duration_ms"`
}

// PrintJob represents one dispatch of an order to its applicable printers
type PrintJob struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	OrderID       string          `json:"order_id" db:"order_id"`
	OrderShortID  string          `json:"order_short_id" db:"order_short_id"`
	OverallStatus JobStatus       `json:"overall_status" db:"overall_status"`
	Message       string          `json:"message" db:"message"`
	Results       []PrinterResult `json:"results" db:"results"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	CompletedAt   *time.Time      `json:"completed_at" db:"completed_at"`
}

// Printed reports whether at least one printer produced the receipt
func (j *PrintJob) Printed() bool {
	return j.OverallStatus == JobStatusSuccess || j.OverallStatus == JobStatusPartialSuccess
}

// FailedPrinterNames returns the names of printers that did not print
func (j *PrintJob) FailedPrinterNames() []string {
	var names []string
	for _, r := range j.Results {
		if !r.Success {
			names = append(names, r.PrinterName)
		}
	}
	return names
}
