// internal/model/event.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of event
type EventType string

const (
	EventScanStarted    EventType = "SCAN_STARTED"
	EventScanProgress   EventType = "SCAN_PROGRESS"
	EventScanLog        EventType = "SCAN_LOG"
	EventScanCompleted  EventType = "SCAN_COMPLETED"
	EventOrderAlert     EventType = "ORDER_ALERT"
	EventAlertDismissed EventType = "ALERT_DISMISSED"
	EventPrintResult    EventType = "PRINT_RESULT"
	EventStreamHealth   EventType = "STREAM_HEALTH"
	EventPrinterStatus  EventType = "PRINTER_STATUS"
)

// Event represents a notification pushed to operator clients
type Event struct {
	ID        uuid.UUID  `json:"id"`
	EventType EventType  `json:"event_type"`
	Data      JSONObject `json:"data"`
	Timestamp time.Time  `json:"timestamp"`
	Source    string     `json:"source"`
	Severity  string     `json:"severity"` // INFO, WARNING, ERROR, CRITICAL
}

// ScanProgressEventData reports how far a network scan has advanced
type ScanProgressEventData struct {
	Current int `json:"current"`
	Total   int `json:"total"`
	Found   int `json:"found"`
}

// OrderAlertEventData carries the orders behind a staff alert
type OrderAlertEventData struct {
	OrderIDs []string `json:"order_ids"`
	Count    int      `json:"count"`
}

// PrintResultEventData summarizes a finished print job
type PrintResultEventData struct {
	JobID          uuid.UUID `json:"job_id"`
	OrderID        string    `json:"order_id"`
	OverallStatus  JobStatus `json:"overall_status"`
	FailedPrinters []string  `json:"failed_printers,omitempty"`
}

// StreamHealthEventData reports order stream connectivity
type StreamHealthEventData struct {
	Healthy     bool      `json:"healthy"`
	LastEventAt time.Time `json:"last_event_at"`
}
