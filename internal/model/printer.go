// internal/model/printer.go
package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// PrinterStatus represents the last known reachability of a printer
type PrinterStatus string

const (
	PrinterStatusUnknown PrinterStatus = "UNKNOWN"
	PrinterStatusOnline  PrinterStatus = "ONLINE"
	PrinterStatusOffline PrinterStatus = "OFFLINE"
	PrinterStatusError   PrinterStatus = "ERROR"
)

// JSONArray type for PostgreSQL JSONB arrays
type JSONArray []interface{}

func (j *JSONArray) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

func (j JSONArray) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// JSONObject type for PostgreSQL JSONB objects
type JSONObject map[string]interface{}

func (j *JSONObject) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

func (j JSONObject) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Printer represents a registered receipt printer
type Printer struct {
	ID          uuid.UUID     `json:"id" db:"id"`
	Name        string        `json:"name" db:"name"`
	LocalIP     string        `json:"local_ip" db:"local_ip"`
	Port        int           `json:"port" db:"port"`
	ForTakeaway bool          `json:"for_takeaway" db:"for_takeaway"`
	ForDineIn   bool          `json:"for_dine_in" db:"for_dine_in"`
	IsActive    bool          `json:"is_active" db:"is_active"`
	Status      PrinterStatus `json:"status" db:"status"`
	LastSeen    *time.Time    `json:"last_seen" db:"last_seen"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
}

// Dispatchable reports whether the printer can receive a print job at all.
// Entries missing an address are skipped without counting as failures.
func (p *Printer) Dispatchable() bool {
	return p.LocalIP != "" && p.Port > 0 && p.IsActive
}

// AppliesTo reports whether the printer is configured for the given order.
func (p *Printer) AppliesTo(order *Order) bool {
	if order.IsTakeaway() {
		return p.ForTakeaway
	}
	return p.ForDineIn
}

// IsOnline checks if the printer was reachable at last check
func (p *Printer) IsOnline() bool {
	return p.Status == PrinterStatusOnline
}

// DiscoveredPrinter represents a scan candidate that answered on a raw
// printing port but is not yet registered.
type DiscoveredPrinter struct {
	IP        string    `json:"ip"`
	Port      int       `json:"port"`
	OpenPorts []int     `json:"open_ports"`
	ProbedAt  time.Time `json:"probed_at"`
}
