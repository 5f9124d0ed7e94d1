// internal/service/discovery_service.go
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"printer-service/internal/discovery"
	"printer-service/internal/model"
	"printer-service/internal/repository"
)

// Publisher pushes events to connected operator clients
type Publisher interface {
	Publish(eventType model.EventType, data model.JSONObject, severity string)
}

// ScanRequest controls a discovery run
type ScanRequest struct {
	SubnetBase           string `json:"subnet_base"`
	ScanSpeed            string `json:"scan_speed"`
	IncludeExtendedPorts bool   `json:"include_extended_ports"`
}

// AddDiscoveredRequest promotes a scan hit to a registered printer
type AddDiscoveredRequest struct {
	Name        string `json:"name" binding:"required"`
	IP          string `json:"ip" binding:"required"`
	Port        int    `json:"port"`
	ForTakeaway bool   `json:"for_takeaway"`
	ForDineIn   bool   `json:"for_dine_in"`
}

// DiscoveryService runs network scans and streams their progress to
// operator clients.
type DiscoveryService struct {
	logger      *zap.Logger
	scanner     *discovery.Scanner
	repo        repository.PrinterRepository
	events      Publisher
	defaultPort int

	mutex      sync.RWMutex
	lastResult *discovery.Result
	lastError  error
	lastRunAt  time.Time
}

// NewDiscoveryService creates a DiscoveryService
func NewDiscoveryService(logger *zap.Logger, scanner *discovery.Scanner, repo repository.PrinterRepository, events Publisher, defaultPort int) *DiscoveryService {
	if defaultPort <= 0 {
		defaultPort = 9100
	}
	return &DiscoveryService{
		logger:      logger.With(zap.String("service", "discovery")),
		scanner:     scanner,
		repo:        repo,
		events:      events,
		defaultPort: defaultPort,
	}
}

// StartScan launches a scan in the background. Progress and the final
// result are delivered over the event feed; only one scan runs at a time.
func (s *DiscoveryService) StartScan(ctx context.Context, req *ScanRequest) error {
	opts := discovery.Options{
		SubnetBase:           req.SubnetBase,
		ScanSpeed:            req.ScanSpeed,
		IncludeExtendedPorts: req.IncludeExtendedPorts,
		OnProgress: func(current, total, found int) {
			s.events.Publish(model.EventScanProgress, model.JSONObject{
				"current": current,
				"total":   total,
				"found":   found,
			}, "INFO")
		},
		OnLog: func(message string) {
			s.events.Publish(model.EventScanLog, model.JSONObject{
				"message": message,
			}, "INFO")
		},
	}

	// Reserve the scanner before going async so a second request gets
	// the conflict error synchronously.
	if err := s.scanner.Reserve(); err != nil {
		return err
	}

	s.events.Publish(model.EventScanStarted, model.JSONObject{
		"scan_speed": req.ScanSpeed,
	}, "INFO")

	// The scan outlives the HTTP request that started it
	scanCtx := context.WithoutCancel(ctx)

	go func() {
		result, err := s.scanner.RunReserved(scanCtx, opts)

		s.mutex.Lock()
		s.lastResult = result
		s.lastError = err
		s.lastRunAt = time.Now()
		s.mutex.Unlock()

		if err != nil {
			s.logger.Error("Network scan failed", zap.Error(err))
			s.events.Publish(model.EventScanCompleted, model.JSONObject{
				"error": err.Error(),
			}, "ERROR")
			return
		}

		s.events.Publish(model.EventScanCompleted, model.JSONObject{
			"printers":        result.Printers,
			"hosts_scanned":   result.HostsScanned,
			"hosts_reachable": result.HostsReachable,
			"duration_ms":     result.Duration.Milliseconds(),
		}, "INFO")
	}()

	return nil
}

// LastResult returns the most recent finished scan, if any
func (s *DiscoveryService) LastResult() (*discovery.Result, time.Time, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.lastResult, s.lastRunAt, s.lastError
}

// AddDiscovered registers a printer found by a scan
func (s *DiscoveryService) AddDiscovered(ctx context.Context, req *AddDiscoveredRequest) (*model.Printer, error) {
	port := req.Port
	if port == 0 {
		port = s.defaultPort
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid printer port: %d", port)
	}

	printer := &model.Printer{
		ID:          uuid.New(),
		Name:        req.Name,
		LocalIP:     req.IP,
		Port:        port,
		ForTakeaway: req.ForTakeaway,
		ForDineIn:   req.ForDineIn,
		IsActive:    true,
		Status:      model.PrinterStatusOnline,
	}

	if err := s.repo.Create(ctx, printer); err != nil {
		return nil, err
	}

	s.logger.Info("Discovered printer registered",
		zap.String("name", printer.Name),
		zap.String("address", fmt.Sprintf("%s:%d", printer.LocalIP, printer.Port)),
	)
	return printer, nil
}
