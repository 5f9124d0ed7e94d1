// internal/service/printer_service.go
package service

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"printer-service/internal/config"
	"printer-service/internal/dispatch"
	"printer-service/internal/model"
	"printer-service/internal/repository"
	"printer-service/internal/transport"
)

// CreatePrinterRequest is the payload for registering a printer
type CreatePrinterRequest struct {
	Name        string `json:"name" binding:"required"`
	LocalIP     string `json:"local_ip" binding:"required"`
	Port        int    `json:"port"`
	ForTakeaway bool   `json:"for_takeaway"`
	ForDineIn   bool   `json:"for_dine_in"`
	IsActive    *bool  `json:"is_active"`
}

// UpdatePrinterRequest is the payload for modifying a printer
type UpdatePrinterRequest struct {
	Name        *string `json:"name"`
	LocalIP     *string `json:"local_ip"`
	Port        *int    `json:"port"`
	ForTakeaway *bool   `json:"for_takeaway"`
	ForDineIn   *bool   `json:"for_dine_in"`
	IsActive    *bool   `json:"is_active"`
}

// AggressiveTestResult reports the outcome of a stress test run
type AggressiveTestResult struct {
	Cycles        int   `json:"cycles"`
	RealSuccesses int   `json:"real_successes"`
	RealFailures  int   `json:"real_failures"`
	FakeHandled   int   `json:"fake_handled"`
	LeakedAfter   int   `json:"leaked_after"`
	DurationMS    int64 `json:"duration_ms"`
}

// PrinterService owns printer registry operations and manual print surface
type PrinterService struct {
	logger     *zap.Logger
	config     *config.PrinterConfig
	repo       repository.PrinterRepository
	transport  *transport.Transport
	dispatcher *dispatch.Dispatcher
}

// NewPrinterService creates a PrinterService
func NewPrinterService(logger *zap.Logger, cfg *config.PrinterConfig, repo repository.PrinterRepository, tr *transport.Transport, dispatcher *dispatch.Dispatcher) *PrinterService {
	return &PrinterService{
		logger:     logger.With(zap.String("service", "printer")),
		config:     cfg,
		repo:       repo,
		transport:  tr,
		dispatcher: dispatcher,
	}
}

// CreatePrinter validates and registers a printer
func (s *PrinterService) CreatePrinter(ctx context.Context, req *CreatePrinterRequest) (*model.Printer, error) {
	if net.ParseIP(req.LocalIP) == nil {
		return nil, fmt.Errorf("invalid printer IP address: %s", req.LocalIP)
	}
	port := req.Port
	if port == 0 {
		port = s.config.DefaultPort
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid printer port: %d", port)
	}

	printer := &model.Printer{
		ID:          uuid.New(),
		Name:        req.Name,
		LocalIP:     req.LocalIP,
		Port:        port,
		ForTakeaway: req.ForTakeaway,
		ForDineIn:   req.ForDineIn,
		IsActive:    true,
		Status:      model.PrinterStatusUnknown,
	}
	if req.IsActive != nil {
		printer.IsActive = *req.IsActive
	}

	if err := s.repo.Create(ctx, printer); err != nil {
		return nil, err
	}
	return printer, nil
}

// GetPrinter returns one printer
func (s *PrinterService) GetPrinter(ctx context.Context, id uuid.UUID) (*model.Printer, error) {
	return s.repo.GetByID(ctx, id)
}

// ListPrinters returns all registered printers
func (s *PrinterService) ListPrinters(ctx context.Context) ([]*model.Printer, error) {
	return s.repo.List(ctx)
}

// ListActive satisfies the orchestrator's printer source
func (s *PrinterService) ListActive(ctx context.Context) ([]*model.Printer, error) {
	return s.repo.ListActive(ctx)
}

// UpdatePrinter applies partial changes to a printer
func (s *PrinterService) UpdatePrinter(ctx context.Context, id uuid.UUID, req *UpdatePrinterRequest) (*model.Printer, error) {
	printer, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		printer.Name = *req.Name
	}
	if req.LocalIP != nil {
		if net.ParseIP(*req.LocalIP) == nil {
			return nil, fmt.Errorf("invalid printer IP address: %s", *req.LocalIP)
		}
		printer.LocalIP = *req.LocalIP
	}
	if req.Port != nil {
		if *req.Port <= 0 || *req.Port > 65535 {
			return nil, fmt.Errorf("invalid printer port: %d", *req.Port)
		}
		printer.Port = *req.Port
	}
	if req.ForTakeaway != nil {
		printer.ForTakeaway = *req.ForTakeaway
	}
	if req.ForDineIn != nil {
		printer.ForDineIn = *req.ForDineIn
	}
	if req.IsActive != nil {
		printer.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, printer); err != nil {
		return nil, err
	}
	return printer, nil
}

// DeletePrinter removes a printer from the registry
func (s *PrinterService) DeletePrinter(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// ProbePrinter checks reachability and records the new status
func (s *PrinterService) ProbePrinter(ctx context.Context, id uuid.UUID) (model.PrinterStatus, error) {
	printer, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}

	status := model.PrinterStatusOnline
	if err := s.transport.Probe(ctx, printer.LocalIP, printer.Port, s.config.ConnectTimeout); err != nil {
		status = model.PrinterStatusOffline
		s.logger.Info("Printer probe failed",
			zap.String("printer", printer.Name),
			zap.Error(err),
		)
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return status, err
	}
	return status, nil
}

// TestPrint sends a sample receipt to one printer so staff can verify the
// paper comes out right after setup.
func (s *PrinterService) TestPrint(ctx context.Context, id uuid.UUID) (*model.PrintJob, error) {
	printer, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	job := s.dispatcher.Dispatch(ctx, sampleOrder(), []*model.Printer{printer})
	return job, nil
}

// AggressiveTest hammers a printer with alternating real connections and
// deliberately unreachable ones. Its purpose is verifying that the
// transport never leaks a session, whatever the failure mode.
func (s *PrinterService) AggressiveTest(ctx context.Context, id uuid.UUID, cycles int) (*AggressiveTestResult, error) {
	printer, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cycles <= 0 {
		cycles = 3
	}

	result := &AggressiveTestResult{Cycles: cycles}
	started := time.Now()

	// Black hole address, connects to it always time out
	const fakeIP = "10.255.255.1"

	for i := 0; i < cycles; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		connID, err := s.transport.Connect(ctx, printer.LocalIP, printer.Port, s.config.ConnectTimeout)
		if err != nil {
			result.RealFailures++
		} else {
			result.RealSuccesses++
			s.transport.Disconnect(connID)
		}
		sleepCtx(ctx, 300*time.Millisecond)

		if _, err := s.transport.Connect(ctx, fakeIP, 9100, 500*time.Millisecond); err != nil {
			result.FakeHandled++
		}
		sleepCtx(ctx, 500*time.Millisecond)

		connID, err = s.transport.Connect(ctx, printer.LocalIP, printer.Port, s.config.ConnectTimeout)
		if err != nil {
			result.RealFailures++
		} else {
			result.RealSuccesses++
			s.transport.Disconnect(connID)
		}
		sleepCtx(ctx, time.Second)
	}

	result.LeakedAfter = s.transport.Status().ActiveConnections
	result.DurationMS = time.Since(started).Milliseconds()

	s.logger.Info("Aggressive test finished",
		zap.String("printer", printer.Name),
		zap.Int("cycles", cycles),
		zap.Int("real_successes", result.RealSuccesses),
		zap.Int("leaked_after", result.LeakedAfter),
	)
	return result, nil
}

// ResetTransport force-closes every tracked connection
func (s *PrinterService) ResetTransport() int {
	return s.transport.ResetAll()
}

// TransportStatus returns tracked connection info
func (s *PrinterService) TransportStatus() transport.Status {
	return s.transport.Status()
}

// sampleOrder is the receipt used by test prints
func sampleOrder() *model.Order {
	return &model.Order{
		ID:            fmt.Sprintf("test%d", time.Now().Unix()),
		Table:         "TEST",
		Status:        model.OrderStatusConfirmed,
		PaymentStatus: model.PaymentStatusPaid,
		PaymentMethod: "card",
		Items: []model.OrderItem{
			{
				Name:     "Test Item",
				Quantity: 1,
				SelectedVariants: []model.SelectedOption{
					{GroupName: "Size", OptionName: "Regular"},
				},
			},
		},
		CreatedAt: time.Now(),
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
