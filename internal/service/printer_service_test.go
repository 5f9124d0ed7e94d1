// internal/service/printer_service_test.go
package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"printer-service/internal/config"
	"printer-service/internal/model"
	"printer-service/internal/repository"
)

type fakePrinterRepo struct {
	printers map[uuid.UUID]*model.Printer
	statuses map[uuid.UUID]model.PrinterStatus
}

func newFakePrinterRepo() *fakePrinterRepo {
	return &fakePrinterRepo{
		printers: make(map[uuid.UUID]*model.Printer),
		statuses: make(map[uuid.UUID]model.PrinterStatus),
	}
}

func (r *fakePrinterRepo) Create(ctx context.Context, printer *model.Printer) error {
	r.printers[printer.ID] = printer
	return nil
}

func (r *fakePrinterRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Printer, error) {
	printer, ok := r.printers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return printer, nil
}

func (r *fakePrinterRepo) List(ctx context.Context) ([]*model.Printer, error) {
	var out []*model.Printer
	for _, p := range r.printers {
		out = append(out, p)
	}
	return out, nil
}

func (r *fakePrinterRepo) ListActive(ctx context.Context) ([]*model.Printer, error) {
	var out []*model.Printer
	for _, p := range r.printers {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePrinterRepo) Update(ctx context.Context, printer *model.Printer) error {
	if _, ok := r.printers[printer.ID]; !ok {
		return repository.ErrNotFound
	}
	r.printers[printer.ID] = printer
	return nil
}

func (r *fakePrinterRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.PrinterStatus) error {
	if _, ok := r.printers[id]; !ok {
		return repository.ErrNotFound
	}
	r.statuses[id] = status
	return nil
}

func (r *fakePrinterRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.printers[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.printers, id)
	return nil
}

func testPrinterService(repo repository.PrinterRepository) *PrinterService {
	cfg := &config.PrinterConfig{
		DefaultPort:    9100,
		ConnectTimeout: time.Second,
	}
	return NewPrinterService(zap.NewNop(), cfg, repo, nil, nil)
}

func TestCreatePrinterDefaultsPort(t *testing.T) {
	repo := newFakePrinterRepo()
	svc := testPrinterService(repo)

	printer, err := svc.CreatePrinter(context.Background(), &CreatePrinterRequest{
		Name:      "Kitchen",
		LocalIP:   "192.168.1.50",
		ForDineIn: true,
	})
	if err != nil {
		t.Fatalf("CreatePrinter: %v", err)
	}

	if printer.Port != 9100 {
		t.Errorf("port = %d, want default 9100", printer.Port)
	}
	if !printer.IsActive {
		t.Error("new printer should be active by default")
	}
	if printer.Status != model.PrinterStatusUnknown {
		t.Errorf("status = %s, want UNKNOWN", printer.Status)
	}
	if _, ok := repo.printers[printer.ID]; !ok {
		t.Error("printer was not persisted")
	}
}

func TestCreatePrinterRejectsBadInput(t *testing.T) {
	svc := testPrinterService(newFakePrinterRepo())

	cases := []struct {
		name string
		req  CreatePrinterRequest
	}{
		{"bad ip", CreatePrinterRequest{Name: "x", LocalIP: "not-an-ip"}},
		{"bad port", CreatePrinterRequest{Name: "x", LocalIP: "192.168.1.50", Port: 70000}},
	}
	for _, tc := range cases {
		if _, err := svc.CreatePrinter(context.Background(), &tc.req); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestUpdatePrinterPartial(t *testing.T) {
	repo := newFakePrinterRepo()
	svc := testPrinterService(repo)

	created, err := svc.CreatePrinter(context.Background(), &CreatePrinterRequest{
		Name:      "Kitchen",
		LocalIP:   "192.168.1.50",
		ForDineIn: true,
	})
	if err != nil {
		t.Fatalf("CreatePrinter: %v", err)
	}

	newName := "Kitchen 2"
	inactive := false
	updated, err := svc.UpdatePrinter(context.Background(), created.ID, &UpdatePrinterRequest{
		Name:     &newName,
		IsActive: &inactive,
	})
	if err != nil {
		t.Fatalf("UpdatePrinter: %v", err)
	}

	if updated.Name != "Kitchen 2" {
		t.Errorf("name = %q, want %q", updated.Name, "Kitchen 2")
	}
	if updated.IsActive {
		t.Error("printer should be inactive after update")
	}
	if updated.LocalIP != "192.168.1.50" {
		t.Errorf("untouched field changed: %q", updated.LocalIP)
	}
	if !updated.ForDineIn {
		t.Error("untouched dine-in flag changed")
	}
}

func TestUpdatePrinterUnknownID(t *testing.T) {
	svc := testPrinterService(newFakePrinterRepo())

	name := "x"
	_, err := svc.UpdatePrinter(context.Background(), uuid.New(), &UpdatePrinterRequest{Name: &name})
	if err == nil {
		t.Fatal("expected error for unknown printer")
	}
}

func TestSampleOrderPrintsCleanly(t *testing.T) {
	order := sampleOrder()

	if !order.NotificationWorthy() {
		t.Error("sample order should qualify for printing")
	}
	if order.IsTakeaway() {
		t.Error("sample order should be dine-in")
	}
	if len(order.Items) == 0 {
		t.Fatal("sample order has no items")
	}
}
