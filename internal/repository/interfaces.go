// internal/repository/interfaces.go
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"printer-service/internal/model"
)

// ErrNotFound marks lookups for rows that do not exist
var ErrNotFound = errors.New("not found")

// PrinterRepository defines printer registry access
type PrinterRepository interface {
	Create(ctx context.Context, printer *model.Printer) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Printer, error)
	List(ctx context.Context) ([]*model.Printer, error)
	ListActive(ctx context.Context) ([]*model.Printer, error)
	Update(ctx context.Context, printer *model.Printer) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.PrinterStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// JobRepository defines print job history access
type JobRepository interface {
	Save(ctx context.Context, job *model.PrintJob) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.PrintJob, error)
	ListRecent(ctx context.Context, limit int) ([]*model.PrintJob, error)
	ListByOrder(ctx context.Context, orderID string) ([]*model.PrintJob, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
