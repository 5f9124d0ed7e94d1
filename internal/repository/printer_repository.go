// internal/repository/printer_repository.go
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"printer-service/internal/database"
	"printer-service/internal/model"
)

// printerRepository implements PrinterRepository
type printerRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewPrinterRepository creates a new printer repository
func NewPrinterRepository(db *database.DB, logger *zap.Logger) PrinterRepository {
	return &printerRepository{
		db:     db,
		logger: logger,
	}
}

const printerColumns = `id, name, local_ip, port, for_takeaway, for_dine_in,
	is_active, status, last_seen, created_at, updated_at`

// Create registers a new printer
func (r *printerRepository) Create(ctx context.Context, printer *model.Printer) error {
	query := `
		INSERT INTO printers (
			id, name, local_ip, port, for_takeaway, for_dine_in, is_active, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	if printer.ID == uuid.Nil {
		printer.ID = uuid.New()
	}
	if printer.Status == "" {
		printer.Status = model.PrinterStatusUnknown
	}

	_, err := r.db.ExecContext(ctx, query,
		printer.ID, printer.Name, printer.LocalIP, printer.Port,
		printer.ForTakeaway, printer.ForDineIn, printer.IsActive, printer.Status,
	)
	if err != nil {
		r.logger.Error("Failed to create printer", zap.Error(err), zap.String("name", printer.Name))
		return fmt.Errorf("failed to create printer: %w", err)
	}

	r.logger.Info("Printer created",
		zap.String("id", printer.ID.String()),
		zap.String("name", printer.Name),
		zap.String("address", fmt.Sprintf("%s:%d", printer.LocalIP, printer.Port)),
	)
	return nil
}

// GetByID retrieves a printer by its UUID
func (r *printerRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Printer, error) {
	query := `SELECT ` + printerColumns + ` FROM printers WHERE id = $1`

	printer := &model.Printer{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&printer.ID, &printer.Name, &printer.LocalIP, &printer.Port,
		&printer.ForTakeaway, &printer.ForDineIn, &printer.IsActive,
		&printer.Status, &printer.LastSeen, &printer.CreatedAt, &printer.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("printer %s: %w", id, ErrNotFound)
		}
		r.logger.Error("Failed to get printer", zap.Error(err), zap.String("id", id.String()))
		return nil, fmt.Errorf("failed to get printer: %w", err)
	}

	return printer, nil
}

// List returns all registered printers
func (r *printerRepository) List(ctx context.Context) ([]*model.Printer, error) {
	query := `SELECT ` + printerColumns + ` FROM printers ORDER BY name`
	return r.queryPrinters(ctx, query)
}

// ListActive returns printers eligible for dispatch
func (r *printerRepository) ListActive(ctx context.Context) ([]*model.Printer, error) {
	query := `SELECT ` + printerColumns + ` FROM printers WHERE is_active = TRUE ORDER BY name`
	return r.queryPrinters(ctx, query)
}

func (r *printerRepository) queryPrinters(ctx context.Context, query string, args ...interface{}) ([]*model.Printer, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list printers", zap.Error(err))
		return nil, fmt.Errorf("failed to list printers: %w", err)
	}
	defer rows.Close()

	var printers []*model.Printer
	for rows.Next() {
		printer := &model.Printer{}
		if err := rows.Scan(
			&printer.ID, &printer.Name, &printer.LocalIP, &printer.Port,
			&printer.ForTakeaway, &printer.ForDineIn, &printer.IsActive,
			&printer.Status, &printer.LastSeen, &printer.CreatedAt, &printer.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan printer: %w", err)
		}
		printers = append(printers, printer)
	}
	return printers, rows.Err()
}

// Update modifies an existing printer
func (r *printerRepository) Update(ctx context.Context, printer *model.Printer) error {
	query := `
		UPDATE printers SET
			name = $2, local_ip = $3, port = $4, for_takeaway = $5,
			for_dine_in = $6, is_active = $7, status = $8,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		printer.ID, printer.Name, printer.LocalIP, printer.Port,
		printer.ForTakeaway, printer.ForDineIn, printer.IsActive, printer.Status,
	)
	if err != nil {
		r.logger.Error("Failed to update printer", zap.Error(err), zap.String("id", printer.ID.String()))
		return fmt.Errorf("failed to update printer: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("printer %s: %w", printer.ID, ErrNotFound)
	}

	r.logger.Info("Printer updated", zap.String("id", printer.ID.String()))
	return nil
}

// UpdateStatus records the latest reachability check result
func (r *printerRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.PrinterStatus) error {
	query := `
		UPDATE printers SET
			status = $2,
			last_seen = CASE WHEN $2 = 'ONLINE' THEN CURRENT_TIMESTAMP ELSE last_seen END,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		r.logger.Error("Failed to update printer status", zap.Error(err), zap.String("id", id.String()))
		return fmt.Errorf("failed to update printer status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("printer %s: %w", id, ErrNotFound)
	}
	return nil
}

// Delete removes a printer from the registry
func (r *printerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM printers WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete printer", zap.Error(err), zap.String("id", id.String()))
		return fmt.Errorf("failed to delete printer: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("printer %s: %w", id, ErrNotFound)
	}

	r.logger.Info("Printer deleted", zap.String("id", id.String()))
	return nil
}
