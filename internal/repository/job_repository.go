// internal/repository/job_repository.go
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"printer-service/internal/database"
	"printer-service/internal/model"
)

// jobRepository implements JobRepository
type jobRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewJobRepository creates a new print job repository
func NewJobRepository(db *database.DB, logger *zap.Logger) JobRepository {
	return &jobRepository{
		db:     db,
		logger: logger,
	}
}

// Save persists a finished print job, per-printer results as JSONB
func (r *jobRepository) Save(ctx context.Context, job *model.PrintJob) error {
	query := `
		INSERT INTO print_jobs (
			id, order_id, order_short_id, overall_status, message, results,
			created_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	results, err := json.Marshal(job.Results)
	if err != nil {
		return fmt.Errorf("failed to encode job results: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query,
		job.ID, job.OrderID, job.OrderShortID, job.OverallStatus,
		job.Message, results, job.CreatedAt, job.CompletedAt,
	)
	if err != nil {
		r.logger.Error("Failed to save print job", zap.Error(err), zap.String("job_id", job.ID.String()))
		return fmt.Errorf("failed to save print job: %w", err)
	}
	return nil
}

// GetByID retrieves one print job
func (r *jobRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.PrintJob, error) {
	query := `
		SELECT id, order_id, order_short_id, overall_status, message, results,
			   created_at, completed_at
		FROM print_jobs WHERE id = $1
	`

	job, err := r.scanJob(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("print job %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get print job: %w", err)
	}
	return job, nil
}

// ListRecent returns the newest jobs first
func (r *jobRepository) ListRecent(ctx context.Context, limit int) ([]*model.PrintJob, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, order_id, order_short_id, overall_status, message, results,
			   created_at, completed_at
		FROM print_jobs ORDER BY created_at DESC LIMIT $1
	`
	return r.queryJobs(ctx, query, limit)
}

// ListByOrder returns every dispatch attempt for one order
func (r *jobRepository) ListByOrder(ctx context.Context, orderID string) ([]*model.PrintJob, error) {
	query := `
		SELECT id, order_id, order_short_id, overall_status, message, results,
			   created_at, completed_at
		FROM print_jobs WHERE order_id = $1 ORDER BY created_at DESC
	`
	return r.queryJobs(ctx, query, orderID)
}

// DeleteOlderThan drops history past the retention cutoff
func (r *jobRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM print_jobs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old print jobs: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check delete result: %w", err)
	}
	if deleted > 0 {
		r.logger.Info("Old print jobs deleted", zap.Int64("count", deleted))
	}
	return deleted, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *jobRepository) scanJob(row rowScanner) (*model.PrintJob, error) {
	job := &model.PrintJob{}
	var results []byte
	if err := row.Scan(
		&job.ID, &job.OrderID, &job.OrderShortID, &job.OverallStatus,
		&job.Message, &results, &job.CreatedAt, &job.CompletedAt,
	); err != nil {
		return nil, err
	}
	if len(results) > 0 {
		if err := json.Unmarshal(results, &job.Results); err != nil {
			return nil, fmt.Errorf("failed to decode job results: %w", err)
		}
	}
	return job, nil
}

func (r *jobRepository) queryJobs(ctx context.Context, query string, args ...interface{}) ([]*model.PrintJob, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list print jobs", zap.Error(err))
		return nil, fmt.Errorf("failed to list print jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*model.PrintJob
	for rows.Next() {
		job, err := r.scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan print job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}
