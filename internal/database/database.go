// internal/database/database.go
package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"printer-service/internal/config"
)

// DB wraps the sql connection pool
type DB struct {
	*sql.DB
	logger *zap.Logger
}

// NewConnection opens and verifies the PostgreSQL connection pool
func NewConnection(cfg *config.Config, logger *zap.Logger) (*DB, error) {
	db, err := sql.Open("postgres", cfg.GetDatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Database connection established",
		zap.String("host", cfg.Database.Host),
		zap.Int("port", cfg.Database.Port),
		zap.String("dbname", cfg.Database.DBName),
	)
	return &DB{DB: db, logger: logger}, nil
}

// HealthCheck verifies the pool is still alive
func (db *DB) HealthCheck(ctx context.Context) error {
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// GetStats returns connection pool statistics
func (db *DB) GetStats() sql.DBStats {
	return db.Stats()
}
