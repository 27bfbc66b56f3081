package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Kelompok-1-ODP-IT-343/Auth-WA-OTP/internal/domain"
	_ "github.com/jackc/pgx/v5/stdlib"
)

type DatabaseService struct {
	db *sql.DB
}

func NewDatabaseService(ctx context.Context, databaseURL string) (*DatabaseService, error) {
	if databaseURL == "" {
		return &DatabaseService{}, nil // Allow nil DB for graceful degradation
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DatabaseService{db: db}, nil
}

// Available reports whether a database connection was configured.
func (d *DatabaseService) Available() bool {
	return d.db != nil
}

func (d *DatabaseService) Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	if d.db == nil {
		return nil, fmt.Errorf("database not available")
	}
	return d.db.QueryContext(ctx, query, args...)
}

func (d *DatabaseService) QueryRow(ctx context.Context, query string, args ...interface{}) (*sql.Row, error) {
	if d.db == nil {
		return nil, fmt.Errorf("database not available")
	}
	return d.db.QueryRowContext(ctx, query, args...), nil
}

func (d *DatabaseService) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	if d.db == nil {
		return nil, fmt.Errorf("database not available")
	}
	return d.db.ExecContext(ctx, query, args...)
}

func (d *DatabaseService) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

var _ domain.DatabaseService = (*DatabaseService)(nil)
