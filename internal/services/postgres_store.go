package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Kelompok-1-ODP-IT-343/Auth-WA-OTP/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresStore implements domain.Store on top of DatabaseService.
type PostgresStore struct {
	db domain.DatabaseService
}

var _ domain.Store = (*PostgresStore)(nil)

// NewPostgresStore creates the store and applies migrations.
func NewPostgresStore(ctx context.Context, db domain.DatabaseService) (*PostgresStore, error) {
	s := &PostgresStore{db: db}
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			user_id TEXT PRIMARY KEY,
			phone TEXT NOT NULL,
			connection_status TEXT NOT NULL DEFAULT 'pending',
			last_login_at TIMESTAMPTZ,
			plan TEXT NOT NULL DEFAULT 'free',
			plan_start DATE,
			plan_end DATE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS accounts_phone_unique_idx ON accounts (phone);`,
		`CREATE TABLE IF NOT EXISTS otp_codes (
			id TEXT PRIMARY KEY,
			phone TEXT NOT NULL,
			code TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			expires_at TIMESTAMPTZ NOT NULL,
			verified BOOLEAN NOT NULL DEFAULT FALSE,
			attempts INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS otp_codes_phone_created_idx ON otp_codes (phone, created_at DESC) WHERE verified = FALSE;`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) InsertOTP(ctx context.Context, rec *domain.OTPRecord) error {
	const query = `
		INSERT INTO otp_codes (id, phone, code, created_at, expires_at, verified, attempts)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := s.db.Exec(ctx, query, rec.ID, rec.Phone, rec.Code, rec.CreatedAt, rec.ExpiresAt, rec.Verified, rec.Attempts)
	if err != nil {
		return fmt.Errorf("insert otp: %w", err)
	}
	return nil
}

func (s *PostgresStore) LatestUnverifiedOTP(ctx context.Context, phone string) (*domain.OTPRecord, error) {
	const query = `
		SELECT id, phone, code, created_at, expires_at, verified, attempts
		FROM otp_codes
		WHERE phone = $1 AND verified = FALSE
		ORDER BY created_at DESC
		LIMIT 1`
	row, err := s.db.QueryRow(ctx, query, phone)
	if err != nil {
		return nil, err
	}
	var rec domain.OTPRecord
	if err := row.Scan(&rec.ID, &rec.Phone, &rec.Code, &rec.CreatedAt, &rec.ExpiresAt, &rec.Verified, &rec.Attempts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan otp: %w", err)
	}
	return &rec, nil
}

func (s *PostgresStore) IncrementOTPAttempts(ctx context.Context, id string) (int, error) {
	row, err := s.db.QueryRow(ctx, `UPDATE otp_codes SET attempts = attempts + 1 WHERE id = $1 RETURNING attempts`, id)
	if err != nil {
		return 0, err
	}
	var attempts int
	if err := row.Scan(&attempts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("increment attempts: %w", err)
	}
	return attempts, nil
}

func (s *PostgresStore) MarkOTPVerified(ctx context.Context, id string) error {
	res, err := s.db.Exec(ctx, `UPDATE otp_codes SET verified = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}
	return expectOneRow(res)
}

func (s *PostgresStore) FindAccountByPhone(ctx context.Context, phone string) (*domain.Account, error) {
	const query = `
		SELECT user_id, phone, connection_status, last_login_at, plan, plan_start, plan_end, created_at
		FROM accounts
		WHERE phone = $1`
	row, err := s.db.QueryRow(ctx, query, phone)
	if err != nil {
		return nil, err
	}
	return scanAccount(row)
}

func (s *PostgresStore) CreateAccount(ctx context.Context, acc *domain.Account) error {
	const query = `
		INSERT INTO accounts (user_id, phone, connection_status, last_login_at, plan, plan_start, plan_end, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := s.db.Exec(ctx, query, acc.UserID, acc.Phone, string(acc.ConnectionStatus), nullTime(acc.LastLoginAt),
		string(acc.Plan), nullTime(acc.PlanStart), nullTime(acc.PlanEnd), acc.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateAccountLogin(ctx context.Context, acc *domain.Account) error {
	const query = `
		UPDATE accounts
		SET connection_status = $2, last_login_at = $3, plan = $4, plan_start = $5, plan_end = $6
		WHERE user_id = $1`
	res, err := s.db.Exec(ctx, query, acc.UserID, string(acc.ConnectionStatus), nullTime(acc.LastLoginAt),
		string(acc.Plan), nullTime(acc.PlanStart), nullTime(acc.PlanEnd))
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	return expectOneRow(res)
}

func scanAccount(row *sql.Row) (*domain.Account, error) {
	var (
		acc       domain.Account
		status    string
		plan      string
		lastLogin sql.NullTime
		planStart sql.NullTime
		planEnd   sql.NullTime
	)
	if err := row.Scan(&acc.UserID, &acc.Phone, &status, &lastLogin, &plan, &planStart, &planEnd, &acc.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	acc.ConnectionStatus = domain.ConnectionStatus(status)
	acc.Plan = domain.Plan(plan)
	acc.LastLoginAt = timePtr(lastLogin)
	acc.PlanStart = timePtr(planStart)
	acc.PlanEnd = timePtr(planEnd)
	return &acc, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
