package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"etc_backend/internal/config"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
)

func NewDB(cfg *config.Config) (*sql.DB, error) {
	psqlInfo := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSslMode)

	db, err := sql.Open("pgx", psqlInfo)
	if err != nil {
		return nil, fmt.Errorf("lỗi mở kết nối database: %w", err)
	}

	err = db.Ping()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("lỗi ping database: %w", err)
	}
	return db, nil
}

// EnsureSchema tạo các bảng nếu chưa có
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("lỗi tạo schema: %w", err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		username VARCHAR(50) NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role VARCHAR(20) NOT NULL DEFAULT 'operator',
		station VARCHAR(100),
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS vehicles (
		id SERIAL PRIMARY KEY,
		license_plate VARCHAR(20) NOT NULL,
		owner_name VARCHAR(100) NOT NULL,
		owner_phone VARCHAR(20),
		vehicle_type VARCHAR(50),
		brand VARCHAR(50),
		model VARCHAR(50),
		color VARCHAR(30),
		year INTEGER,
		account_balance DOUBLE PRECISION NOT NULL DEFAULT 0,
		account_status VARCHAR(20) NOT NULL DEFAULT 'active',
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT vehicles_license_plate_key UNIQUE (license_plate)
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id SERIAL PRIMARY KEY,
		vehicle_id INTEGER NOT NULL REFERENCES vehicles(id),
		transaction_type VARCHAR(20) NOT NULL,
		amount DOUBLE PRECISION NOT NULL,
		balance_before DOUBLE PRECISION NOT NULL,
		balance_after DOUBLE PRECISION NOT NULL,
		toll_station VARCHAR(100),
		description TEXT,
		status VARCHAR(20) NOT NULL DEFAULT 'completed',
		reference VARCHAR(64),
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`ALTER TABLE transactions ADD COLUMN IF NOT EXISTS reference VARCHAR(64)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS transactions_reference_key ON transactions (reference)`,
	`CREATE INDEX IF NOT EXISTS transactions_vehicle_created_idx ON transactions (vehicle_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS scan_history (
		id SERIAL PRIMARY KEY,
		vehicle_id INTEGER REFERENCES vehicles(id),
		scan_type VARCHAR(20) NOT NULL,
		scanned_data TEXT NOT NULL,
		confidence DOUBLE PRECISION,
		image_path VARCHAR(255),
		station_location VARCHAR(100),
		scan_result VARCHAR(20) NOT NULL DEFAULT 'success',
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS scan_history_data_idx ON scan_history (scanned_data, created_at DESC)`,
}

// isUniqueViolation nhận cả lỗi của lib/pq lẫn pgx
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Name() == "unique_violation" && (constraint == "" || pqErr.Constraint == constraint)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pq.ErrorCode(pgErr.Code).Name() == "unique_violation" && (constraint == "" || pgErr.ConstraintName == constraint)
	}
	return false
}
