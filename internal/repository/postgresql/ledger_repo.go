package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"etc_backend/internal/domain"
	"etc_backend/internal/repository"
)

const transactionColumns = `id, vehicle_id, transaction_type, amount, balance_before, balance_after,
	toll_station, description, status, reference, created_at`

type pgLedgerRepository struct {
	db *sql.DB
}

func NewPgLedgerRepository(db *sql.DB) repository.LedgerRepository {
	return &pgLedgerRepository{db: db}
}

func scanTransaction(row rowScanner, t *domain.Transaction) error {
	err := row.Scan(&t.ID, &t.VehicleID, &t.TransactionType, &t.Amount, &t.BalanceBefore, &t.BalanceAfter,
		&t.TollStation, &t.Description, &t.Status, &t.Reference, &t.CreatedAt)
	if err != nil {
		return err
	}
	t.CreatedAt = t.CreatedAt.In(time.UTC)
	return nil
}

func (r *pgLedgerRepository) Apply(ctx context.Context, vehicleID int, fn repository.LedgerFunc) (*domain.Transaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("LedgerRepository.Apply begin: %w", err)
	}
	defer tx.Rollback()

	v := &domain.Vehicle{}
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = $1 FOR UPDATE`
	if err := scanVehicle(tx.QueryRowContext(ctx, query, vehicleID), v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("LedgerRepository.Apply lock: %w", err)
	}

	t, err := fn(v)
	if err != nil {
		return nil, err
	}
	t.VehicleID = v.ID
	if t.Status == "" {
		t.Status = "completed"
	}

	insert := `INSERT INTO transactions
	            (vehicle_id, transaction_type, amount, balance_before, balance_after, toll_station, description, status, reference, created_at)
	            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, CURRENT_TIMESTAMP)
	            RETURNING id, created_at`
	err = tx.QueryRowContext(ctx, insert,
		t.VehicleID, t.TransactionType, t.Amount, t.BalanceBefore, t.BalanceAfter, t.TollStation, t.Description, t.Status, t.Reference,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "transactions_reference_key") {
			return nil, repository.ErrDuplicateEntry
		}
		return nil, fmt.Errorf("LedgerRepository.Apply insert: %w", err)
	}

	update := `UPDATE vehicles SET account_balance = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	if _, err := tx.ExecContext(ctx, update, t.BalanceAfter, v.ID); err != nil {
		return nil, fmt.Errorf("LedgerRepository.Apply update balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("LedgerRepository.Apply commit: %w", err)
	}
	t.CreatedAt = t.CreatedAt.In(time.UTC)
	return t, nil
}

func (r *pgLedgerRepository) FindByReference(ctx context.Context, reference string) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE reference = $1`
	if err := scanTransaction(r.db.QueryRowContext(ctx, query, reference), t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("LedgerRepository.FindByReference: %w", err)
	}
	return t, nil
}

func (r *pgLedgerRepository) FindByVehicle(ctx context.Context, vehicleID int, since time.Time, page, perPage int) ([]domain.Transaction, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM transactions WHERE vehicle_id = $1 AND created_at >= $2`
	if err := r.db.QueryRowContext(ctx, countQuery, vehicleID, since).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("LedgerRepository.FindByVehicle count: %w", err)
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions
	          WHERE vehicle_id = $1 AND created_at >= $2
	          ORDER BY created_at DESC, id DESC LIMIT $3 OFFSET $4`
	items, err := r.queryTransactions(ctx, query, vehicleID, since, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("LedgerRepository.FindByVehicle: %w", err)
	}
	return items, total, nil
}

func (r *pgLedgerRepository) Recent(ctx context.Context, vehicleID int, limit int) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
	          WHERE vehicle_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`
	items, err := r.queryTransactions(ctx, query, vehicleID, limit)
	if err != nil {
		return nil, fmt.Errorf("LedgerRepository.Recent: %w", err)
	}
	return items, nil
}

func (r *pgLedgerRepository) Summary(ctx context.Context, vehicleID int) (*domain.TransactionSummary, error) {
	s := &domain.TransactionSummary{}
	query := `SELECT COUNT(*),
	                 COALESCE(SUM(amount) FILTER (WHERE transaction_type = 'toll'), 0),
	                 COALESCE(SUM(amount) FILTER (WHERE transaction_type = 'topup'), 0)
	          FROM transactions WHERE vehicle_id = $1`
	if err := r.db.QueryRowContext(ctx, query, vehicleID).Scan(&s.Count, &s.TotalToll, &s.TotalTopup); err != nil {
		return nil, fmt.Errorf("LedgerRepository.Summary: %w", err)
	}
	return s, nil
}

func (r *pgLedgerRepository) queryTransactions(ctx context.Context, query string, args ...any) ([]domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.Transaction{}
	for rows.Next() {
		var t domain.Transaction
		if err := scanTransaction(rows, &t); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}
