package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"etc_backend/internal/domain"
	"etc_backend/internal/repository"
)

const scanColumns = `id, vehicle_id, scan_type, scanned_data, confidence, image_path, station_location, scan_result, created_at`

type pgScanRepository struct {
	db *sql.DB
}

func NewPgScanRepository(db *sql.DB) repository.ScanRepository {
	return &pgScanRepository{db: db}
}

func scanScanRecord(row rowScanner, s *domain.ScanRecord) error {
	err := row.Scan(&s.ID, &s.VehicleID, &s.ScanType, &s.ScannedData, &s.Confidence, &s.ImagePath,
		&s.StationLocation, &s.ScanResult, &s.CreatedAt)
	if err != nil {
		return err
	}
	s.CreatedAt = s.CreatedAt.In(time.UTC)
	return nil
}

func (r *pgScanRepository) Create(ctx context.Context, s *domain.ScanRecord) (*domain.ScanRecord, error) {
	query := `INSERT INTO scan_history
	           (vehicle_id, scan_type, scanned_data, confidence, image_path, station_location, scan_result, created_at)
	           VALUES ($1, $2, $3, $4, $5, $6, $7, CURRENT_TIMESTAMP)
	           RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query,
		s.VehicleID, s.ScanType, s.ScannedData, s.Confidence, s.ImagePath, s.StationLocation, s.ScanResult,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("ScanRepository.Create: %w", err)
	}
	s.CreatedAt = s.CreatedAt.In(time.UTC)
	return s, nil
}

func (r *pgScanRepository) RecentByData(ctx context.Context, scannedData string, limit int) ([]domain.ScanRecord, error) {
	query := `SELECT ` + scanColumns + ` FROM scan_history
	          WHERE scanned_data = $1 ORDER BY created_at DESC, id DESC LIMIT $2`
	items, err := r.query(ctx, query, scannedData, limit)
	if err != nil {
		return nil, fmt.Errorf("ScanRepository.RecentByData: %w", err)
	}
	return items, nil
}

func (r *pgScanRepository) Find(ctx context.Context, filter domain.ScanFilter) ([]domain.ScanRecord, int, error) {
	where, args := scanFilterClause(filter)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scan_history`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ScanRepository.Find count: %w", err)
	}

	n := len(args)
	query := fmt.Sprintf(`SELECT %s FROM scan_history%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		scanColumns, where, n+1, n+2)
	args = append(args, filter.PerPage, (filter.Page-1)*filter.PerPage)
	items, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ScanRepository.Find: %w", err)
	}
	return items, total, nil
}

// scanFilterClause dựng mệnh đề WHERE theo các trường được đặt trong filter
func scanFilterClause(filter domain.ScanFilter) (string, []any) {
	var conds []string
	var args []any
	if filter.VehicleID != nil {
		args = append(args, *filter.VehicleID)
		conds = append(conds, fmt.Sprintf("vehicle_id = $%d", len(args)))
	}
	if !filter.Since.IsZero() {
		args = append(args, filter.Since)
		conds = append(conds, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *pgScanRepository) query(ctx context.Context, query string, args ...any) ([]domain.ScanRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.ScanRecord{}
	for rows.Next() {
		var s domain.ScanRecord
		if err := scanScanRecord(rows, &s); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}
