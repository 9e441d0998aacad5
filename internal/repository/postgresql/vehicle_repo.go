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

const vehicleColumns = `id, license_plate, owner_name, owner_phone, vehicle_type, brand, model, color, year,
	account_balance, account_status, created_at, updated_at`

type pgVehicleRepository struct {
	db *sql.DB
}

func NewPgVehicleRepository(db *sql.DB) repository.VehicleRepository {
	return &pgVehicleRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVehicle(row rowScanner, v *domain.Vehicle) error {
	err := row.Scan(&v.ID, &v.LicensePlate, &v.OwnerName, &v.OwnerPhone, &v.VehicleType, &v.Brand, &v.Model,
		&v.Color, &v.Year, &v.AccountBalance, &v.AccountStatus, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return err
	}
	v.CreatedAt = v.CreatedAt.In(time.UTC)
	v.UpdatedAt = v.UpdatedAt.In(time.UTC)
	return nil
}

func (r *pgVehicleRepository) Create(ctx context.Context, v *domain.Vehicle) (*domain.Vehicle, error) {
	query := `INSERT INTO vehicles
	           (license_plate, owner_name, owner_phone, vehicle_type, brand, model, color, year,
	            account_balance, account_status, created_at, updated_at)
	           VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	           RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		v.LicensePlate, v.OwnerName, v.OwnerPhone, v.VehicleType, v.Brand, v.Model, v.Color, v.Year,
		v.AccountBalance, v.AccountStatus,
	).Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "vehicles_license_plate_key") {
			return nil, fmt.Errorf("%w: biển số '%s' đã tồn tại", repository.ErrDuplicateEntry, v.LicensePlate)
		}
		return nil, fmt.Errorf("VehicleRepository.Create: %w", err)
	}
	v.CreatedAt = v.CreatedAt.In(time.UTC)
	v.UpdatedAt = v.UpdatedAt.In(time.UTC)
	return v, nil
}

func (r *pgVehicleRepository) FindByPlate(ctx context.Context, plate string) (*domain.Vehicle, error) {
	v := &domain.Vehicle{}
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE license_plate = $1`
	if err := scanVehicle(r.db.QueryRowContext(ctx, query, plate), v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("VehicleRepository.FindByPlate: %w", err)
	}
	return v, nil
}

func (r *pgVehicleRepository) FindByID(ctx context.Context, id int) (*domain.Vehicle, error) {
	v := &domain.Vehicle{}
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = $1`
	if err := scanVehicle(r.db.QueryRowContext(ctx, query, id), v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("VehicleRepository.FindByID: %w", err)
	}
	return v, nil
}

func (r *pgVehicleRepository) List(ctx context.Context, page, perPage int) ([]domain.Vehicle, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vehicles`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("VehicleRepository.List count: %w", err)
	}

	query := `SELECT ` + vehicleColumns + ` FROM vehicles ORDER BY id LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("VehicleRepository.List: %w", err)
	}
	defer rows.Close()

	vehicles := []domain.Vehicle{}
	for rows.Next() {
		var v domain.Vehicle
		if err := scanVehicle(rows, &v); err != nil {
			return nil, 0, fmt.Errorf("VehicleRepository.List scan: %w", err)
		}
		vehicles = append(vehicles, v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("VehicleRepository.List rows: %w", err)
	}
	return vehicles, total, nil
}

func (r *pgVehicleRepository) Update(ctx context.Context, v *domain.Vehicle) (*domain.Vehicle, error) {
	query := `UPDATE vehicles
	           SET owner_name = $1, owner_phone = $2, vehicle_type = $3, brand = $4, model = $5,
	               color = $6, year = $7, account_status = $8, updated_at = CURRENT_TIMESTAMP
	           WHERE id = $9
	           RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query,
		v.OwnerName, v.OwnerPhone, v.VehicleType, v.Brand, v.Model, v.Color, v.Year, v.AccountStatus, v.ID,
	).Scan(&v.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("VehicleRepository.Update: %w", err)
	}
	v.UpdatedAt = v.UpdatedAt.In(time.UTC)
	return v, nil
}
