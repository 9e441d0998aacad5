package repository

import (
	"context"
	"errors"
	"time"

	"etc_backend/internal/domain"
)

var ErrNotFound = errors.New("không tìm thấy bản ghi")
var ErrDuplicateEntry = errors.New("bản ghi đã tồn tại")

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id int) (*domain.User, error)
}

type VehicleRepository interface {
	Create(ctx context.Context, vehicle *domain.Vehicle) (*domain.Vehicle, error)
	FindByPlate(ctx context.Context, plate string) (*domain.Vehicle, error)
	FindByID(ctx context.Context, id int) (*domain.Vehicle, error)
	// List trả về một trang xe và tổng số xe
	List(ctx context.Context, page, perPage int) ([]domain.Vehicle, int, error)
	Update(ctx context.Context, vehicle *domain.Vehicle) (*domain.Vehicle, error)
}

// LedgerFunc nhận xe đã bị khóa trong transaction và trả về giao dịch cần ghi.
// Trả lỗi để hủy toàn bộ thao tác.
type LedgerFunc func(vehicle *domain.Vehicle) (*domain.Transaction, error)

type LedgerRepository interface {
	// Apply khóa xe, gọi fn, ghi giao dịch và cập nhật số dư trong cùng một DB transaction.
	// Giao dịch có Reference trùng trả ErrDuplicateEntry và không ghi gì.
	Apply(ctx context.Context, vehicleID int, fn LedgerFunc) (*domain.Transaction, error)
	FindByReference(ctx context.Context, reference string) (*domain.Transaction, error)
	FindByVehicle(ctx context.Context, vehicleID int, since time.Time, page, perPage int) ([]domain.Transaction, int, error)
	Recent(ctx context.Context, vehicleID int, limit int) ([]domain.Transaction, error)
	Summary(ctx context.Context, vehicleID int) (*domain.TransactionSummary, error)
}

type ScanRepository interface {
	Create(ctx context.Context, scan *domain.ScanRecord) (*domain.ScanRecord, error)
	RecentByData(ctx context.Context, scannedData string, limit int) ([]domain.ScanRecord, error)
	Find(ctx context.Context, filter domain.ScanFilter) ([]domain.ScanRecord, int, error)
}
