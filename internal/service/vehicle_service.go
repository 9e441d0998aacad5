package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"gopkg.in/guregu/null.v4"

	"etc_backend/internal/domain"
	"etc_backend/internal/repository"
)

const recentItemsLimit = 5

type VehicleService struct {
	vehicleRepo         repository.VehicleRepository
	ledgerRepo          repository.LedgerRepository
	scanRepo            repository.ScanRepository
	lowBalanceThreshold float64
}

func NewVehicleService(
	vehicleRepo repository.VehicleRepository,
	ledgerRepo repository.LedgerRepository,
	scanRepo repository.ScanRepository,
	lowBalanceThreshold float64,
) *VehicleService {
	return &VehicleService{
		vehicleRepo:         vehicleRepo,
		ledgerRepo:          ledgerRepo,
		scanRepo:            scanRepo,
		lowBalanceThreshold: lowBalanceThreshold,
	}
}

// NormalizePlateKey là dạng biển số dùng làm khóa tra cứu trong DB
func NormalizePlateKey(plate string) string {
	return strings.ToUpper(strings.TrimSpace(plate))
}

// ClassifyBalance: sufficient khi >= threshold, low khi > 0, còn lại empty
func ClassifyBalance(balance, threshold float64) domain.BalanceLevel {
	switch {
	case balance >= threshold:
		return domain.BalanceSufficient
	case balance > 0:
		return domain.BalanceLow
	default:
		return domain.BalanceEmpty
	}
}

func (s *VehicleService) Create(ctx context.Context, dto domain.CreateVehicleDTO) (*domain.Vehicle, error) {
	if dto.AccountBalance < 0 {
		return nil, ErrInvalidAmount
	}
	v := &domain.Vehicle{
		LicensePlate:   NormalizePlateKey(dto.LicensePlate),
		OwnerName:      dto.OwnerName,
		OwnerPhone:     null.NewString(dto.OwnerPhone, dto.OwnerPhone != ""),
		VehicleType:    null.NewString(dto.VehicleType, dto.VehicleType != ""),
		Brand:          null.NewString(dto.Brand, dto.Brand != ""),
		Model:          null.NewString(dto.Model, dto.Model != ""),
		Color:          null.NewString(dto.Color, dto.Color != ""),
		Year:           null.NewInt(int64(dto.Year), dto.Year != 0),
		AccountBalance: dto.AccountBalance,
		AccountStatus:  domain.AccountActive,
	}
	created, err := s.vehicleRepo.Create(ctx, v)
	if err != nil {
		return nil, fmt.Errorf("lỗi khi tạo xe: %w", err)
	}
	return created, nil
}

func (s *VehicleService) GetByPlate(ctx context.Context, plate string) (*domain.Vehicle, error) {
	v, err := s.vehicleRepo.FindByPlate(ctx, NormalizePlateKey(plate))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrVehicleNotFound
		}
		return nil, fmt.Errorf("lỗi khi tìm xe: %w", err)
	}
	return v, nil
}

// GetDetailed trả về xe kèm 5 giao dịch, 5 lượt quét gần nhất và thống kê tài khoản
func (s *VehicleService) GetDetailed(ctx context.Context, plate string) (*domain.VehicleDetail, error) {
	v, err := s.GetByPlate(ctx, plate)
	if err != nil {
		return nil, err
	}

	recentTx, err := s.ledgerRepo.Recent(ctx, v.ID, recentItemsLimit)
	if err != nil {
		return nil, fmt.Errorf("lỗi lấy giao dịch gần đây: %w", err)
	}
	recentScans, err := s.scanRepo.RecentByData(ctx, v.LicensePlate, recentItemsLimit)
	if err != nil {
		return nil, fmt.Errorf("lỗi lấy lịch sử quét: %w", err)
	}
	summary, err := s.ledgerRepo.Summary(ctx, v.ID)
	if err != nil {
		return nil, fmt.Errorf("lỗi thống kê giao dịch: %w", err)
	}

	stats := domain.VehicleStatistics{
		TotalTransactions: summary.Count,
		TotalSpent:        math.Abs(summary.TotalToll),
		TotalTopup:        summary.TotalTopup,
		CurrentBalance:    v.AccountBalance,
		AccountStatus:     ClassifyBalance(v.AccountBalance, s.lowBalanceThreshold),
	}
	if len(recentTx) > 0 {
		last := recentTx[0].CreatedAt
		stats.LastActivity = &last
	}

	return &domain.VehicleDetail{
		Vehicle:            *v,
		RecentTransactions: recentTx,
		RecentScans:        recentScans,
		Statistics:         stats,
	}, nil
}

func (s *VehicleService) Update(ctx context.Context, id int, dto domain.UpdateVehicleDTO) (*domain.Vehicle, error) {
	v, err := s.vehicleRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrVehicleNotFound
		}
		return nil, fmt.Errorf("lỗi khi tìm xe: %w", err)
	}

	if dto.OwnerName != "" {
		v.OwnerName = dto.OwnerName
	}
	setString(&v.OwnerPhone, dto.OwnerPhone)
	setString(&v.VehicleType, dto.VehicleType)
	setString(&v.Brand, dto.Brand)
	setString(&v.Model, dto.Model)
	setString(&v.Color, dto.Color)
	if dto.Year != 0 {
		v.Year = null.IntFrom(int64(dto.Year))
	}

	updated, err := s.vehicleRepo.Update(ctx, v)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrVehicleNotFound
		}
		return nil, fmt.Errorf("lỗi khi cập nhật xe: %w", err)
	}
	return updated, nil
}

func (s *VehicleService) List(ctx context.Context, q domain.PageQuery) ([]domain.Vehicle, domain.PageDTO, error) {
	q = q.Normalize(0)
	vehicles, total, err := s.vehicleRepo.List(ctx, q.Page, q.PerPage)
	if err != nil {
		return nil, domain.PageDTO{}, fmt.Errorf("lỗi lấy danh sách xe: %w", err)
	}
	return vehicles, domain.NewPage(total, q.Page, q.PerPage), nil
}

func setString(dst *null.String, v string) {
	if v != "" {
		*dst = null.StringFrom(v)
	}
}
