package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gopkg.in/guregu/null.v4"

	"etc_backend/internal/domain"
	"etc_backend/internal/repository"
)

const (
	defaultTopUpDescription = "Nạp tiền"
	defaultTollDescription  = "Thu phí BOT"
	defaultHistoryDays      = 30
)

// AccountService quản lý số dư tài khoản ETC gắn với từng xe
type AccountService struct {
	vehicles   *VehicleService
	ledgerRepo repository.LedgerRepository
}

func NewAccountService(vehicles *VehicleService, ledgerRepo repository.LedgerRepository) *AccountService {
	return &AccountService{vehicles: vehicles, ledgerRepo: ledgerRepo}
}

func (s *AccountService) GetBalance(ctx context.Context, plate string) (*domain.BalanceDTO, error) {
	v, err := s.vehicles.GetByPlate(ctx, plate)
	if err != nil {
		return nil, err
	}
	return &domain.BalanceDTO{
		LicensePlate: v.LicensePlate,
		Balance:      v.AccountBalance,
		Status:       v.AccountStatus,
	}, nil
}

func (s *AccountService) TopUp(ctx context.Context, dto domain.TopUpDTO) (*domain.LedgerResultDTO, error) {
	if dto.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	v, err := s.vehicles.GetByPlate(ctx, dto.LicensePlate)
	if err != nil {
		return nil, err
	}
	description := dto.Description
	if description == "" {
		description = defaultTopUpDescription
	}

	t, err := s.apply(ctx, v.ID, func(locked *domain.Vehicle) (*domain.Transaction, error) {
		return &domain.Transaction{
			TransactionType: domain.TransactionTopup,
			Amount:          dto.Amount,
			BalanceBefore:   locked.AccountBalance,
			BalanceAfter:    locked.AccountBalance + dto.Amount,
			Description:     null.StringFrom(description),
		}, nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("AccountService: Nạp %.0f cho xe %s, số dư %.0f -> %.0f", dto.Amount, v.LicensePlate, t.BalanceBefore, t.BalanceAfter)
	return &domain.LedgerResultDTO{
		LicensePlate:  v.LicensePlate,
		BalanceBefore: t.BalanceBefore,
		BalanceAfter:  t.BalanceAfter,
		Amount:        dto.Amount,
		TransactionID: t.ID,
	}, nil
}

// DeductToll trừ phí BOT. Trạng thái và số dư được kiểm tra trên bản ghi xe đã khóa.
// Với dto.Reference đã thu trước đó, trả lại giao dịch cũ với AlreadyApplied=true.
func (s *AccountService) DeductToll(ctx context.Context, dto domain.TollChargeDTO) (*domain.LedgerResultDTO, error) {
	if dto.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	v, err := s.vehicles.GetByPlate(ctx, dto.LicensePlate)
	if err != nil {
		return nil, err
	}
	if dto.Reference != "" {
		if prev, err := s.findCharge(ctx, v, dto.Reference); prev != nil || err != nil {
			return prev, err
		}
	}
	description := dto.Description
	if description == "" {
		description = defaultTollDescription
	}

	t, err := s.apply(ctx, v.ID, func(locked *domain.Vehicle) (*domain.Transaction, error) {
		if locked.AccountStatus != domain.AccountActive {
			return nil, ErrAccountInactive
		}
		if locked.AccountBalance < dto.Amount {
			return nil, ErrInsufficientBalance
		}
		return &domain.Transaction{
			TransactionType: domain.TransactionToll,
			Amount:          -dto.Amount,
			BalanceBefore:   locked.AccountBalance,
			BalanceAfter:    locked.AccountBalance - dto.Amount,
			TollStation:     null.NewString(dto.TollStation, dto.TollStation != ""),
			Description:     null.StringFrom(description),
			Reference:       null.NewString(dto.Reference, dto.Reference != ""),
		}, nil
	})
	if errors.Is(err, repository.ErrDuplicateEntry) {
		// request song song với cùng reference đã ghi trước
		prev, ferr := s.findCharge(ctx, v, dto.Reference)
		if prev == nil && ferr == nil {
			ferr = fmt.Errorf("lỗi ghi giao dịch: %w", err)
		}
		return prev, ferr
	}
	if err != nil {
		return nil, err
	}

	log.Printf("AccountService: Thu phí %.0f xe %s tại '%s', số dư còn %.0f", dto.Amount, v.LicensePlate, dto.TollStation, t.BalanceAfter)
	return tollResult(v, t), nil
}

// findCharge trả (nil, nil) khi reference chưa được thu
func (s *AccountService) findCharge(ctx context.Context, v *domain.Vehicle, reference string) (*domain.LedgerResultDTO, error) {
	t, err := s.ledgerRepo.FindByReference(ctx, reference)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lỗi kiểm tra giao dịch '%s': %w", reference, err)
	}
	if t.VehicleID != v.ID || t.TransactionType != domain.TransactionToll {
		return nil, fmt.Errorf("%w: reference '%s' đã dùng cho giao dịch khác", ErrReferenceConflict, reference)
	}
	log.Printf("AccountService: Reference '%s' đã được thu (giao dịch %d), bỏ qua", reference, t.ID)
	res := tollResult(v, t)
	res.AlreadyApplied = true
	return res, nil
}

func tollResult(v *domain.Vehicle, t *domain.Transaction) *domain.LedgerResultDTO {
	return &domain.LedgerResultDTO{
		LicensePlate:  v.LicensePlate,
		BalanceBefore: t.BalanceBefore,
		BalanceAfter:  t.BalanceAfter,
		Amount:        -t.Amount,
		TollStation:   t.TollStation.String,
		TransactionID: t.ID,
	}
}

func (s *AccountService) History(ctx context.Context, plate string, q domain.PageQuery) ([]domain.Transaction, domain.PageDTO, error) {
	q = q.Normalize(defaultHistoryDays)
	v, err := s.vehicles.GetByPlate(ctx, plate)
	if err != nil {
		return nil, domain.PageDTO{}, err
	}
	since := time.Now().UTC().AddDate(0, 0, -q.Days)
	items, total, err := s.ledgerRepo.FindByVehicle(ctx, v.ID, since, q.Page, q.PerPage)
	if err != nil {
		return nil, domain.PageDTO{}, fmt.Errorf("lỗi lấy lịch sử giao dịch: %w", err)
	}
	return items, domain.NewPage(total, q.Page, q.PerPage), nil
}

func (s *AccountService) apply(ctx context.Context, vehicleID int, fn repository.LedgerFunc) (*domain.Transaction, error) {
	t, err := s.ledgerRepo.Apply(ctx, vehicleID, fn)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrVehicleNotFound
		case errors.Is(err, ErrAccountInactive), errors.Is(err, ErrInsufficientBalance),
			errors.Is(err, repository.ErrDuplicateEntry):
			return nil, err
		}
		return nil, fmt.Errorf("lỗi ghi giao dịch: %w", err)
	}
	return t, nil
}
