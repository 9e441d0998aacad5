package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gopkg.in/guregu/null.v4"

	"etc_backend/internal/domain"
	"etc_backend/internal/repository"
)

const defaultScanHistoryDays = 7

type ScanService struct {
	vehicles *VehicleService
	scanRepo repository.ScanRepository
}

func NewScanService(vehicles *VehicleService, scanRepo repository.ScanRepository) *ScanService {
	return &ScanService{vehicles: vehicles, scanRepo: scanRepo}
}

// Record ghi một lượt quét, gắn với xe nếu biển số có trong hệ thống
func (s *ScanService) Record(ctx context.Context, dto domain.RecordScanDTO) (*domain.ScanRecord, error) {
	rec := &domain.ScanRecord{
		ScanType:        dto.ScanType,
		ScannedData:     dto.ScannedData,
		Confidence:      null.FloatFrom(dto.Confidence),
		ImagePath:       null.NewString(dto.ImagePath, dto.ImagePath != ""),
		StationLocation: null.NewString(dto.StationLocation, dto.StationLocation != ""),
		ScanResult:      domain.ScanUnknown,
	}
	if rec.ScanType == "" {
		rec.ScanType = domain.ScanTypeLicensePlate
	}

	if dto.ScanType == domain.ScanTypeLicensePlate || dto.ScanType == "" {
		v, err := s.vehicles.GetByPlate(ctx, dto.ScannedData)
		switch {
		case err == nil:
			rec.VehicleID = null.IntFrom(int64(v.ID))
			rec.ScanResult = domain.ScanMatched
		case !errors.Is(err, ErrVehicleNotFound):
			return nil, err
		}
	}

	created, err := s.scanRepo.Create(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("lỗi ghi lịch sử quét: %w", err)
	}
	return created, nil
}

// History trả lịch sử quét trong q.Days ngày gần nhất. Nếu biển số không có trong
// hệ thống thì bỏ qua bộ lọc biển số.
func (s *ScanService) History(ctx context.Context, plate string, q domain.PageQuery) ([]domain.ScanRecord, domain.PageDTO, error) {
	q = q.Normalize(defaultScanHistoryDays)
	filter := domain.ScanFilter{
		Since:   time.Now().UTC().AddDate(0, 0, -q.Days),
		Page:    q.Page,
		PerPage: q.PerPage,
	}
	if plate != "" {
		v, err := s.vehicles.GetByPlate(ctx, plate)
		switch {
		case err == nil:
			filter.VehicleID = &v.ID
		case !errors.Is(err, ErrVehicleNotFound):
			return nil, domain.PageDTO{}, err
		}
	}

	items, total, err := s.scanRepo.Find(ctx, filter)
	if err != nil {
		return nil, domain.PageDTO{}, fmt.Errorf("lỗi lấy lịch sử quét: %w", err)
	}
	return items, domain.NewPage(total, q.Page, q.PerPage), nil
}
