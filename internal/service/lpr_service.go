package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"etc_backend/internal/domain"
)

// PlateRecognizer là phần lpr.Recognizer mà các service cần
type PlateRecognizer interface {
	Recognize(ctx context.Context, imagePath string) (*domain.RecognitionResult, error)
	RecognizeImage(ctx context.Context, data []byte) (*domain.RecognitionResult, error)
}

// ScanNotifier đẩy sự kiện quét tới dashboard (WebSocket manager), tránh import vòng với api
type ScanNotifier interface {
	BroadcastScanEvent(event domain.ScanNotification)
}

type LPRService struct {
	recognizer          PlateRecognizer
	vehicles            *VehicleService
	scans               *ScanService
	notifier            ScanNotifier
	lowBalanceThreshold float64
}

func NewLPRService(
	recognizer PlateRecognizer,
	vehicles *VehicleService,
	scans *ScanService,
	notifier ScanNotifier,
	lowBalanceThreshold float64,
) *LPRService {
	return &LPRService{
		recognizer:          recognizer,
		vehicles:            vehicles,
		scans:               scans,
		notifier:            notifier,
		lowBalanceThreshold: lowBalanceThreshold,
	}
}

// ScanLicensePlate nhận diện ảnh đã lưu, ghi lịch sử quét cho từng biển số
// và gắn thông tin xe, tài khoản nếu biển số có trong hệ thống.
func (s *LPRService) ScanLicensePlate(ctx context.Context, imagePath, station string) (*domain.ScanResponseDTO, error) {
	log.Printf("LPRService: Nhận diện ảnh '%s' (trạm: '%s')", imagePath, station)
	result, err := s.recognizer.Recognize(ctx, imagePath)
	if err != nil {
		log.Printf("LPRService: Lỗi nhận diện: %v", err)
		return nil, err
	}

	resp := &domain.ScanResponseDTO{
		LicensePlates:    []domain.PlateScanDTO{},
		ProcessingMethod: result.Method,
		Note:             result.Note,
		Statistics: domain.ScanStatistics{
			TotalCandidates:    result.TotalCandidates,
			ProcessingVersions: result.ProcessingVersions,
		},
	}

	for _, plate := range result.LicensePlates {
		if _, err := s.scans.Record(ctx, domain.RecordScanDTO{
			ScanType:        domain.ScanTypeLicensePlate,
			ScannedData:     plate.Text,
			Confidence:      plate.Confidence,
			ImagePath:       imagePath,
			StationLocation: station,
		}); err != nil {
			log.Printf("LPRService: Không ghi được lịch sử quét cho '%s': %v", plate.Text, err)
		}

		item := domain.PlateScanDTO{
			LicensePlate: plate.Text,
			Confidence:   round3(plate.Confidence),
			Score:        round3(plate.Score),
			Source:       plate.Source,
			Formatted:    plate.Formatted,
			OriginalText: plate.OriginalText,
		}

		detail, err := s.vehicles.GetDetailed(ctx, plate.Text)
		switch {
		case err == nil:
			item.VehicleFound = true
			item.VehicleInfo = detail
			item.AccountStatus = s.accountSummary(detail.AccountBalance)
		case !errors.Is(err, ErrVehicleNotFound):
			log.Printf("LPRService: Lỗi tra cứu xe '%s': %v", plate.Text, err)
		}

		resp.LicensePlates = append(resp.LicensePlates, item)
		if item.VehicleFound {
			resp.Statistics.VehiclesInSystem++
		}
		s.notify(domain.ScanNotification{
			EventType:  domain.ScanEventRecognized,
			Station:    station,
			Plate:      plate.Text,
			Confidence: item.Confidence,
			Message:    plateMessage(item),
		})
	}
	resp.Statistics.ValidPlatesFound = len(resp.LicensePlates)

	if len(resp.LicensePlates) == 0 {
		s.notify(domain.ScanNotification{
			EventType: domain.ScanEventNoPlate,
			Station:   station,
			Message:   "Không nhận diện được biển số",
		})
	}
	log.Printf("LPRService: Tìm thấy %d biển số hợp lệ, %d có trong hệ thống",
		resp.Statistics.ValidPlatesFound, resp.Statistics.VehiclesInSystem)
	return resp, nil
}

func (s *LPRService) accountSummary(balance float64) *domain.AccountSummaryDTO {
	return &domain.AccountSummaryDTO{
		Balance:   balance,
		Status:    ClassifyBalance(balance, s.lowBalanceThreshold),
		Warning:   balance < s.lowBalanceThreshold,
		CanTravel: balance > 0,
	}
}

func (s *LPRService) notify(event domain.ScanNotification) {
	if s.notifier == nil {
		return
	}
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	s.notifier.BroadcastScanEvent(event)
}

func plateMessage(item domain.PlateScanDTO) string {
	if !item.VehicleFound {
		return fmt.Sprintf("Biển số %s chưa đăng ký ETC", item.Formatted)
	}
	return fmt.Sprintf("Biển số %s - chủ xe %s", item.Formatted, item.VehicleInfo.OwnerName)
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
