package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iotdataplane"
	"github.com/google/uuid"

	"etc_backend/internal/domain"
	"etc_backend/internal/lpr"
)

// BarrierPublisher là phần iotdataplane.Client dùng để gửi lệnh barrier
type BarrierPublisher interface {
	Publish(ctx context.Context, params *iotdataplane.PublishInput, optFns ...func(*iotdataplane.Options)) (*iotdataplane.PublishOutput, error)
}

// LaneService xử lý ảnh camera làn thu phí tự động: nhận diện, thu phí, điều khiển barrier
type LaneService struct {
	recognizer        PlateRecognizer
	accounts          *AccountService
	scans             *ScanService
	publisher         BarrierPublisher
	notifier          ScanNotifier
	defaultTollAmount float64
}

func NewLaneService(
	recognizer PlateRecognizer,
	accounts *AccountService,
	scans *ScanService,
	publisher BarrierPublisher,
	notifier ScanNotifier,
	defaultTollAmount float64,
) *LaneService {
	return &LaneService{
		recognizer:        recognizer,
		accounts:          accounts,
		scans:             scans,
		publisher:         publisher,
		notifier:          notifier,
		defaultTollAmount: defaultTollAmount,
	}
}

func BarrierTopic(laneID string) string {
	return fmt.Sprintf("etc/lanes/%s/barrier", laneID)
}

// HandleLaneEvent xử lý một message SQS. Lỗi trả về nghĩa là message cần được xử lý lại.
// Phí được thu theo event_id nên xử lý lại cùng một sự kiện không trừ tiền lần nữa.
func (s *LaneService) HandleLaneEvent(ctx context.Context, sqsMessageBody string) error {
	var event domain.LaneCameraEvent
	if err := json.Unmarshal([]byte(sqsMessageBody), &event); err != nil {
		log.Printf("LaneService: Lỗi unmarshal sự kiện làn: %v", err)
		return fmt.Errorf("lỗi unmarshal sự kiện làn: %w", err)
	}
	if event.LaneID == "" || event.ImageBase64 == "" {
		return fmt.Errorf("sự kiện làn thiếu lane_id hoặc image_base64 (event_id=%s)", event.EventID)
	}
	if event.EventID == "" {
		// cùng message gửi lại phải ra cùng id
		event.EventID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(sqsMessageBody)).String()
	}
	log.Printf("LaneService: Xử lý sự kiện %s tại làn %s (trạm '%s')", event.EventID, event.LaneID, event.Station)

	data, err := DecodeImageBase64(event.ImageBase64)
	if err != nil {
		return fmt.Errorf("ảnh base64 không hợp lệ (event_id=%s): %w", event.EventID, err)
	}

	result, err := s.recognizer.RecognizeImage(ctx, data)
	if err != nil {
		if errors.Is(err, lpr.ErrOCRUnavailable) {
			return err
		}
		log.Printf("LaneService: Không nhận diện được ảnh của sự kiện %s: %v", event.EventID, err)
		return s.hold(ctx, event, "", "Ảnh không đọc được", domain.ScanEventNoPlate)
	}
	if result.Method == lpr.FallbackMethod {
		// biển số mô phỏng, không được dùng để thu phí
		log.Printf("LaneService: Sự kiện %s chỉ có kết quả fallback, giữ barrier", event.EventID)
		return s.hold(ctx, event, "", "OCR engine không khả dụng", domain.ScanEventNoPlate)
	}
	if len(result.LicensePlates) == 0 {
		return s.hold(ctx, event, "", "Không nhận diện được biển số", domain.ScanEventNoPlate)
	}

	plate := result.LicensePlates[0]
	amount := event.TollAmount
	if amount <= 0 {
		amount = s.defaultTollAmount
	}
	charged, err := s.accounts.DeductToll(ctx, domain.TollChargeDTO{
		LicensePlate: plate.Text,
		Amount:       amount,
		TollStation:  event.Station,
		Description:  fmt.Sprintf("Thu phí tự động làn %s", event.LaneID),
		Reference:    event.EventID,
	})
	if err == nil && charged.AlreadyApplied {
		log.Printf("LaneService: Sự kiện %s đã thu phí trước đó, gửi lại lệnh mở barrier", event.EventID)
	} else {
		s.recordScan(ctx, event, plate)
	}
	if err != nil {
		var reason string
		switch {
		case errors.Is(err, ErrVehicleNotFound):
			reason = "Xe chưa đăng ký ETC"
		case errors.Is(err, ErrInsufficientBalance):
			reason = "Số dư không đủ"
		case errors.Is(err, ErrAccountInactive):
			reason = "Tài khoản không hoạt động"
		case errors.Is(err, ErrReferenceConflict):
			reason = "Mã sự kiện trùng với giao dịch khác"
		default:
			return fmt.Errorf("lỗi thu phí xe %s: %w", plate.Text, err)
		}
		return s.hold(ctx, event, plate.Text, reason, domain.ScanEventTollFailed)
	}

	if err := s.publish(ctx, event, domain.BarrierCommandPayload{
		Command:   domain.BarrierOpen,
		RequestID: event.EventID,
		Plate:     plate.Text,
	}); err != nil {
		return err
	}
	balance := charged.BalanceAfter
	s.notify(domain.ScanNotification{
		EventID:    event.EventID,
		EventType:  domain.ScanEventTollPaid,
		Station:    event.Station,
		LaneID:     event.LaneID,
		Plate:      plate.Text,
		Confidence: round3(plate.Confidence),
		Balance:    &balance,
		Message:    fmt.Sprintf("Đã thu %.0f, mở barrier", charged.Amount),
	})
	return nil
}

func (s *LaneService) recordScan(ctx context.Context, event domain.LaneCameraEvent, plate domain.ValidatedPlate) {
	if _, err := s.scans.Record(ctx, domain.RecordScanDTO{
		ScanType:        domain.ScanTypeLicensePlate,
		ScannedData:     plate.Text,
		Confidence:      plate.Confidence,
		StationLocation: event.Station,
	}); err != nil {
		log.Printf("LaneService: Không ghi được lịch sử quét cho '%s': %v", plate.Text, err)
	}
}

func (s *LaneService) hold(ctx context.Context, event domain.LaneCameraEvent, plate, reason string, eventType domain.ScanEventType) error {
	if err := s.publish(ctx, event, domain.BarrierCommandPayload{
		Command:   domain.BarrierHold,
		RequestID: event.EventID,
		Plate:     plate,
		Reason:    reason,
	}); err != nil {
		return err
	}
	s.notify(domain.ScanNotification{
		EventID:   event.EventID,
		EventType: eventType,
		Station:   event.Station,
		LaneID:    event.LaneID,
		Plate:     plate,
		Message:   reason,
	})
	return nil
}

func (s *LaneService) publish(ctx context.Context, event domain.LaneCameraEvent, payload domain.BarrierCommandPayload) error {
	if s.publisher == nil {
		log.Printf("LaneService: Chưa cấu hình IoT Data client, bỏ qua lệnh '%s' cho làn %s", payload.Command, event.LaneID)
		return nil
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("lỗi marshal payload lệnh barrier: %w", err)
	}

	topic := BarrierTopic(event.LaneID)
	log.Printf("LaneService: Đang publish lệnh '%s' (ReqID: %s) tới topic %s", payload.Command, payload.RequestID, topic)
	_, err = s.publisher.Publish(ctx, &iotdataplane.PublishInput{
		Topic:   aws.String(topic),
		Qos:     1,
		Payload: payloadBytes,
	})
	if err != nil {
		return fmt.Errorf("lỗi publish lệnh MQTT: %w", err)
	}
	return nil
}

func (s *LaneService) notify(event domain.ScanNotification) {
	if s.notifier == nil {
		return
	}
	event.Timestamp = time.Now().UTC()
	s.notifier.BroadcastScanEvent(event)
}

// DecodeImageBase64 chấp nhận cả chuỗi base64 thuần lẫn data URL ("data:image/png;base64,...")
func DecodeImageBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			s = s[i+1:]
		}
	}
	return base64.StdEncoding.DecodeString(s)
}
