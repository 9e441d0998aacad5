package domain

import "time"

// LaneCameraEvent là message camera làn thu phí đẩy vào SQS
type LaneCameraEvent struct {
	EventID     string    `json:"event_id"`
	LaneID      string    `json:"lane_id"`      // ví dụ "LANE_03"
	Station     string    `json:"station"`      // tên trạm BOT
	ImageBase64 string    `json:"image_base64"` // ảnh chụp xe tại làn
	TollAmount  float64   `json:"toll_amount,omitempty"`
	CapturedAt  time.Time `json:"captured_at,omitempty"`
}

type BarrierCommand string

const (
	BarrierOpen BarrierCommand = "open"
	BarrierHold BarrierCommand = "hold" // giữ barrier đóng, chờ nhân viên xử lý
)

// BarrierCommandPayload publish tới topic etc/lanes/<lane_id>/barrier
type BarrierCommandPayload struct {
	Command   BarrierCommand `json:"command"`
	RequestID string         `json:"request_id"`
	Plate     string         `json:"plate,omitempty"`
	Reason    string         `json:"reason,omitempty"`
}

type ScanEventType string

const (
	ScanEventRecognized ScanEventType = "plate_recognized"
	ScanEventTollPaid   ScanEventType = "toll_paid"
	ScanEventTollFailed ScanEventType = "toll_failed"
	ScanEventNoPlate    ScanEventType = "no_plate"
)

// ScanNotification gửi tới dashboard trạm thu phí qua WebSocket
type ScanNotification struct {
	EventID    string        `json:"event_id"`
	EventType  ScanEventType `json:"event_type"`
	Station    string        `json:"station,omitempty"`
	LaneID     string        `json:"lane_id,omitempty"`
	Plate      string        `json:"plate,omitempty"`
	Confidence float64       `json:"confidence,omitempty"`
	Balance    *float64      `json:"balance,omitempty"`
	Message    string        `json:"message,omitempty"`
	Timestamp  time.Time     `json:"timestamp"`
}
