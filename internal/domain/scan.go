package domain

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

const ScanTypeLicensePlate = "license_plate"

type ScanResult string

const (
	ScanMatched ScanResult = "success" // biển số có trong hệ thống
	ScanUnknown ScanResult = "unknown"
)

type ScanRecord struct {
	ID              int         `json:"id"`
	VehicleID       null.Int    `json:"vehicle_id"`
	ScanType        string      `json:"scan_type"`
	ScannedData     string      `json:"scanned_data"`
	Confidence      null.Float  `json:"confidence"`
	ImagePath       null.String `json:"image_path"`
	StationLocation null.String `json:"station_location"`
	ScanResult      ScanResult  `json:"scan_result"`
	CreatedAt       time.Time   `json:"created_at"`
}

type RecordScanDTO struct {
	ScanType        string
	ScannedData     string
	Confidence      float64
	ImagePath       string
	StationLocation string
}

type ScanFilter struct {
	VehicleID *int
	Since     time.Time
	Page      int
	PerPage   int
}

// AccountSummaryDTO là trạng thái tài khoản gắn kèm kết quả quét
type AccountSummaryDTO struct {
	Balance   float64      `json:"balance"`
	Status    BalanceLevel `json:"status"`
	Warning   bool         `json:"warning"`
	CanTravel bool         `json:"can_travel"`
}

type PlateScanDTO struct {
	LicensePlate  string             `json:"license_plate"`
	Confidence    float64            `json:"confidence"`
	Score         float64            `json:"score"`
	Source        string             `json:"source"`
	Formatted     string             `json:"formatted"`
	OriginalText  string             `json:"original_text"`
	VehicleFound  bool               `json:"vehicle_found"`
	VehicleInfo   *VehicleDetail     `json:"vehicle_info,omitempty"`
	AccountStatus *AccountSummaryDTO `json:"account_status,omitempty"`
}

type ScanStatistics struct {
	TotalCandidates    int `json:"total_candidates"`
	ProcessingVersions int `json:"processing_versions"`
	ValidPlatesFound   int `json:"valid_plates_found"`
	VehiclesInSystem   int `json:"vehicles_in_system"`
}

type ScanResponseDTO struct {
	LicensePlates    []PlateScanDTO `json:"license_plates"`
	Statistics       ScanStatistics `json:"statistics"`
	ProcessingMethod string         `json:"processing_method"`
	Note             string         `json:"note,omitempty"`
}
