package domain

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

type TransactionType string

const (
	TransactionTopup TransactionType = "topup"
	TransactionToll  TransactionType = "toll"
)

type Transaction struct {
	ID              int             `json:"id"`
	VehicleID       int             `json:"vehicle_id"`
	TransactionType TransactionType `json:"transaction_type"`
	Amount          float64         `json:"amount"` // âm với giao dịch thu phí
	BalanceBefore   float64         `json:"balance_before"`
	BalanceAfter    float64         `json:"balance_after"`
	TollStation     null.String     `json:"toll_station"`
	Description     null.String     `json:"description"`
	Status          string          `json:"status"`
	Reference       null.String     `json:"reference"` // mã sự kiện làn, duy nhất nếu có
	CreatedAt       time.Time       `json:"created_at"`
}

// TransactionSummary là thống kê tổng hợp giao dịch của một xe
type TransactionSummary struct {
	Count      int
	TotalToll  float64 // tổng amount của giao dịch toll (số âm)
	TotalTopup float64
}

type TopUpDTO struct {
	LicensePlate string  `json:"license_plate" binding:"required"`
	Amount       float64 `json:"amount" binding:"required"`
	Description  string  `json:"description,omitempty"`
}

type TollChargeDTO struct {
	LicensePlate string  `json:"license_plate" binding:"required"`
	Amount       float64 `json:"amount" binding:"required"`
	TollStation  string  `json:"toll_station" binding:"required"`
	Description  string  `json:"description,omitempty"`
	// Reference chống thu phí hai lần cho cùng một sự kiện
	Reference string `json:"reference,omitempty"`
}

// LedgerResultDTO trả về sau khi nạp tiền hoặc thu phí
type LedgerResultDTO struct {
	LicensePlate  string  `json:"license_plate"`
	BalanceBefore float64 `json:"balance_before"`
	BalanceAfter  float64 `json:"balance_after"`
	Amount        float64 `json:"amount"`
	TollStation   string  `json:"toll_station,omitempty"`
	TransactionID int     `json:"transaction_id"`
	// AlreadyApplied: Reference đã được thu trước đó, không trừ thêm
	AlreadyApplied bool `json:"already_applied,omitempty"`
}
