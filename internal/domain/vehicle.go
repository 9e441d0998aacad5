package domain

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

type AccountStatus string

const (
	AccountActive    AccountStatus = "active"
	AccountSuspended AccountStatus = "suspended"
)

type Vehicle struct {
	ID             int           `json:"id"`
	LicensePlate   string        `json:"license_plate"`
	OwnerName      string        `json:"owner_name"`
	OwnerPhone     null.String   `json:"owner_phone"`
	VehicleType    null.String   `json:"vehicle_type"` // Car / Motorcycle / Truck
	Brand          null.String   `json:"brand"`
	Model          null.String   `json:"model"`
	Color          null.String   `json:"color"`
	Year           null.Int      `json:"year"`
	AccountBalance float64       `json:"account_balance"`
	AccountStatus  AccountStatus `json:"account_status"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

type CreateVehicleDTO struct {
	LicensePlate   string  `json:"license_plate" binding:"required,min=6,max=20"`
	OwnerName      string  `json:"owner_name" binding:"required,max=100"`
	OwnerPhone     string  `json:"owner_phone,omitempty"`
	VehicleType    string  `json:"vehicle_type,omitempty"`
	Brand          string  `json:"brand,omitempty"`
	Model          string  `json:"model,omitempty"`
	Color          string  `json:"color,omitempty"`
	Year           int     `json:"year,omitempty"`
	AccountBalance float64 `json:"account_balance,omitempty" binding:"gte=0"`
}

// UpdateVehicleDTO: chỉ các trường khác rỗng mới được cập nhật
type UpdateVehicleDTO struct {
	OwnerName   string `json:"owner_name,omitempty"`
	OwnerPhone  string `json:"owner_phone,omitempty"`
	VehicleType string `json:"vehicle_type,omitempty"`
	Brand       string `json:"brand,omitempty"`
	Model       string `json:"model,omitempty"`
	Color       string `json:"color,omitempty"`
	Year        int    `json:"year,omitempty"`
}

// BalanceLevel phân loại số dư: sufficient / low / empty
type BalanceLevel string

const (
	BalanceSufficient BalanceLevel = "sufficient"
	BalanceLow        BalanceLevel = "low"
	BalanceEmpty      BalanceLevel = "empty"
)

type VehicleStatistics struct {
	TotalTransactions int          `json:"total_transactions"`
	TotalSpent        float64      `json:"total_spent"`
	TotalTopup        float64      `json:"total_topup"`
	CurrentBalance    float64      `json:"current_balance"`
	AccountStatus     BalanceLevel `json:"account_status"`
	LastActivity      *time.Time   `json:"last_activity"`
}

// VehicleDetail là thông tin xe kèm giao dịch và lượt quét gần nhất
type VehicleDetail struct {
	Vehicle
	RecentTransactions []Transaction     `json:"recent_transactions"`
	RecentScans        []ScanRecord      `json:"recent_scans"`
	Statistics         VehicleStatistics `json:"statistics"`
}

type BalanceDTO struct {
	LicensePlate string        `json:"license_plate"`
	Balance      float64       `json:"balance"`
	Status       AccountStatus `json:"status"`
}
