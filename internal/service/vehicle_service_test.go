package service

import (
	"context"
	"errors"
	"testing"

	"etc_backend/internal/domain"
	"etc_backend/internal/repository"
)

func TestClassifyBalance(t *testing.T) {
	tests := []struct {
		balance float64
		want    domain.BalanceLevel
	}{
		{100000, domain.BalanceSufficient},
		{50000, domain.BalanceSufficient},
		{49999, domain.BalanceLow},
		{1, domain.BalanceLow},
		{0, domain.BalanceEmpty},
		{-10, domain.BalanceEmpty},
	}
	for _, tt := range tests {
		if got := ClassifyBalance(tt.balance, 50000); got != tt.want {
			t.Errorf("ClassifyBalance(%v) = %q, want %q", tt.balance, got, tt.want)
		}
	}
}

func TestVehicleServiceCreateUppercasesPlate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	v := f.mustVehicle("30g-12345", 0)
	if v.LicensePlate != "30G-12345" {
		t.Fatalf("plate = %q, want 30G-12345", v.LicensePlate)
	}
	if v.AccountStatus != domain.AccountActive {
		t.Fatalf("status = %q, want active", v.AccountStatus)
	}

	_, err := f.vehicles.Create(ctx, domain.CreateVehicleDTO{LicensePlate: "30G-12345", OwnerName: "B"})
	if !errors.Is(err, repository.ErrDuplicateEntry) {
		t.Fatalf("duplicate create error = %v, want ErrDuplicateEntry", err)
	}

	got, err := f.vehicles.GetByPlate(ctx, " 30g-12345 ")
	if err != nil || got.ID != v.ID {
		t.Fatalf("GetByPlate = %+v, %v", got, err)
	}
	if _, err := f.vehicles.GetByPlate(ctx, "99Z-00000"); !errors.Is(err, ErrVehicleNotFound) {
		t.Fatalf("GetByPlate unknown error = %v", err)
	}
}

func TestVehicleServiceGetDetailed(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	v := f.mustVehicle("51F-67890", 0)

	if _, err := f.accounts.TopUp(ctx, domain.TopUpDTO{LicensePlate: v.LicensePlate, Amount: 100000}); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 6; i++ {
		if _, err := f.accounts.DeductToll(ctx, domain.TollChargeDTO{LicensePlate: v.LicensePlate, Amount: 10000, TollStation: "BOT Pháp Vân"}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := f.scans.Record(ctx, domain.RecordScanDTO{ScanType: domain.ScanTypeLicensePlate, ScannedData: v.LicensePlate, Confidence: 0.9}); err != nil {
		t.Fatal(err)
	}

	d, err := f.vehicles.GetDetailed(ctx, "51f-67890")
	if err != nil {
		t.Fatal(err)
	}
	if len(d.RecentTransactions) != 5 {
		t.Fatalf("recent transactions = %d, want 5", len(d.RecentTransactions))
	}
	if d.RecentTransactions[0].TransactionType != domain.TransactionToll {
		t.Fatalf("newest transaction = %q, want toll", d.RecentTransactions[0].TransactionType)
	}
	if len(d.RecentScans) != 1 {
		t.Fatalf("recent scans = %d, want 1", len(d.RecentScans))
	}

	want := domain.VehicleStatistics{
		TotalTransactions: 7,
		TotalSpent:        60000,
		TotalTopup:        100000,
		CurrentBalance:    40000,
		AccountStatus:     domain.BalanceLow,
	}
	got := d.Statistics
	if got.LastActivity == nil || !got.LastActivity.Equal(d.RecentTransactions[0].CreatedAt) {
		t.Fatalf("last activity = %v", got.LastActivity)
	}
	got.LastActivity = nil
	if got != want {
		t.Fatalf("statistics = %+v, want %+v", got, want)
	}
}

func TestVehicleServiceGetDetailedWithoutActivity(t *testing.T) {
	f := newFixture()
	f.mustVehicle("29A-11111", 0)

	d, err := f.vehicles.GetDetailed(context.Background(), "29A-11111")
	if err != nil {
		t.Fatal(err)
	}
	if d.Statistics.LastActivity != nil || d.Statistics.AccountStatus != domain.BalanceEmpty {
		t.Fatalf("unexpected statistics %+v", d.Statistics)
	}
}

func TestVehicleServiceUpdate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	v := f.mustVehicle("29A-22222", 0)

	updated, err := f.vehicles.Update(ctx, v.ID, domain.UpdateVehicleDTO{Color: "Đỏ", Year: 2020})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Color.String != "Đỏ" || updated.Year.Int64 != 2020 || updated.OwnerName != v.OwnerName {
		t.Fatalf("unexpected update result %+v", updated)
	}
	if updated.Brand.Valid {
		t.Fatalf("brand should stay null, got %q", updated.Brand.String)
	}

	if _, err := f.vehicles.Update(ctx, 999, domain.UpdateVehicleDTO{Color: "x"}); !errors.Is(err, ErrVehicleNotFound) {
		t.Fatalf("update unknown error = %v", err)
	}
}

func TestVehicleServiceList(t *testing.T) {
	f := newFixture()
	for _, p := range []string{"29A-00001", "29A-00002", "29A-00003"} {
		f.mustVehicle(p, 0)
	}

	items, page, err := f.vehicles.List(context.Background(), domain.PageQuery{Page: 2, PerPage: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].LicensePlate != "29A-00003" {
		t.Fatalf("page 2 items = %+v", items)
	}
	if page != (domain.PageDTO{Total: 3, Page: 2, PerPage: 2, Pages: 2}) {
		t.Fatalf("page = %+v", page)
	}
}
