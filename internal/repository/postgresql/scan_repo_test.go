package postgresql

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"etc_backend/internal/domain"
)

func TestScanFilterClause(t *testing.T) {
	vehicleID := 7
	since := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		filter    domain.ScanFilter
		wantWhere string
		wantArgs  []any
	}{
		{"empty", domain.ScanFilter{}, "", nil},
		{"vehicle only", domain.ScanFilter{VehicleID: &vehicleID}, " WHERE vehicle_id = $1", []any{7}},
		{"since only", domain.ScanFilter{Since: since}, " WHERE created_at >= $1", []any{since}},
		{"both", domain.ScanFilter{VehicleID: &vehicleID, Since: since}, " WHERE vehicle_id = $1 AND created_at >= $2", []any{7, since}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := scanFilterClause(tt.filter)
			if where != tt.wantWhere {
				t.Fatalf("where = %q, want %q", where, tt.wantWhere)
			}
			if diff := cmp.Diff(tt.wantArgs, args); diff != "" {
				t.Fatalf("args mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
