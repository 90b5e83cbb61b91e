package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/rvlionxz/absensi-kiosk/internal/core/domain"
)

func TestAttendanceRecord_LenientFields(t *testing.T) {
	body := `{"id": 12, "user_id": "u-7", "nama_lengkap": "Siti", "jabatan": "Perawat",
		"waktu_absen": "2024-03-01T09:00:00", "latitude": "3.56453931", "longitude": 96.9862584}`

	var rec domain.AttendanceRecord
	if err := json.Unmarshal([]byte(body), &rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.ID != "12" || rec.EmployeeID != "u-7" {
		t.Errorf("unexpected ids %q %q", rec.ID, rec.EmployeeID)
	}
	if float64(rec.Latitude) != 3.56453931 {
		t.Errorf("unexpected latitude %f", rec.Latitude)
	}
	if float64(rec.Longitude) != 96.9862584 {
		t.Errorf("unexpected longitude %f", rec.Longitude)
	}
}

func TestCoordinate_Invalid(t *testing.T) {
	var rec domain.AttendanceRecord
	if err := json.Unmarshal([]byte(`{"latitude": "north"}`), &rec); err == nil {
		t.Fatal("expected error for non-numeric coordinate")
	}
}

func TestHistoryFilter_Valid(t *testing.T) {
	for _, f := range []domain.HistoryFilter{"today", "week", "month", "date", "all"} {
		if !f.Valid() {
			t.Errorf("%s should be valid", f)
		}
	}
	if domain.HistoryFilter("year").Valid() {
		t.Error("year should be invalid")
	}
}

func TestIdentity_IsAdmin(t *testing.T) {
	var nobody *domain.Identity
	if nobody.IsAdmin() {
		t.Error("nil identity must not be admin")
	}
	if (&domain.Identity{Role: domain.RoleEmployee}).IsAdmin() {
		t.Error("karyawan must not be admin")
	}
	if !(&domain.Identity{Role: domain.RoleAdmin}).IsAdmin() {
		t.Error("admin must be admin")
	}
}

func TestLocationError_Terminal(t *testing.T) {
	if !(&domain.LocationError{Code: domain.LocationUnsupported}).Terminal() {
		t.Error("unsupported must be terminal")
	}
	if (&domain.LocationError{Code: domain.LocationTimeout}).Terminal() {
		t.Error("timeout must not be terminal")
	}
}
