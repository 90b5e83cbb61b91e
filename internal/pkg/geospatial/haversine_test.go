package geospatial_test

import (
	"math"
	"testing"

	"github.com/rvlionxz/absensi-kiosk/internal/pkg/geospatial"
)

const (
	clinicLat = 3.5645393152493323
	clinicLon = 96.98625848706028
)

func TestHaversine_SamePoint(t *testing.T) {
	d := geospatial.Haversine(clinicLat, clinicLon, clinicLat, clinicLon)
	if d != 0 {
		t.Fatalf("expected 0, got %f", d)
	}
}

func TestHaversine_OneThousandthDegreeLatitude(t *testing.T) {
	d := geospatial.Haversine(clinicLat, clinicLon, clinicLat+0.001, clinicLon)
	if math.Abs(d-111.19) > 0.5 {
		t.Errorf("expected ~111.19m, got %f", d)
	}
	if geospatial.Within(d, 50) {
		t.Error("111m must be outside a 50m radius")
	}
}

func TestHaversine_Symmetric(t *testing.T) {
	a := geospatial.Haversine(clinicLat, clinicLon, -6.2, 106.8)
	b := geospatial.Haversine(-6.2, 106.8, clinicLat, clinicLon)
	if math.Abs(a-b) > 1e-6 {
		t.Errorf("distance not symmetric: %f vs %f", a, b)
	}
}

func TestWithin_Boundary(t *testing.T) {
	if !geospatial.Within(50, 50) {
		t.Error("a point exactly on the radius must be inside")
	}
	if geospatial.Within(50.0000001, 50) {
		t.Error("a point just past the radius must be outside")
	}
}

func TestOffsetNorth_RoundTrip(t *testing.T) {
	lat := geospatial.OffsetNorth(clinicLat, 40)
	d := geospatial.Haversine(clinicLat, clinicLon, lat, clinicLon)
	if math.Abs(d-40) > 1e-6 {
		t.Errorf("expected 40m, got %f", d)
	}
}
