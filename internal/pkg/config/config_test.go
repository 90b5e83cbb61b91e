package config_test

import (
	"strings"
	"testing"

	"github.com/rvlionxz/absensi-kiosk/internal/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("absensi-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Clinic.RadiusMeters != 50 {
		t.Errorf("expected radius 50, got %f", cfg.Clinic.RadiusMeters)
	}
	if cfg.Location.TimeoutMs != 10000 {
		t.Errorf("expected timeout 10000ms, got %d", cfg.Location.TimeoutMs)
	}
	if cfg.Location.MaxAgeMs != 0 {
		t.Errorf("expected max age 0, got %d", cfg.Location.MaxAgeMs)
	}
	if !cfg.Location.HighAccuracy {
		t.Error("expected high accuracy by default")
	}
	if cfg.Telemetry.ServiceName != "absensi-test" {
		t.Errorf("expected service name absensi-test, got %s", cfg.Telemetry.ServiceName)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("ABSENSI_REMOTE_BASE_URL", "https://absensi.example.id/api")
	t.Setenv("ABSENSI_CLINIC_RADIUS_METERS", "75")

	cfg, err := config.Load("absensi-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Remote.BaseURL != "https://absensi.example.id/api" {
		t.Errorf("unexpected base url %s", cfg.Remote.BaseURL)
	}
	if cfg.Clinic.RadiusMeters != 75 {
		t.Errorf("expected radius 75, got %f", cfg.Clinic.RadiusMeters)
	}
}

func TestValidate_CollectsErrors(t *testing.T) {
	cfg := &config.Config{
		Server:   config.ServerConfig{Port: 0, ReadTimeout: 10, WriteTimeout: 10},
		Remote:   config.RemoteConfig{BaseURL: "", Timeout: 15},
		Clinic:   config.ClinicConfig{Latitude: 100, Longitude: 0, RadiusMeters: 50},
		Location: config.LocationConfig{Provider: "gps", TimeoutMs: 10000},
		Session:  config.SessionConfig{Store: "file", Path: "s.json"},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"server.port", "remote.base_url", "clinic.latitude", "location.provider"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error to mention %s, got %v", want, err)
		}
	}
}
