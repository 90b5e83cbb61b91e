package timefmt_test

import (
	"errors"
	"testing"
	"time"

	"github.com/rvlionxz/absensi-kiosk/internal/pkg/timefmt"
)

func TestFormat_NaiveMatchesZoned(t *testing.T) {
	naive, err := timefmt.Format("2024-03-01T09:00:00", -420)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, offset := range []int{-420, 0, 60, 300, -540} {
		zoned, err := timefmt.Format("2024-03-01T09:00:00+07:00", offset)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if zoned != naive {
			t.Errorf("offset %d: zoned %q != naive %q", offset, zoned, naive)
		}
	}
	if naive != "1 Mar 2024, 09.00" {
		t.Errorf("unexpected rendering %q", naive)
	}
}

func TestFormat_ZonedUTC(t *testing.T) {
	got, err := timefmt.Format("2024-08-17T02:05:09.123Z", -420)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "17 Agu 2024, 02.05" {
		t.Errorf("got %q", got)
	}
}

func TestFormat_NaiveLayouts(t *testing.T) {
	cases := map[string]string{
		"2024-12-31 23:59:00":     "31 Des 2024, 23.59",
		"2024-05-02T07:30":        "2 Mei 2024, 07.30",
		"2024-10-09T16:45:00.500": "9 Okt 2024, 16.45",
	}
	for raw, want := range cases {
		got, err := timefmt.Format(raw, -420)
		if err != nil {
			t.Errorf("%s: unexpected error %v", raw, err)
			continue
		}
		if got != want {
			t.Errorf("%s: got %q, want %q", raw, got, want)
		}
	}
}

func TestFormat_Unparseable(t *testing.T) {
	_, err := timefmt.Format("yesterday", 0)
	if !errors.Is(err, timefmt.ErrUnparseable) {
		t.Fatalf("expected ErrUnparseable, got %v", err)
	}
	if got := timefmt.FormatOrRaw("yesterday", 0); got != "yesterday" {
		t.Errorf("expected raw fallback, got %q", got)
	}
}

func TestIsZoned(t *testing.T) {
	if !timefmt.IsZoned("2024-03-01T09:00:00Z") {
		t.Error("Z suffix must be zoned")
	}
	if !timefmt.IsZoned("2024-03-01T09:00:00-03:00") {
		t.Error("offset suffix must be zoned")
	}
	if timefmt.IsZoned("2024-03-01T09:00:00") {
		t.Error("naive string must not be zoned")
	}
}

func TestClientOffset(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)
	if got := timefmt.ClientOffset(time.Date(2024, 1, 1, 0, 0, 0, 0, jakarta)); got != -420 {
		t.Errorf("expected -420, got %d", got)
	}
	if got := timefmt.ClientOffset(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
}
