// Package timefmt renders attendance timestamps for display.
//
// The attendance API returns check-in times either with a zone marker
// ("...Z", "...+07:00") or as naive wall-clock strings. Naive strings get the
// client's timezone offset applied before display; zoned strings are shown at
// the wall clock they carry.
package timefmt

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ErrUnparseable is returned when a timestamp matches none of the accepted layouts.
var ErrUnparseable = errors.New("unparseable timestamp")

var offsetSuffix = regexp.MustCompile(`[+-]\d{2}:\d{2}$`)

var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Indonesian short month names, as rendered by the id-ID locale.
var months = [...]string{"Jan", "Feb", "Mar", "Apr", "Mei", "Jun", "Jul", "Agu", "Sep", "Okt", "Nov", "Des"}

// IsZoned reports whether raw carries an explicit UTC or offset marker.
func IsZoned(raw string) bool {
	return strings.Contains(raw, "Z") || offsetSuffix.MatchString(raw)
}

// Format renders raw as "2 Jan 2006, 15.04" (medium date, short time).
//
// clientOffsetMinutes follows the platform convention: minutes to add to
// local time to reach UTC, so UTC+7 is -420.
func Format(raw string, clientOffsetMinutes int) (string, error) {
	raw = strings.TrimSpace(raw)
	if IsZoned(raw) {
		t, err := parse(raw, zonedLayouts)
		if err != nil {
			return "", err
		}
		return render(t), nil
	}

	t, err := parse(raw, naiveLayouts)
	if err != nil {
		return "", err
	}
	local := t.In(ClientZone(clientOffsetMinutes))
	local = local.Add(time.Duration(clientOffsetMinutes) * time.Minute)
	return render(local), nil
}

// FormatOrRaw is Format that falls back to the raw string on parse failure.
func FormatOrRaw(raw string, clientOffsetMinutes int) string {
	s, err := Format(raw, clientOffsetMinutes)
	if err != nil {
		return raw
	}
	return s
}

// ClientOffset returns the platform-convention offset of t's zone in minutes.
func ClientOffset(t time.Time) int {
	_, secs := t.Zone()
	return -secs / 60
}

// ClientZone builds the fixed zone that corresponds to a platform offset.
func ClientZone(clientOffsetMinutes int) *time.Location {
	return time.FixedZone("client", -clientOffsetMinutes*60)
}

func parse(raw string, layouts []string) (time.Time, error) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseable, raw)
}

func render(t time.Time) string {
	return fmt.Sprintf("%d %s %d, %02d.%02d", t.Day(), months[t.Month()-1], t.Year(), t.Hour(), t.Minute())
}
