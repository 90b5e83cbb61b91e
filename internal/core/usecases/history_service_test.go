package usecases_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rvlionxz/absensi-kiosk/internal/core/domain"
	"github.com/rvlionxz/absensi-kiosk/internal/core/usecases"
)

// --- Mock CacheService ---

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttl  map[string]int
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}, ttl: map[string]int{}}
}

func (c *memCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, errors.New("miss")
	}
	return v, nil
}

func (c *memCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.ttl[key] = ttlSeconds
	return nil
}

func (c *memCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func sampleHistory(ctx context.Context, q domain.HistoryQuery) ([]domain.AttendanceRecord, error) {
	return []domain.AttendanceRecord{
		{ID: "1", FullName: "Siti", Position: "Perawat", CheckInAt: "2024-03-01T09:00:00", Latitude: 3.56453931, Longitude: 96.98625848},
		{ID: "2", FullName: "Budi", Position: "Apoteker", CheckInAt: "2024-03-01T01:30:00Z", Latitude: 3.5646, Longitude: 96.9863},
	}, nil
}

func TestHistoryService_FormatsRows(t *testing.T) {
	api := &mockAttendanceAPI{historyFn: sampleHistory}
	svc := usecases.NewHistoryService(api, nil)

	rows, err := svc.List(context.Background(), domain.HistoryQuery{Filter: domain.FilterToday, TZOffset: -420})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].DisplayTime != "1 Mar 2024, 09.00" {
		t.Errorf("unexpected naive display time %q", rows[0].DisplayTime)
	}
	if rows[1].DisplayTime != "1 Mar 2024, 01.30" {
		t.Errorf("unexpected zoned display time %q", rows[1].DisplayTime)
	}
	if rows[0].Location != "3.5645, 96.9863" {
		t.Errorf("unexpected location %q", rows[0].Location)
	}
}

func TestHistoryService_DefaultsToToday(t *testing.T) {
	var got domain.HistoryQuery
	api := &mockAttendanceAPI{historyFn: func(ctx context.Context, q domain.HistoryQuery) ([]domain.AttendanceRecord, error) {
		got = q
		return nil, nil
	}}
	svc := usecases.NewHistoryService(api, nil)

	rows, err := svc.List(context.Background(), domain.HistoryQuery{Date: "2024-03-01"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows == nil || len(rows) != 0 {
		t.Errorf("expected empty non-nil rows, got %v", rows)
	}
	if got.Filter != domain.FilterToday || got.Date != "" {
		t.Errorf("expected today without date, got %+v", got)
	}
}

func TestHistoryService_DateFilterWithoutDate(t *testing.T) {
	api := &mockAttendanceAPI{historyFn: sampleHistory}
	svc := usecases.NewHistoryService(api, nil)

	rows, err := svc.List(context.Background(), domain.HistoryQuery{Filter: domain.FilterDate})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected no rows, got %d", len(rows))
	}
	if api.historyCalls.Load() != 0 {
		t.Error("no request expected without a date")
	}
}

func TestHistoryService_InvalidInput(t *testing.T) {
	svc := usecases.NewHistoryService(&mockAttendanceAPI{}, nil)

	if _, err := svc.List(context.Background(), domain.HistoryQuery{Filter: "year"}); !errors.Is(err, domain.ErrInvalidFilter) {
		t.Errorf("expected ErrInvalidFilter, got %v", err)
	}
	if _, err := svc.List(context.Background(), domain.HistoryQuery{Filter: domain.FilterDate, Date: "01/03/2024"}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestHistoryService_Cache(t *testing.T) {
	api := &mockAttendanceAPI{historyFn: sampleHistory}
	cache := newMemCache()
	svc := usecases.NewHistoryService(api, cache)
	q := domain.HistoryQuery{Filter: domain.FilterWeek, TZOffset: -420}

	first, _ := svc.List(context.Background(), q)
	second, _ := svc.List(context.Background(), q)

	if api.historyCalls.Load() != 1 {
		t.Errorf("expected 1 remote call, got %d", api.historyCalls.Load())
	}
	if len(second) != len(first) || second[0].Location != first[0].Location {
		t.Error("cached rows differ from fresh rows")
	}
	if ttl := cache.ttl["absensi:history:week::-420"]; ttl != 60 {
		t.Errorf("expected 60s ttl, got %d", ttl)
	}

	svc.Invalidate(context.Background(), -420)
	_, _ = svc.List(context.Background(), q)
	if api.historyCalls.Load() != 2 {
		t.Error("expected a fresh fetch after invalidation")
	}
}

func TestHistoryService_RemoteError(t *testing.T) {
	api := &mockAttendanceAPI{historyFn: func(ctx context.Context, q domain.HistoryQuery) ([]domain.AttendanceRecord, error) {
		return nil, &domain.RemoteError{StatusCode: 403, Message: "Akses ditolak"}
	}}
	svc := usecases.NewHistoryService(api, newMemCache())

	_, err := svc.List(context.Background(), domain.HistoryQuery{Filter: domain.FilterAll})
	var re *domain.RemoteError
	if !errors.As(err, &re) || re.StatusCode != 403 {
		t.Errorf("expected wrapped RemoteError, got %v", err)
	}
}
