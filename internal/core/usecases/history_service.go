package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/rvlionxz/absensi-kiosk/internal/core/domain"
	"github.com/rvlionxz/absensi-kiosk/internal/core/ports"
	"github.com/rvlionxz/absensi-kiosk/internal/pkg/metrics"
	"github.com/rvlionxz/absensi-kiosk/internal/pkg/timefmt"
)

const historyCacheTTL = 60 // seconds

// HistoryService serves the admin attendance history.
type HistoryService struct {
	api   ports.AttendanceAPI
	cache ports.CacheService
}

// NewHistoryService creates a HistoryService. cache may be nil.
func NewHistoryService(api ports.AttendanceAPI, cache ports.CacheService) *HistoryService {
	return &HistoryService{api: api, cache: cache}
}

// List returns the records of the selected period, ready for display.
// FilterDate without a date yields no rows and no request.
func (s *HistoryService) List(ctx context.Context, q domain.HistoryQuery) ([]domain.HistoryRow, error) {
	if q.Filter == "" {
		q.Filter = domain.FilterToday
	}
	if !q.Filter.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidFilter, q.Filter)
	}
	if q.Filter != domain.FilterDate {
		q.Date = ""
	} else {
		if q.Date == "" {
			return []domain.HistoryRow{}, nil
		}
		if _, err := time.Parse("2006-01-02", q.Date); err != nil {
			return nil, fmt.Errorf("%w: date must be yyyy-MM-dd", domain.ErrValidation)
		}
	}

	records, err := s.records(ctx, q)
	if err != nil {
		return nil, err
	}

	rows := make([]domain.HistoryRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, domain.HistoryRow{
			ID:          string(r.ID),
			FullName:    r.FullName,
			Position:    r.Position,
			CheckInAt:   r.CheckInAt,
			DisplayTime: timefmt.FormatOrRaw(r.CheckInAt, q.TZOffset),
			Location:    fmt.Sprintf("%.4f, %.4f", float64(r.Latitude), float64(r.Longitude)),
		})
	}
	return rows, nil
}

func (s *HistoryService) records(ctx context.Context, q domain.HistoryQuery) ([]domain.AttendanceRecord, error) {
	key := fmt.Sprintf("absensi:history:%s:%s:%d", q.Filter, q.Date, q.TZOffset)

	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key); err == nil && len(data) > 0 {
			var records []domain.AttendanceRecord
			if json.Unmarshal(data, &records) == nil {
				metrics.CacheHits.WithLabelValues("history").Inc()
				return records, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("history").Inc()
	}

	records, err := s.api.History(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}

	if s.cache != nil {
		if data, err := json.Marshal(records); err == nil {
			if err := s.cache.Set(ctx, key, data, historyCacheTTL); err != nil {
				slog.Debug("history cache set failed", "error", err)
			}
		}
	}
	return records, nil
}

// Invalidate drops the cached periods that a new check-in can change.
func (s *HistoryService) Invalidate(ctx context.Context, tzOffset int) {
	if s.cache == nil {
		return
	}
	for _, f := range []domain.HistoryFilter{domain.FilterToday, domain.FilterWeek, domain.FilterMonth, domain.FilterAll} {
		_ = s.cache.Delete(ctx, fmt.Sprintf("absensi:history:%s::%d", f, tzOffset))
	}
}
