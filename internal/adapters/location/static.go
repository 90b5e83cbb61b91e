// Package location provides location providers that need no GPS agent.
package location

import (
	"context"
	"sync"
	"time"

	"github.com/rvlionxz/absensi-kiosk/internal/core/domain"
	"github.com/rvlionxz/absensi-kiosk/internal/core/ports"
)

// Static reports a fixed position, once at start and then every Interval.
type Static struct {
	Latitude  float64
	Longitude float64
	Accuracy  float64
	Interval  time.Duration
}

func (s Static) Watch(ctx context.Context, opts ports.WatchOptions) (ports.LocationSubscription, error) {
	sub := &subscription{results: make(chan domain.LocationResult, 1), done: make(chan struct{})}
	interval := s.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	go func() {
		defer close(sub.results)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			sample := &domain.LocationSample{
				Latitude:  s.Latitude,
				Longitude: s.Longitude,
				Accuracy:  s.Accuracy,
				Timestamp: time.Now(),
			}
			select {
			case sub.results <- domain.LocationResult{Sample: sample}:
			case <-sub.done:
				return
			case <-ctx.Done():
				return
			}
			select {
			case <-ticker.C:
			case <-sub.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return sub, nil
}

// Unsupported is a device without location capability.
type Unsupported struct{}

func (Unsupported) Watch(context.Context, ports.WatchOptions) (ports.LocationSubscription, error) {
	return nil, domain.ErrLocationUnsupported
}

type subscription struct {
	results chan domain.LocationResult
	done    chan struct{}
	once    sync.Once
}

func (s *subscription) Results() <-chan domain.LocationResult { return s.results }

func (s *subscription) Cancel() {
	s.once.Do(func() { close(s.done) })
}
