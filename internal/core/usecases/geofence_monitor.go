package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rvlionxz/absensi-kiosk/internal/core/domain"
	"github.com/rvlionxz/absensi-kiosk/internal/core/ports"
	"github.com/rvlionxz/absensi-kiosk/internal/pkg/geospatial"
	"github.com/rvlionxz/absensi-kiosk/internal/pkg/metrics"
)

const unsupportedMessage = "Geolocation is not supported by this device."

// GeofenceReader exposes the latest geofence state.
type GeofenceReader interface {
	Snapshot() domain.GeofenceSnapshot
}

// MonitorOption configures a GeofenceMonitor.
type MonitorOption func(*GeofenceMonitor)

// WithWatchOptions overrides ports.DefaultWatchOptions.
func WithWatchOptions(opts ports.WatchOptions) MonitorOption {
	return func(m *GeofenceMonitor) { m.opts = opts }
}

// WithGeofencePublisher publishes a snapshot each time admissibility flips.
func WithGeofencePublisher(p ports.EventPublisher) MonitorOption {
	return func(m *GeofenceMonitor) {
		if p != nil {
			m.publisher = p
		}
	}
}

// WithClock sets the time source for snapshot timestamps.
func WithClock(now func() time.Time) MonitorOption {
	return func(m *GeofenceMonitor) {
		if now != nil {
			m.now = now
		}
	}
}

// GeofenceMonitor subscribes to the device location and keeps the latest
// LocationState and admissibility against a fixed reference point.
//
// Every subscription is tagged with a generation. Stop bumps the
// generation, so results still queued for an older subscription are
// discarded instead of applied.
type GeofenceMonitor struct {
	provider  ports.LocationProvider
	ref       domain.ReferencePoint
	opts      ports.WatchOptions
	publisher ports.EventPublisher
	now       func() time.Time

	mu       sync.RWMutex
	gen      uint64
	sub      ports.LocationSubscription
	snapshot domain.GeofenceSnapshot
	watchers map[chan domain.GeofenceSnapshot]struct{}
}

// NewGeofenceMonitor creates a monitor in the loading state.
func NewGeofenceMonitor(provider ports.LocationProvider, ref domain.ReferencePoint, opts ...MonitorOption) *GeofenceMonitor {
	m := &GeofenceMonitor{
		provider: provider,
		ref:      ref,
		opts:     ports.DefaultWatchOptions,
		now:      time.Now,
		watchers: make(map[chan domain.GeofenceSnapshot]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.snapshot = domain.GeofenceSnapshot{
		Location:  domain.LocationState{Loading: true},
		UpdatedAt: m.now(),
	}
	return m
}

// Reference returns the clinic reference point.
func (m *GeofenceMonitor) Reference() domain.ReferencePoint {
	return m.ref
}

// Start opens the location subscription. Calling Start on a running
// monitor is a no-op. When the device has no location capability the
// state moves straight to the unsupported error and
// domain.ErrLocationUnsupported is returned.
func (m *GeofenceMonitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.sub != nil {
		m.mu.Unlock()
		return nil
	}
	m.gen++
	gen := m.gen
	m.mu.Unlock()

	sub, err := m.provider.Watch(ctx, m.opts)
	if err != nil {
		if errors.Is(err, domain.ErrLocationUnsupported) {
			m.apply(gen, domain.LocationResult{Err: &domain.LocationError{
				Code:    domain.LocationUnsupported,
				Message: unsupportedMessage,
			}})
			return err
		}
		m.apply(gen, domain.LocationResult{Err: &domain.LocationError{
			Code:    domain.LocationUnavailable,
			Message: err.Error(),
		}})
		return fmt.Errorf("watch location: %w", err)
	}

	m.mu.Lock()
	if m.gen != gen {
		// Stopped while the provider was starting.
		m.mu.Unlock()
		sub.Cancel()
		return nil
	}
	m.sub = sub
	m.mu.Unlock()

	go m.consume(gen, sub)
	return nil
}

func (m *GeofenceMonitor) consume(gen uint64, sub ports.LocationSubscription) {
	for res := range sub.Results() {
		if !m.apply(gen, res) {
			return
		}
	}
}

// apply folds one provider result into the state. It reports false when
// the result belongs to a torn-down subscription.
func (m *GeofenceMonitor) apply(gen uint64, res domain.LocationResult) bool {
	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return false
	}

	prev := m.snapshot
	next := domain.GeofenceSnapshot{UpdatedAt: m.now()}

	switch {
	case res.Sample != nil:
		s := res.Sample
		lat, lon, acc := s.Latitude, s.Longitude, s.Accuracy
		distance := geospatial.Haversine(lat, lon, m.ref.Latitude, m.ref.Longitude)
		next.Location = domain.LocationState{Latitude: &lat, Longitude: &lon, Accuracy: &acc}
		next.DistanceMeters = &distance
		next.Admissible = geospatial.Within(distance, m.ref.RadiusMeters)
		metrics.LocationSamples.Inc()
		metrics.SetAdmissible(next.Admissible, distance)
	case res.Err != nil:
		e := *res.Err
		next.Location = domain.LocationState{Error: &e}
		metrics.LocationErrors.WithLabelValues(string(e.Code)).Inc()
		metrics.SetAdmissible(false, 0)
	default:
		m.mu.Unlock()
		return true
	}

	m.snapshot = next
	for ch := range m.watchers {
		select {
		case ch <- next:
		default:
		}
	}
	m.mu.Unlock()

	if res.Err != nil {
		slog.Warn("location error", "code", res.Err.Code, "message", res.Err.Message)
	}

	if m.publisher != nil && (prev.Admissible != next.Admissible || prev.Location.Loading) {
		if err := m.publisher.PublishGeofenceChange(context.Background(), &next); err != nil {
			slog.Debug("publish geofence change failed", "error", err)
		}
	}
	return true
}

// Stop releases the location subscription. Results delivered after Stop
// returns never change the state.
func (m *GeofenceMonitor) Stop() {
	m.mu.Lock()
	m.gen++
	sub := m.sub
	m.sub = nil
	m.mu.Unlock()

	if sub != nil {
		sub.Cancel()
	}
}

// Snapshot returns the latest state.
func (m *GeofenceMonitor) Snapshot() domain.GeofenceSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// Watch streams snapshots until ctx is done. The current snapshot is sent
// first. Slow readers miss intermediate snapshots, never the channel close.
func (m *GeofenceMonitor) Watch(ctx context.Context) <-chan domain.GeofenceSnapshot {
	ch := make(chan domain.GeofenceSnapshot, 8)

	m.mu.Lock()
	ch <- m.snapshot
	m.watchers[ch] = struct{}{}
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		delete(m.watchers, ch)
		close(ch)
		m.mu.Unlock()
	}()
	return ch
}
