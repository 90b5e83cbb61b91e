package usecases_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rvlionxz/absensi-kiosk/internal/core/domain"
	"github.com/rvlionxz/absensi-kiosk/internal/core/ports"
	"github.com/rvlionxz/absensi-kiosk/internal/core/usecases"
	"github.com/rvlionxz/absensi-kiosk/internal/pkg/geospatial"
)

var clinic = domain.ReferencePoint{
	Latitude:     3.5645393152493323,
	Longitude:    96.98625848706028,
	RadiusMeters: 50,
}

// --- Mock LocationProvider ---

type mockSubscription struct {
	ch        chan domain.LocationResult
	cancelled atomic.Bool
}

func (s *mockSubscription) Results() <-chan domain.LocationResult { return s.ch }
func (s *mockSubscription) Cancel()                               { s.cancelled.Store(true) }

type mockProvider struct {
	sub      *mockSubscription
	watchErr error
	opts     ports.WatchOptions
	calls    int
}

func newMockProvider() *mockProvider {
	// Unbuffered: a send returns only once the monitor has received the result.
	return &mockProvider{sub: &mockSubscription{ch: make(chan domain.LocationResult)}}
}

func (p *mockProvider) Watch(ctx context.Context, opts ports.WatchOptions) (ports.LocationSubscription, error) {
	p.calls++
	p.opts = opts
	if p.watchErr != nil {
		return nil, p.watchErr
	}
	return p.sub, nil
}

func (p *mockProvider) send(lat, lon float64) {
	p.sub.ch <- domain.LocationResult{Sample: &domain.LocationSample{
		Latitude: lat, Longitude: lon, Accuracy: 8, Timestamp: time.Now(),
	}}
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu        sync.Mutex
	geofence  []domain.GeofenceSnapshot
	checkIns  []domain.CheckInEvent
	publishFn func() error
}

func (p *mockPublisher) PublishCheckIn(ctx context.Context, e *domain.CheckInEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checkIns = append(p.checkIns, *e)
	return nil
}

func (p *mockPublisher) PublishGeofenceChange(ctx context.Context, s *domain.GeofenceSnapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.geofence = append(p.geofence, *s)
	if p.publishFn != nil {
		return p.publishFn()
	}
	return nil
}

func (p *mockPublisher) geofenceCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.geofence)
}

func (p *mockPublisher) checkInEvents() []domain.CheckInEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.CheckInEvent(nil), p.checkIns...)
}

func awaitSnapshot(t *testing.T, ch <-chan domain.GeofenceSnapshot, ok func(domain.GeofenceSnapshot) bool) domain.GeofenceSnapshot {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case s := <-ch:
			if ok(s) {
				return s
			}
		case <-timeout:
			t.Fatal("timed out waiting for snapshot")
		}
	}
}

func TestGeofenceMonitor_InitialStateLoading(t *testing.T) {
	m := usecases.NewGeofenceMonitor(newMockProvider(), clinic)
	snap := m.Snapshot()
	if !snap.Location.Loading {
		t.Error("expected loading before the first sample")
	}
	if snap.Admissible || snap.Location.HasCoordinates() {
		t.Error("loading state must not be admissible or carry coordinates")
	}
}

func TestGeofenceMonitor_DefaultWatchOptions(t *testing.T) {
	p := newMockProvider()
	m := usecases.NewGeofenceMonitor(p, clinic)
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer m.Stop()

	if !p.opts.HighAccuracy || p.opts.Timeout != 10*time.Second || p.opts.MaximumAge != 0 {
		t.Errorf("unexpected watch options %+v", p.opts)
	}
}

func TestGeofenceMonitor_SampleAtReferenceIsAdmissible(t *testing.T) {
	p := newMockProvider()
	m := usecases.NewGeofenceMonitor(p, clinic)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	updates := m.Watch(ctx)

	if err := m.Start(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer m.Stop()

	p.send(clinic.Latitude, clinic.Longitude)
	snap := awaitSnapshot(t, updates, func(s domain.GeofenceSnapshot) bool { return !s.Location.Loading })

	if !snap.Admissible {
		t.Error("expected admissible at the reference point")
	}
	if *snap.DistanceMeters != 0 {
		t.Errorf("expected distance 0, got %f", *snap.DistanceMeters)
	}
	if *snap.Location.Accuracy != 8 {
		t.Errorf("expected accuracy 8, got %f", *snap.Location.Accuracy)
	}
}

func TestGeofenceMonitor_OutsideRadius(t *testing.T) {
	p := newMockProvider()
	m := usecases.NewGeofenceMonitor(p, clinic)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	updates := m.Watch(ctx)
	_ = m.Start(ctx)
	defer m.Stop()

	// 0.001 degrees of latitude is about 111 m.
	p.send(clinic.Latitude+0.001, clinic.Longitude)
	snap := awaitSnapshot(t, updates, func(s domain.GeofenceSnapshot) bool { return !s.Location.Loading })

	if snap.Admissible {
		t.Error("expected not admissible at ~111 m")
	}
	if d := *snap.DistanceMeters; d < 110 || d > 112.5 {
		t.Errorf("expected ~111 m, got %f", d)
	}
}

func TestGeofenceMonitor_JustInsideRadius(t *testing.T) {
	p := newMockProvider()
	m := usecases.NewGeofenceMonitor(p, clinic)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	updates := m.Watch(ctx)
	_ = m.Start(ctx)
	defer m.Stop()

	p.send(geospatial.OffsetNorth(clinic.Latitude, 49.5), clinic.Longitude)
	snap := awaitSnapshot(t, updates, func(s domain.GeofenceSnapshot) bool { return !s.Location.Loading })
	if !snap.Admissible {
		t.Errorf("expected admissible at %f m", *snap.DistanceMeters)
	}
}

func TestGeofenceMonitor_ErrorClearsCoordinates(t *testing.T) {
	p := newMockProvider()
	m := usecases.NewGeofenceMonitor(p, clinic)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	updates := m.Watch(ctx)
	_ = m.Start(ctx)
	defer m.Stop()

	p.send(clinic.Latitude, clinic.Longitude)
	awaitSnapshot(t, updates, func(s domain.GeofenceSnapshot) bool { return s.Admissible })

	p.sub.ch <- domain.LocationResult{Err: &domain.LocationError{Code: domain.LocationDenied, Message: "User denied Geolocation"}}
	snap := awaitSnapshot(t, updates, func(s domain.GeofenceSnapshot) bool { return s.Location.Error != nil })

	if snap.Location.HasCoordinates() || snap.Location.Accuracy != nil {
		t.Error("error state must not keep coordinates")
	}
	if snap.Admissible {
		t.Error("error state must not be admissible")
	}
	if snap.Location.Error.Code != domain.LocationDenied {
		t.Errorf("expected denied, got %s", snap.Location.Error.Code)
	}
}

func TestGeofenceMonitor_Unsupported(t *testing.T) {
	p := newMockProvider()
	p.watchErr = domain.ErrLocationUnsupported
	m := usecases.NewGeofenceMonitor(p, clinic)

	if err := m.Start(context.Background()); err != domain.ErrLocationUnsupported {
		t.Fatalf("expected ErrLocationUnsupported, got %v", err)
	}
	snap := m.Snapshot()
	if snap.Location.Loading {
		t.Error("unsupported must not stay loading")
	}
	if snap.Location.Error == nil || snap.Location.Error.Code != domain.LocationUnsupported {
		t.Fatalf("expected unsupported error, got %+v", snap.Location.Error)
	}
	if snap.Admissible {
		t.Error("unsupported must not be admissible")
	}
}

func TestGeofenceMonitor_ResultAfterStopIsIgnored(t *testing.T) {
	p := newMockProvider()
	m := usecases.NewGeofenceMonitor(p, clinic)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	updates := m.Watch(ctx)
	_ = m.Start(ctx)

	p.send(clinic.Latitude, clinic.Longitude)
	awaitSnapshot(t, updates, func(s domain.GeofenceSnapshot) bool { return s.Admissible })

	m.Stop()
	if !p.sub.cancelled.Load() {
		t.Fatal("expected subscription to be cancelled")
	}

	// The mock keeps its channel open after Cancel, so a late result can
	// still reach the monitor.
	done := make(chan struct{})
	go func() {
		defer close(done)
		select {
		case p.sub.ch <- domain.LocationResult{Sample: &domain.LocationSample{Latitude: 0, Longitude: 0}}:
		case <-time.After(200 * time.Millisecond):
		}
	}()
	<-done

	snap := m.Snapshot()
	if !snap.Admissible || *snap.Location.Latitude != clinic.Latitude {
		t.Error("a result delivered after Stop must not change the state")
	}
}

func TestGeofenceMonitor_StartTwiceIsNoop(t *testing.T) {
	p := newMockProvider()
	m := usecases.NewGeofenceMonitor(p, clinic)
	_ = m.Start(context.Background())
	_ = m.Start(context.Background())
	defer m.Stop()

	if p.calls != 1 {
		t.Errorf("expected 1 watch call, got %d", p.calls)
	}
}

func TestGeofenceMonitor_PublishesOnAdmissibilityChange(t *testing.T) {
	p := newMockProvider()
	pub := &mockPublisher{}
	m := usecases.NewGeofenceMonitor(p, clinic, usecases.WithGeofencePublisher(pub))
	_ = m.Start(context.Background())
	defer m.Stop()

	p.send(clinic.Latitude, clinic.Longitude)       // first fix: published
	p.send(clinic.Latitude, clinic.Longitude)       // unchanged
	p.send(clinic.Latitude+0.001, clinic.Longitude) // flips: published
	// Receiving this one means the previous result was fully applied.
	p.send(clinic.Latitude+0.001, clinic.Longitude)

	if n := pub.geofenceCount(); n != 2 {
		t.Errorf("expected 2 geofence events, got %d", n)
	}
}
