package ports

import (
	"context"
	"time"

	"github.com/rvlionxz/absensi-kiosk/internal/core/domain"
)

// WatchOptions configure a continuous location subscription.
type WatchOptions struct {
	HighAccuracy bool
	// Timeout is how long the provider may go without a fix before it
	// reports a timeout error.
	Timeout time.Duration
	// MaximumAge is the oldest cached sample accepted. Zero accepts only
	// fixes taken after the watch started.
	MaximumAge time.Duration
}

// DefaultWatchOptions are the options the geofence monitor watches with.
var DefaultWatchOptions = WatchOptions{
	HighAccuracy: true,
	Timeout:      10 * time.Second,
	MaximumAge:   0,
}

// LocationSubscription is a live location watch. Results is closed after
// Cancel or when the provider stops for good. Cancel is idempotent.
type LocationSubscription interface {
	Results() <-chan domain.LocationResult
	Cancel()
}

// LocationProvider is the device location capability.
type LocationProvider interface {
	// Watch starts a continuous subscription. It returns
	// domain.ErrLocationUnsupported when the device has no location capability.
	Watch(ctx context.Context, opts WatchOptions) (LocationSubscription, error)
}
