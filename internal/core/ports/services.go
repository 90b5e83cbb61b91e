package ports

import (
	"context"

	"github.com/rvlionxz/absensi-kiosk/internal/core/domain"
)

// AttendanceAPI is the remote attendance REST API.
type AttendanceAPI interface {
	Status(ctx context.Context, tzOffset int) (*domain.StatusResponse, error)
	CheckIn(ctx context.Context, req domain.CheckInRequest) (*domain.AttendanceRecord, error)
	History(ctx context.Context, q domain.HistoryQuery) ([]domain.AttendanceRecord, error)
}

// AuthAPI is the remote login endpoint.
type AuthAPI interface {
	Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error)
}

// UserAPI is the remote account management API (admin only).
type UserAPI interface {
	List(ctx context.Context) ([]domain.UserAccount, error)
	Create(ctx context.Context, user domain.NewUser) error
	ResetPassword(ctx context.Context, userID, newPassword string) error
	ResetDevice(ctx context.Context, userID string) error
}

// SessionStore persists session values across restarts. Get returns an
// empty string and no error for a missing key.
type SessionStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Clear(ctx context.Context, key string) error
}

// TokenSource supplies the bearer credential for outbound requests.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// EventPublisher publishes attendance events to a message broker.
type EventPublisher interface {
	PublishCheckIn(ctx context.Context, event *domain.CheckInEvent) error
	PublishGeofenceChange(ctx context.Context, snapshot *domain.GeofenceSnapshot) error
}

// Notifier presents user-facing messages.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification)
}
