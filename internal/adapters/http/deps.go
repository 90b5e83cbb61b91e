package http

import (
	"context"

	"github.com/nats-io/nats.go"
	"github.com/valkey-io/valkey-go"

	"github.com/rvlionxz/absensi-kiosk/internal/core/usecases"
)

// Pinger reports whether a remote dependency answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Monitor       *usecases.GeofenceMonitor
	Attendance    *usecases.AttendanceController
	Session       *usecases.SessionService
	History       *usecases.HistoryService
	Users         *usecases.UserService
	Notifications *NotificationHub
	NATS          *nats.Conn
	Valkey        valkey.Client
	Remote        Pinger
}
