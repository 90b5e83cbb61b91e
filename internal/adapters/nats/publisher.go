package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/rvlionxz/absensi-kiosk/internal/core/domain"
)

// Subject roots.
const (
	checkInSubject  = "absensi.checkin."
	geofenceSubject = "absensi.geofence."
	locationSubject = "absensi.location."
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn     *nats.Conn
	js       nats.JetStreamContext
	deviceID string
}

// NewPublisher enables JetStream on conn and ensures the attendance streams exist.
func NewPublisher(conn *nats.Conn, deviceID string) (*Publisher, error) {
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	// Ensure streams exist
	streams := []nats.StreamConfig{
		{
			Name:      "ABSENSI_CHECKINS",
			Subjects:  []string{checkInSubject + ">"},
			Retention: nats.LimitsPolicy,
			MaxAge:    7 * 24 * time.Hour,
			Storage:   nats.FileStorage,
		},
		{
			Name:      "ABSENSI_GEOFENCE",
			Subjects:  []string{geofenceSubject + ">"},
			Retention: nats.InterestPolicy,
			MaxAge:    1 * time.Hour,
			Storage:   nats.FileStorage,
		},
	}

	for _, cfg := range streams {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist, try update
			if _, err := js.UpdateStream(&cfg); err != nil {
				return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}

	return &Publisher{conn: conn, js: js, deviceID: SubjectToken(deviceID)}, nil
}

func (p *Publisher) PublishCheckIn(ctx context.Context, event *domain.CheckInEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(checkInSubject+p.deviceID, data, nats.Context(ctx))
	return err
}

func (p *Publisher) PublishGeofenceChange(ctx context.Context, snapshot *domain.GeofenceSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(geofenceSubject+p.deviceID, data, nats.Context(ctx))
	return err
}

// Connect opens a NATS connection that keeps reconnecting in the background.
func Connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return conn, nil
}

// SubjectToken makes id usable as a single subject token.
func SubjectToken(id string) string {
	r := strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_")
	if id = r.Replace(strings.TrimSpace(id)); id == "" {
		return "default"
	}
	return id
}

// LocationSubject is where samples for a device are published.
func LocationSubject(deviceID string) string {
	return locationSubject + SubjectToken(deviceID)
}

// WatchSubject is where watch requests for a device are published.
func WatchSubject(deviceID string) string {
	return LocationSubject(deviceID) + ".watch"
}
