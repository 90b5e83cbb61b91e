package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/rvlionxz/absensi-kiosk/internal/core/domain"
	"github.com/rvlionxz/absensi-kiosk/internal/core/usecases"
	"github.com/rvlionxz/absensi-kiosk/internal/pkg/metrics"
)

// wsEvent is a server-to-client frame.
type wsEvent struct {
	Type string      `json:"type"` // "geofence" | "notification" | "error"
	Data interface{} `json:"data"`
}

// wsMessage is sent from client to request a fresh snapshot.
type wsMessage struct {
	Action string `json:"action"` // "snapshot"
}

type wsGeofence struct {
	Snapshot domain.GeofenceSnapshot `json:"geofence"`
	Banner   string                  `json:"banner"`
}

// WebSocketHandler streams geofence snapshots and notifications to the kiosk
// screen. The current snapshot is sent right after the upgrade.
func WebSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		remoteAddr := c.RemoteAddr().String()
		slog.Info("ws client connected", "remote", remoteAddr)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var mu sync.Mutex
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}
		sendSnapshot := func() error {
			snap := deps.Monitor.Snapshot()
			return writeJSON(wsEvent{Type: "geofence", Data: wsGeofence{Snapshot: snap, Banner: usecases.Banner(snap)}})
		}

		snapshots := deps.Monitor.Watch(ctx)
		var notes <-chan TimedNotification
		if deps.Notifications != nil {
			notes = deps.Notifications.Subscribe(ctx)
		}

		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case snap, ok := <-snapshots:
					if !ok {
						snapshots = nil
						continue
					}
					if err := writeJSON(wsEvent{Type: "geofence", Data: wsGeofence{Snapshot: snap, Banner: usecases.Banner(snap)}}); err != nil {
						cancel()
						return
					}
				case n, ok := <-notes:
					if !ok {
						notes = nil
						continue
					}
					if err := writeJSON(wsEvent{Type: "notification", Data: n}); err != nil {
						cancel()
						return
					}
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						cancel()
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(wsEvent{Type: "error", Data: "invalid JSON"})
				continue
			}
			switch m.Action {
			case "snapshot":
				_ = sendSnapshot()
			default:
				_ = writeJSON(wsEvent{Type: "error", Data: "unknown action: " + m.Action})
			}
		}

		slog.Info("ws client disconnected", "remote", remoteAddr)
	}
}
