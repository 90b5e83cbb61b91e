package http

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/rvlionxz/absensi-kiosk/internal/core/domain"
)

const recentNotifications = 20

// TimedNotification is a notification with the time it was raised.
type TimedNotification struct {
	domain.Notification
	Time time.Time `json:"time"`
}

// NotificationHub implements ports.Notifier. It keeps the most recent
// notifications and fans them out to WebSocket clients.
type NotificationHub struct {
	mu     sync.Mutex
	recent []TimedNotification
	subs   map[chan TimedNotification]struct{}
}

// NewNotificationHub creates an empty hub.
func NewNotificationHub() *NotificationHub {
	return &NotificationHub{subs: make(map[chan TimedNotification]struct{})}
}

func (h *NotificationHub) Notify(ctx context.Context, n domain.Notification) {
	tn := TimedNotification{Notification: n, Time: time.Now()}
	LoggerFromCtx(ctx).Info("notification", "title", n.Title, "variant", n.Variant)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.recent = append(h.recent, tn)
	if len(h.recent) > recentNotifications {
		h.recent = h.recent[len(h.recent)-recentNotifications:]
	}
	for ch := range h.subs {
		select {
		case ch <- tn:
		default:
		}
	}
}

// Recent returns the latest notifications, newest last.
func (h *NotificationHub) Recent() []TimedNotification {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]TimedNotification{}, h.recent...)
}

// Subscribe streams new notifications until ctx is done.
func (h *NotificationHub) Subscribe(ctx context.Context) <-chan TimedNotification {
	ch := make(chan TimedNotification, 8)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, ch)
		close(ch)
		h.mu.Unlock()
	}()
	return ch
}

// NotificationsHandler returns the recent notifications.
func NotificationsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Notifications == nil {
			return c.JSON(fiber.Map{"data": []TimedNotification{}})
		}
		return c.JSON(fiber.Map{"data": deps.Notifications.Recent()})
	}
}
