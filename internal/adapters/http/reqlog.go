package http

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/rvlionxz/absensi-kiosk/internal/core/domain"
)

type loggerKey struct{}

// identityReader is the part of the session the request logger needs.
type identityReader interface {
	Identity() *domain.Identity
}

// RequestLoggerMiddleware stores a request-scoped *slog.Logger in the user
// context. It carries the Fiber request id and, while someone is logged in,
// their user id and role.
func RequestLoggerMiddleware(session identityReader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		l := slog.Default()
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			l = l.With("request_id", rid)
		}
		if session != nil {
			if id := session.Identity(); id != nil {
				l = l.With("user_id", string(id.UserID), "role", id.Role)
			}
		}

		c.SetUserContext(context.WithValue(c.UserContext(), loggerKey{}, l))
		return c.Next()
	}
}

// LoggerFromCtx returns the request logger, or the default logger outside a request.
func LoggerFromCtx(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}
