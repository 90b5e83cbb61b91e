package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	valkeyadapter "github.com/rvlionxz/absensi-kiosk/internal/adapters/valkey"
)

// HealthHandler returns a basic liveness check.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"uptime":  time.Since(startedAt).String(),
			"version": "dev",
		})
	}
}

// ReadyHandler checks the attendance API, NATS, and Valkey. The location
// state is reported but never fails readiness.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		checks := make(map[string]string)
		allOK := true

		// Attendance API
		if deps.Remote != nil {
			if err := deps.Remote.Ping(ctx); err != nil {
				checks["attendance_api"] = "error: " + err.Error()
				allOK = false
			} else {
				checks["attendance_api"] = "ok"
			}
		} else {
			checks["attendance_api"] = "not configured"
			allOK = false
		}

		// NATS
		if deps.NATS != nil {
			if deps.NATS.IsConnected() {
				checks["nats"] = "ok"
			} else {
				checks["nats"] = "disconnected"
				allOK = false
			}
		} else {
			checks["nats"] = "not configured"
		}

		// Valkey
		if deps.Valkey != nil {
			if err := valkeyadapter.Ping(ctx, deps.Valkey); err != nil {
				checks["valkey"] = "error: " + err.Error()
				allOK = false
			} else {
				checks["valkey"] = "ok"
			}
		} else {
			checks["valkey"] = "not configured"
		}

		if deps.Monitor != nil {
			loc := deps.Monitor.Snapshot().Location
			switch {
			case loc.Error != nil:
				checks["location"] = string(loc.Error.Code)
			case loc.Loading:
				checks["location"] = "waiting"
			default:
				checks["location"] = "ok"
			}
		}

		status := "ready"
		code := 200
		if !allOK {
			status = "not ready"
			code = 503
		}

		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"checks": checks,
		})
	}
}
