package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/rvlionxz/absensi-kiosk/internal/pkg/metrics"
)

const requestTimeout = 15 * time.Second

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies, allowOrigins string) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(cors.New(cors.Config{
		AllowOrigins: allowOrigins,
		AllowMethods: "GET,POST,PUT,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// Request ID
	app.Use(requestid.New())

	// Request-scoped logger (request id, session user)
	var session identityReader
	if deps.Session != nil {
		session = deps.Session
	}
	app.Use(RequestLoggerMiddleware(session))

	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, 429, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	// Health & readiness, no timeout
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	v1.Get("/session", SessionHandler(deps))
	v1.Post("/session/login", timeout.NewWithContext(LoginHandler(deps), requestTimeout))
	v1.Post("/session/logout", LogoutHandler(deps))
	v1.Get("/location", LocationHandler(deps))
	v1.Get("/notifications", NotificationsHandler(deps))

	v1.Get("/attendance", RequireSession(deps), timeout.NewWithContext(AttendanceHandler(deps), requestTimeout))
	// Submission waits for the attendance API for as long as it takes.
	v1.Post("/attendance/check-in", RequireSession(deps), CheckInHandler(deps))

	admin := v1.Group("/admin", RequireAdmin(deps))
	admin.Get("/attendance", timeout.NewWithContext(AdminAttendanceHandler(deps), requestTimeout))
	admin.Get("/users", timeout.NewWithContext(ListUsersHandler(deps), requestTimeout))
	admin.Post("/users", timeout.NewWithContext(CreateUserHandler(deps), requestTimeout))
	admin.Put("/users/:id/password", timeout.NewWithContext(ResetPasswordHandler(deps), requestTimeout))
	admin.Put("/users/:id/device", timeout.NewWithContext(ResetDeviceHandler(deps), requestTimeout))

	// GraphQL (admin reporting)
	app.Post("/graphql", RequireAdmin(deps), timeout.NewWithContext(GraphQLHandler(deps), requestTimeout))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps)))
}
