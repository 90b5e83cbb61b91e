package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/nats-io/nats.go"
	valkeygo "github.com/valkey-io/valkey-go"

	"github.com/rvlionxz/absensi-kiosk/internal/adapters/filestore"
	"github.com/rvlionxz/absensi-kiosk/internal/adapters/http"
	"github.com/rvlionxz/absensi-kiosk/internal/adapters/location"
	natsadapter "github.com/rvlionxz/absensi-kiosk/internal/adapters/nats"
	"github.com/rvlionxz/absensi-kiosk/internal/adapters/remote"
	"github.com/rvlionxz/absensi-kiosk/internal/adapters/valkey"
	"github.com/rvlionxz/absensi-kiosk/internal/core/domain"
	"github.com/rvlionxz/absensi-kiosk/internal/core/ports"
	"github.com/rvlionxz/absensi-kiosk/internal/core/usecases"
	"github.com/rvlionxz/absensi-kiosk/internal/pkg/config"
	"github.com/rvlionxz/absensi-kiosk/internal/pkg/logging"
	"github.com/rvlionxz/absensi-kiosk/internal/pkg/telemetry"
)

// sessionTokens breaks the construction cycle between the remote client
// and the session service that logs in through it.
type sessionTokens struct {
	session *usecases.SessionService
}

func (t *sessionTokens) Token(ctx context.Context) (string, error) {
	if t.session == nil {
		return "", nil
	}
	return t.session.Token(ctx)
}

func main() {
	cfg, err := config.Load("absensi-kiosk")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Valkey (history cache, optional session store)
	var vk valkeygo.Client
	if client, err := valkey.Connect(cfg.Valkey.Addr); err != nil {
		if cfg.Session.Store == "valkey" {
			log.Fatalf("valkey: %v", err)
		}
		slog.Warn("valkey unavailable, history cache disabled", "error", err)
	} else if err := valkey.Ping(ctx, client); err != nil && cfg.Session.Store != "valkey" {
		slog.Warn("valkey not answering, history cache disabled", "error", err)
		client.Close()
	} else {
		vk = client
		defer vk.Close()
	}

	// NATS (location feed, event publishing)
	var nc *nats.Conn
	if conn, err := natsadapter.Connect(cfg.NATS.URL); err != nil {
		if cfg.Location.Provider == "nats" {
			log.Fatalf("nats: %v", err)
		}
		slog.Warn("nats unavailable, events disabled", "error", err)
	} else {
		nc = conn
		defer nc.Drain()
	}

	// Session
	var store ports.SessionStore
	switch cfg.Session.Store {
	case "valkey":
		store = valkey.NewSessionStore(vk, cfg.Location.DeviceID)
	default:
		store = filestore.NewSessionStore(cfg.Session.Path)
	}

	tokens := &sessionTokens{}
	api := remote.New(cfg.Remote.BaseURL, time.Duration(cfg.Remote.Timeout)*time.Second, tokens)
	session := usecases.NewSessionService(store, api)
	tokens.session = session

	deviceID, err := session.DeviceID(ctx)
	if err != nil {
		log.Fatalf("device id: %v", err)
	}

	// Events
	var publisher ports.EventPublisher
	if nc != nil {
		pub, err := natsadapter.NewPublisher(nc, cfg.Location.DeviceID)
		if err != nil {
			slog.Warn("jetstream unavailable, events disabled", "error", err)
		} else {
			publisher = pub
		}
	}

	// Location
	var provider ports.LocationProvider
	switch cfg.Location.Provider {
	case "nats":
		provider = natsadapter.NewLocationProvider(nc, cfg.Location.DeviceID)
	case "static":
		provider = location.Static{
			Latitude:  cfg.Location.StaticLat,
			Longitude: cfg.Location.StaticLon,
			Accuracy:  cfg.Location.StaticAcc,
		}
	default:
		provider = location.Unsupported{}
	}

	clinic := domain.ReferencePoint{
		Latitude:     cfg.Clinic.Latitude,
		Longitude:    cfg.Clinic.Longitude,
		RadiusMeters: cfg.Clinic.RadiusMeters,
	}
	monitorOpts := []usecases.MonitorOption{
		usecases.WithWatchOptions(ports.WatchOptions{
			HighAccuracy: cfg.Location.HighAccuracy,
			Timeout:      cfg.Location.Timeout(),
			MaximumAge:   cfg.Location.MaxAge(),
		}),
	}
	if publisher != nil {
		monitorOpts = append(monitorOpts, usecases.WithGeofencePublisher(publisher))
	}
	monitor := usecases.NewGeofenceMonitor(provider, clinic, monitorOpts...)
	if err := monitor.Start(ctx); err != nil {
		slog.Warn("location watch not started", "error", err)
	}

	// Use cases
	hub := http.NewNotificationHub()
	controllerOpts := []usecases.ControllerOption{
		usecases.WithNotifier(hub),
		usecases.WithDeviceID(deviceID),
	}
	if publisher != nil {
		controllerOpts = append(controllerOpts, usecases.WithCheckInPublisher(publisher))
	}
	attendance := usecases.NewAttendanceController(api, monitor, session, controllerOpts...)
	session.OnChange(func(*domain.Identity) { attendance.Reset() })

	var cache ports.CacheService
	if vk != nil {
		cache = valkey.NewCache(vk, "")
	}
	history := usecases.NewHistoryService(api, cache)
	users := usecases.NewUserService(api)

	if err := session.Restore(ctx); err != nil {
		slog.Warn("stored session discarded", "error", err)
	}

	deps := &http.Dependencies{
		Monitor:       monitor,
		Attendance:    attendance,
		Session:       session,
		History:       history,
		Users:         users,
		Notifications: hub,
		NATS:          nc,
		Valkey:        vk,
		Remote:        api,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    64 * 1024,
		AppName:      "Absensi Kiosk",
	})
	app.Use(recover.New())
	app.Use(logger.New())

	http.SetupRoutes(app, deps, cfg.Server.AllowOrigins)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("kiosk server starting", "addr", addr, "device_id", deviceID, "location", cfg.Location.Provider)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	monitor.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
