// Command locsim publishes simulated location fixes for a kiosk over NATS.
//
// Usage: locsim [inside|outside|denied]
//
// inside jitters a few meters around the clinic, outside sits 120 m north of
// it, denied publishes a permission error once and exits.
package main

import (
	"context"
	"log"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	natsadapter "github.com/rvlionxz/absensi-kiosk/internal/adapters/nats"
	"github.com/rvlionxz/absensi-kiosk/internal/core/domain"
	"github.com/rvlionxz/absensi-kiosk/internal/pkg/config"
	"github.com/rvlionxz/absensi-kiosk/internal/pkg/geospatial"
	"github.com/rvlionxz/absensi-kiosk/internal/pkg/logging"
)

const interval = 2 * time.Second

func main() {
	cfg, err := config.Load("absensi-locsim")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	mode := "inside"
	if len(os.Args) > 1 {
		mode = os.Args[1]
	}

	nc, err := natsadapter.Connect(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	feed := natsadapter.NewLocationFeed(nc, cfg.Location.DeviceID)
	defer feed.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := feed.OnWatch(func(req natsadapter.WatchRequest) {
		slog.Info("kiosk started watching",
			"high_accuracy", req.HighAccuracy,
			"timeout_ms", req.TimeoutMs,
			"maximum_age_ms", req.MaximumAgeMs,
		)
	}); err != nil {
		log.Fatalf("watch subscription: %v", err)
	}

	if mode == "denied" {
		if err := feed.PublishError(ctx, domain.LocationError{Code: domain.LocationDenied, Message: "User denied Geolocation"}); err != nil {
			log.Fatalf("publish: %v", err)
		}
		slog.Info("published permission error", "device_id", cfg.Location.DeviceID)
		return
	}

	lat, lon := cfg.Clinic.Latitude, cfg.Clinic.Longitude
	if mode == "outside" {
		lat = geospatial.OffsetNorth(lat, 120)
	}

	slog.Info("location simulator started", "mode", mode, "device_id", cfg.Location.DeviceID, "every", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		sample := jitter(lat, lon)
		if err := feed.PublishSample(ctx, sample); err != nil {
			slog.Warn("publish failed", "error", err)
		} else {
			slog.Debug("published fix",
				"distance_m", geospatial.Haversine(cfg.Clinic.Latitude, cfg.Clinic.Longitude, sample.Latitude, sample.Longitude),
				"accuracy", sample.Accuracy,
			)
		}

		select {
		case <-ticker.C:
		case sig := <-quit:
			slog.Info("shutting down location simulator", "signal", sig.String())
			return
		}
	}
}

// jitter moves the point up to 5 m north or south with a GPS-like accuracy.
func jitter(lat, lon float64) domain.LocationSample {
	return domain.LocationSample{
		Latitude:  geospatial.OffsetNorth(lat, rand.Float64()*10-5),
		Longitude: lon,
		Accuracy:  5 + rand.Float64()*15,
		Timestamp: time.Now(),
	}
}
