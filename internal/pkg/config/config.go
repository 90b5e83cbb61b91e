package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Remote    RemoteConfig    `mapstructure:"remote"`
	Clinic    ClinicConfig    `mapstructure:"clinic"`
	Location  LocationConfig  `mapstructure:"location"`
	Session   SessionConfig   `mapstructure:"session"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	AllowOrigins string `mapstructure:"allow_origins"`
}

// RemoteConfig points at the attendance REST API.
type RemoteConfig struct {
	BaseURL string `mapstructure:"base_url"`
	// Timeout applies to status, history and admin calls. Check-in submission
	// uses the transport default.
	Timeout int `mapstructure:"timeout"`
}

// ClinicConfig is the fixed reference point check-ins are measured against.
type ClinicConfig struct {
	Latitude     float64 `mapstructure:"latitude"`
	Longitude    float64 `mapstructure:"longitude"`
	RadiusMeters float64 `mapstructure:"radius_meters"`
}

type LocationConfig struct {
	// Provider is one of "nats", "static" or "none".
	Provider     string  `mapstructure:"provider"`
	DeviceID     string  `mapstructure:"device_id"`
	HighAccuracy bool    `mapstructure:"high_accuracy"`
	TimeoutMs    int     `mapstructure:"timeout_ms"`
	MaxAgeMs     int     `mapstructure:"max_age_ms"`
	StaticLat    float64 `mapstructure:"static_latitude"`
	StaticLon    float64 `mapstructure:"static_longitude"`
	StaticAcc    float64 `mapstructure:"static_accuracy"`
}

// Timeout returns the fix timeout as a duration.
func (l LocationConfig) Timeout() time.Duration {
	return time.Duration(l.TimeoutMs) * time.Millisecond
}

// MaxAge returns the maximum accepted sample age as a duration.
func (l LocationConfig) MaxAge() time.Duration {
	return time.Duration(l.MaxAgeMs) * time.Millisecond
}

type SessionConfig struct {
	// Store is "file" or "valkey".
	Store string `mapstructure:"store"`
	Path  string `mapstructure:"path"`
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8787)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.allow_origins", "http://localhost:5173, http://localhost:3000")
	v.SetDefault("remote.base_url", "http://localhost:4000/api")
	v.SetDefault("remote.timeout", 15)
	v.SetDefault("clinic.latitude", 3.5645393152493323)
	v.SetDefault("clinic.longitude", 96.98625848706028)
	v.SetDefault("clinic.radius_meters", 50)
	v.SetDefault("location.provider", "nats")
	v.SetDefault("location.device_id", "kiosk-1")
	v.SetDefault("location.high_accuracy", true)
	v.SetDefault("location.timeout_ms", 10000)
	v.SetDefault("location.max_age_ms", 0)
	v.SetDefault("location.static_latitude", 0.0)
	v.SetDefault("location.static_longitude", 0.0)
	v.SetDefault("location.static_accuracy", 10)
	v.SetDefault("session.store", "file")
	v.SetDefault("session.path", ".absensi/session.json")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: ABSENSI_REMOTE_BASE_URL → remote.base_url
	v.SetEnvPrefix("ABSENSI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Remote.BaseURL == "" {
		errs = append(errs, "remote.base_url is required")
	}
	if c.Remote.Timeout <= 0 {
		errs = append(errs, "remote.timeout must be positive")
	}
	if c.Clinic.Latitude < -90 || c.Clinic.Latitude > 90 {
		errs = append(errs, fmt.Sprintf("clinic.latitude out of range: %f", c.Clinic.Latitude))
	}
	if c.Clinic.Longitude < -180 || c.Clinic.Longitude > 180 {
		errs = append(errs, fmt.Sprintf("clinic.longitude out of range: %f", c.Clinic.Longitude))
	}
	if c.Clinic.RadiusMeters <= 0 {
		errs = append(errs, "clinic.radius_meters must be positive")
	}
	switch c.Location.Provider {
	case "nats":
		if c.NATS.URL == "" {
			errs = append(errs, "nats.url is required for the nats location provider")
		}
		if c.Location.DeviceID == "" {
			errs = append(errs, "location.device_id is required for the nats location provider")
		}
	case "static", "none":
	default:
		errs = append(errs, fmt.Sprintf("location.provider must be nats, static or none, got %q", c.Location.Provider))
	}
	if c.Location.TimeoutMs <= 0 {
		errs = append(errs, "location.timeout_ms must be positive")
	}
	if c.Location.MaxAgeMs < 0 {
		errs = append(errs, "location.max_age_ms must not be negative")
	}
	switch c.Session.Store {
	case "file":
		if c.Session.Path == "" {
			errs = append(errs, "session.path is required for the file session store")
		}
	case "valkey":
		if c.Valkey.Addr == "" {
			errs = append(errs, "valkey.addr is required for the valkey session store")
		}
	default:
		errs = append(errs, fmt.Sprintf("session.store must be file or valkey, got %q", c.Session.Store))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
