package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/rvlionxz/absensi-kiosk/internal/core/domain"
	"github.com/rvlionxz/absensi-kiosk/internal/core/ports"
	"github.com/rvlionxz/absensi-kiosk/internal/pkg/metrics"
	"github.com/rvlionxz/absensi-kiosk/internal/pkg/telemetry"
	"github.com/rvlionxz/absensi-kiosk/internal/pkg/timefmt"
)

// isoMillis matches the wire format of a JavaScript Date.toISOString.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// User-facing messages.
const (
	msgStatusFailed     = "Gagal memuat status absensi."
	msgLocationTitle    = "Lokasi Belum Siap"
	msgLocationBody     = "Harap tunggu sebentar hingga lokasi Anda berhasil terdeteksi."
	msgCheckInOKTitle   = "Absensi Berhasil!"
	msgCheckInFailTitle = "Absensi Gagal"
	msgServerFallback   = "Terjadi kesalahan pada server."
)

// IdentitySource returns the identity of the current session, or nil.
type IdentitySource interface {
	Identity() *domain.Identity
}

// AttendanceView is what the attendance screen renders.
type AttendanceView struct {
	Status      domain.AttendanceStatus  `json:"status"`
	Record      *domain.AttendanceRecord `json:"record,omitempty"`
	DisplayTime string                   `json:"display_time,omitempty"`
	Submitting  bool                     `json:"submitting"`
	CanSubmit   bool                     `json:"can_submit"`
	Geofence    domain.GeofenceSnapshot  `json:"geofence"`
	Banner      string                   `json:"banner"`
	Accuracy    string                   `json:"accuracy,omitempty"`
}

// ControllerOption configures an AttendanceController.
type ControllerOption func(*AttendanceController)

// WithNotifier sets where user-facing messages go.
func WithNotifier(n ports.Notifier) ControllerOption {
	return func(c *AttendanceController) {
		if n != nil {
			c.notifier = n
		}
	}
}

// WithCheckInPublisher publishes a CheckInEvent after every submission.
func WithCheckInPublisher(p ports.EventPublisher) ControllerOption {
	return func(c *AttendanceController) {
		if p != nil {
			c.publisher = p
		}
	}
}

// WithDeviceID tags published events with the kiosk device.
func WithDeviceID(id string) ControllerOption {
	return func(c *AttendanceController) { c.deviceID = id }
}

// WithControllerClock sets the time source for submissions and formatting.
func WithControllerClock(now func() time.Time) ControllerOption {
	return func(c *AttendanceController) {
		if now != nil {
			c.now = now
		}
	}
}

// AttendanceController owns the check-in status of the current session and
// the submission of a new check-in.
//
// Status moves loading -> not_checked_in | checked_in | error, and
// not_checked_in -> checked_in on a successful submission. Nothing moves it
// out of checked_in except Reset, which starts a new session.
type AttendanceController struct {
	api       ports.AttendanceAPI
	geofence  GeofenceReader
	identity  IdentitySource
	notifier  ports.Notifier
	publisher ports.EventPublisher
	deviceID  string
	now       func() time.Time

	submitting atomic.Bool

	mu      sync.RWMutex
	session uint64
	status  domain.AttendanceStatus
	record  *domain.AttendanceRecord
}

// NewAttendanceController creates a controller in the loading state.
func NewAttendanceController(api ports.AttendanceAPI, geofence GeofenceReader, identity IdentitySource, opts ...ControllerOption) *AttendanceController {
	c := &AttendanceController{
		api:      api,
		geofence: geofence,
		identity: identity,
		notifier: discardNotifier{},
		now:      time.Now,
		status:   domain.StatusLoading,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Reset starts a new session: status goes back to loading and any
// response still pending for the previous session is dropped.
func (c *AttendanceController) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session++
	c.status = domain.StatusLoading
	c.record = nil
}

// Status returns the current status and record.
func (c *AttendanceController) Status() (domain.AttendanceStatus, *domain.AttendanceRecord) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status, c.record
}

// RefreshStatus loads today's status from the API. It only acts while the
// status is loading; once resolved the status is never overwritten.
func (c *AttendanceController) RefreshStatus(ctx context.Context) error {
	c.mu.RLock()
	session, status := c.session, c.status
	c.mu.RUnlock()
	if status != domain.StatusLoading {
		return nil
	}

	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanStatusRefresh)
	defer span.End()

	resp, err := c.api.Status(ctx, timefmt.ClientOffset(c.now()))

	c.mu.Lock()
	if c.session != session || c.status != domain.StatusLoading {
		c.mu.Unlock()
		return nil
	}
	if err != nil {
		c.status = domain.StatusError
		c.mu.Unlock()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.StatusFetches.WithLabelValues("error").Inc()
		c.notifier.Notify(ctx, domain.Notification{Title: "Error", Description: msgStatusFailed, Variant: "destructive"})
		return fmt.Errorf("fetch attendance status: %w", err)
	}

	switch resp.Status {
	case domain.RemoteStatusCheckedIn:
		c.status = domain.StatusCheckedIn
		c.record = resp.Data
	case domain.RemoteStatusNotCheckedIn:
		c.status = domain.StatusNotCheckedIn
	default:
		c.status = domain.StatusError
		c.mu.Unlock()
		metrics.StatusFetches.WithLabelValues("error").Inc()
		c.notifier.Notify(ctx, domain.Notification{Title: "Error", Description: msgStatusFailed, Variant: "destructive"})
		return fmt.Errorf("%w: unknown status %q", domain.ErrStatusUnavailable, resp.Status)
	}
	resolved := c.status
	c.mu.Unlock()

	span.SetAttributes(attribute.String("status", string(resolved)))
	metrics.StatusFetches.WithLabelValues("ok").Inc()
	return nil
}

// SubmitCheckIn sends a check-in with the latest coordinates. At most one
// submission is in flight; a concurrent call gets ErrSubmissionInFlight
// without reaching the API.
func (c *AttendanceController) SubmitCheckIn(ctx context.Context) (*domain.AttendanceRecord, error) {
	if !c.submitting.CompareAndSwap(false, true) {
		return nil, domain.ErrSubmissionInFlight
	}
	defer c.submitting.Store(false)

	c.mu.RLock()
	session, status := c.session, c.status
	c.mu.RUnlock()

	switch status {
	case domain.StatusNotCheckedIn:
	case domain.StatusCheckedIn:
		return nil, domain.ErrAlreadyCheckedIn
	default:
		return nil, domain.ErrStatusUnavailable
	}

	snap := c.geofence.Snapshot()
	if !snap.Location.HasCoordinates() {
		c.notifier.Notify(ctx, domain.Notification{Title: msgLocationTitle, Description: msgLocationBody, Variant: "destructive"})
		return nil, domain.ErrLocationNotReady
	}
	if !snap.Admissible || snap.Location.Error != nil {
		return nil, domain.ErrOutsideRadius
	}

	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanCheckIn)
	defer span.End()

	now := c.now()
	req := domain.CheckInRequest{
		Coordinates: domain.GeoPoint{Latitude: *snap.Location.Latitude, Longitude: *snap.Location.Longitude},
		CheckInTime: now.UTC().Format(isoMillis),
		TZOffset:    timefmt.ClientOffset(now),
	}

	rec, err := c.api.CheckIn(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.CheckIns.WithLabelValues("rejected").Inc()
		msg := domain.ServerMessage(err, msgServerFallback)
		c.notifier.Notify(ctx, domain.Notification{Title: msgCheckInFailTitle, Description: msg, Variant: "destructive"})
		c.publish(ctx, req, "rejected", msg, now)
		return nil, fmt.Errorf("submit check-in: %w", err)
	}

	c.mu.Lock()
	if c.session == session {
		c.status = domain.StatusCheckedIn
		c.record = rec
	}
	c.mu.Unlock()

	metrics.CheckIns.WithLabelValues("accepted").Inc()
	c.notifier.Notify(ctx, domain.Notification{
		Title:       msgCheckInOKTitle,
		Description: fmt.Sprintf("Kehadiran untuk %s telah direkam.", c.displayName()),
		Variant:     "success",
	})
	c.publish(ctx, req, "accepted", "", now)
	return rec, nil
}

// View assembles the screen state: status, formatted check-in time, and
// whether the check-in action is enabled.
func (c *AttendanceController) View() AttendanceView {
	c.mu.RLock()
	status, rec := c.status, c.record
	c.mu.RUnlock()

	snap := c.geofence.Snapshot()
	submitting := c.submitting.Load()
	v := AttendanceView{
		Status:     status,
		Record:     rec,
		Submitting: submitting,
		Geofence:   snap,
		Banner:     Banner(snap),
		CanSubmit: status == domain.StatusNotCheckedIn &&
			snap.Admissible &&
			!snap.Location.Loading &&
			snap.Location.Error == nil &&
			!submitting,
	}
	if rec != nil && rec.CheckInAt != "" {
		v.DisplayTime = timefmt.FormatOrRaw(rec.CheckInAt, timefmt.ClientOffset(c.now()))
	}
	if snap.Location.Accuracy != nil {
		v.Accuracy = fmt.Sprintf("%.2f meter", *snap.Location.Accuracy)
	}
	return v
}

// Banner is the one-line location status shown above the check-in action.
func Banner(s domain.GeofenceSnapshot) string {
	switch {
	case s.Location.Loading:
		return "Mendeteksi lokasi..."
	case s.Location.Error != nil:
		return "Gagal dapatkan lokasi."
	case s.Admissible:
		return "Anda di area klinik"
	default:
		return "Anda di luar area klinik"
	}
}

func (c *AttendanceController) displayName() string {
	if c.identity == nil {
		return ""
	}
	if id := c.identity.Identity(); id != nil {
		return id.NamaLengkap
	}
	return ""
}

func (c *AttendanceController) publish(ctx context.Context, req domain.CheckInRequest, outcome, msg string, at time.Time) {
	if c.publisher == nil {
		return
	}
	e := &domain.CheckInEvent{
		DeviceID:  c.deviceID,
		Outcome:   outcome,
		Message:   msg,
		Latitude:  req.Coordinates.Latitude,
		Longitude: req.Coordinates.Longitude,
		Time:      at.UTC(),
	}
	if c.identity != nil {
		if id := c.identity.Identity(); id != nil {
			e.UserID = id.UserID
		}
	}
	if err := c.publisher.PublishCheckIn(context.WithoutCancel(ctx), e); err != nil && !errors.Is(err, context.Canceled) {
		slog.Debug("publish check-in failed", "error", err)
	}
}

type discardNotifier struct{}

func (discardNotifier) Notify(context.Context, domain.Notification) {}
