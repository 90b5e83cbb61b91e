package natsadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/rvlionxz/absensi-kiosk/internal/core/domain"
	"github.com/rvlionxz/absensi-kiosk/internal/core/ports"
)

// WatchRequest announces a new subscription to the GPS agent.
type WatchRequest struct {
	HighAccuracy bool  `json:"high_accuracy"`
	TimeoutMs    int64 `json:"timeout_ms"`
	MaximumAgeMs int64 `json:"maximum_age_ms"`
}

// LocationMessage is the wire form of one provider result: a sample or an error.
type LocationMessage struct {
	Latitude  float64               `json:"latitude"`
	Longitude float64               `json:"longitude"`
	Accuracy  float64               `json:"accuracy"`
	Timestamp time.Time             `json:"timestamp"`
	Error     *domain.LocationError `json:"error,omitempty"`
}

// LocationProvider implements ports.LocationProvider over core NATS.
type LocationProvider struct {
	conn     *nats.Conn
	deviceID string
	now      func() time.Time
}

// NewLocationProvider watches the samples published for deviceID.
func NewLocationProvider(conn *nats.Conn, deviceID string) *LocationProvider {
	return &LocationProvider{conn: conn, deviceID: deviceID, now: time.Now}
}

func (p *LocationProvider) Watch(ctx context.Context, opts ports.WatchOptions) (ports.LocationSubscription, error) {
	if p.conn == nil || p.conn.IsClosed() {
		return nil, domain.ErrLocationUnsupported
	}

	msgs := make(chan *nats.Msg, 64)
	natsSub, err := p.conn.ChanSubscribe(LocationSubject(p.deviceID), msgs)
	if err != nil {
		return nil, fmt.Errorf("subscribe location: %w", err)
	}

	req, _ := json.Marshal(WatchRequest{
		HighAccuracy: opts.HighAccuracy,
		TimeoutMs:    opts.Timeout.Milliseconds(),
		MaximumAgeMs: opts.MaximumAge.Milliseconds(),
	})
	if err := p.conn.Publish(WatchSubject(p.deviceID), req); err != nil {
		_ = natsSub.Unsubscribe()
		return nil, fmt.Errorf("publish watch request: %w", err)
	}

	sub := newSubscription(func() { _ = natsSub.Unsubscribe() })
	go sub.pump(ctx, msgs, opts, p.now)
	return sub, nil
}

type subscription struct {
	results chan domain.LocationResult
	done    chan struct{}
	once    sync.Once
	release func()
}

func newSubscription(release func()) *subscription {
	return &subscription{
		results: make(chan domain.LocationResult, 16),
		done:    make(chan struct{}),
		release: release,
	}
}

func (s *subscription) Results() <-chan domain.LocationResult { return s.results }

func (s *subscription) Cancel() {
	s.once.Do(func() { close(s.done) })
}

// pump turns raw messages into results until ctx is done, Cancel is called
// or a terminal error arrives. It enforces the fix timeout and maximum age.
func (s *subscription) pump(ctx context.Context, msgs <-chan *nats.Msg, opts ports.WatchOptions, now func() time.Time) {
	defer close(s.results)
	defer func() {
		if s.release != nil {
			s.release()
		}
	}()

	started := now()
	var timeout <-chan time.Time
	var timer *time.Timer
	if opts.Timeout > 0 {
		timer = time.NewTimer(opts.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}
	rearm := func() {
		if timer == nil {
			return
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(opts.Timeout)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			res, err := decodeLocation(msg.Data, started, now(), opts.MaximumAge)
			if err != nil {
				if !errors.Is(err, errStale) {
					slog.Debug("dropping location message", "subject", msg.Subject, "error", err)
				}
				continue
			}
			if !s.emit(ctx, res) {
				return
			}
			if res.Err != nil && res.Err.Terminal() {
				return
			}
			rearm()
		case <-timeout:
			if !s.emit(ctx, domain.LocationResult{Err: &domain.LocationError{
				Code:    domain.LocationTimeout,
				Message: "Timeout expired",
			}}) {
				return
			}
			timer.Reset(opts.Timeout)
		}
	}
}

func (s *subscription) emit(ctx context.Context, res domain.LocationResult) bool {
	select {
	case s.results <- res:
		return true
	case <-s.done:
		return false
	case <-ctx.Done():
		return false
	}
}

var errStale = errors.New("sample older than maximum age")

func decodeLocation(data []byte, started, now time.Time, maxAge time.Duration) (domain.LocationResult, error) {
	var m LocationMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return domain.LocationResult{}, fmt.Errorf("decode location: %w", err)
	}
	if m.Error != nil {
		if m.Error.Code == "" {
			m.Error.Code = domain.LocationUnavailable
		}
		return domain.LocationResult{Err: m.Error}, nil
	}

	ts := m.Timestamp
	if ts.IsZero() {
		ts = now
	}
	switch {
	case maxAge == 0 && ts.Before(started):
		return domain.LocationResult{}, errStale
	case maxAge > 0 && now.Sub(ts) > maxAge:
		return domain.LocationResult{}, errStale
	}

	return domain.LocationResult{Sample: &domain.LocationSample{
		Latitude:  m.Latitude,
		Longitude: m.Longitude,
		Accuracy:  m.Accuracy,
		Timestamp: ts,
	}}, nil
}

// LocationFeed is the GPS agent side: it publishes samples for one device
// and listens for watch requests.
type LocationFeed struct {
	conn     *nats.Conn
	deviceID string
	subs     []*nats.Subscription
}

// NewLocationFeed creates a feed for deviceID on conn.
func NewLocationFeed(conn *nats.Conn, deviceID string) *LocationFeed {
	return &LocationFeed{conn: conn, deviceID: deviceID}
}

// PublishSample publishes one fix.
func (f *LocationFeed) PublishSample(ctx context.Context, s domain.LocationSample) error {
	return f.publish(LocationMessage{Latitude: s.Latitude, Longitude: s.Longitude, Accuracy: s.Accuracy, Timestamp: s.Timestamp})
}

// PublishError publishes a provider failure.
func (f *LocationFeed) PublishError(ctx context.Context, e domain.LocationError) error {
	return f.publish(LocationMessage{Error: &e})
}

func (f *LocationFeed) publish(m LocationMessage) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return f.conn.Publish(LocationSubject(f.deviceID), data)
}

// OnWatch calls handler for every watch request a kiosk sends.
func (f *LocationFeed) OnWatch(handler func(WatchRequest)) error {
	sub, err := f.conn.Subscribe(WatchSubject(f.deviceID), func(msg *nats.Msg) {
		var req WatchRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			return
		}
		handler(req)
	})
	if err != nil {
		return err
	}
	f.subs = append(f.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (f *LocationFeed) Close() {
	for _, sub := range f.subs {
		_ = sub.Unsubscribe()
	}
	_ = f.conn.Drain()
}
