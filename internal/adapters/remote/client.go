// Package remote is the client of the attendance REST API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"

	"github.com/rvlionxz/absensi-kiosk/internal/core/domain"
	"github.com/rvlionxz/absensi-kiosk/internal/core/ports"
	"github.com/rvlionxz/absensi-kiosk/internal/pkg/metrics"
	"github.com/rvlionxz/absensi-kiosk/internal/pkg/telemetry"
)

const maxErrorBody = 64 << 10

// Client implements ports.AttendanceAPI, ports.AuthAPI and ports.UserAPI.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  ports.TokenSource
	timeout time.Duration
}

// New creates a client for baseURL (e.g. "http://localhost:4000/api").
// timeout bounds every call except check-in submission; zero disables it.
func New(baseURL string, timeout time.Duration, tokens ports.TokenSource) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		tokens:  tokens,
		timeout: timeout,
	}
}

type call struct {
	method   string
	path     string
	endpoint string // metric label
	query    url.Values
	body     any
	out      any
	bounded  bool
}

func (c *Client) do(ctx context.Context, cl call) error {
	if cl.bounded && c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanRemoteRequest)
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", cl.method),
		attribute.String("remote.endpoint", cl.endpoint),
	)

	u := c.baseURL + cl.path
	if len(cl.query) > 0 {
		u += "?" + cl.query.Encode()
	}

	var body io.Reader
	if cl.body != nil {
		data, err := json.Marshal(cl.body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", cl.endpoint, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, u, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", cl.endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return fmt.Errorf("read token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RemoteRequestDuration.WithLabelValues(cl.method, cl.endpoint, "error").Observe(time.Since(start).Seconds())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%s %s: %w", cl.method, cl.endpoint, err)
	}
	defer resp.Body.Close()
	metrics.RemoteRequestDuration.WithLabelValues(cl.method, cl.endpoint, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeError(resp)
		span.SetStatus(codes.Error, apiErr.Error())
		return apiErr
	}

	if cl.out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(cl.out); err != nil && err != io.EOF {
		return fmt.Errorf("decode %s response: %w", cl.endpoint, err)
	}
	return nil
}

func decodeError(resp *http.Response) *domain.RemoteError {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(data, &body)
	return &domain.RemoteError{StatusCode: resp.StatusCode, Message: body.Message}
}

// Ping reports whether the API answers at all; any HTTP response counts.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}
