package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/rvlionxz/absensi-kiosk/internal/core/domain"
	"github.com/rvlionxz/absensi-kiosk/internal/core/ports"
	"github.com/rvlionxz/absensi-kiosk/internal/pkg/telemetry"
)

// Session store keys.
const (
	TokenKey    = "token"
	DeviceIDKey = "deviceId"
)

// identityClaims is the token payload the attendance API issues. The
// signature is checked by the API, never here.
type identityClaims struct {
	NamaLengkap string    `json:"namaLengkap"`
	Role        string    `json:"role"`
	UserID      domain.ID `json:"userId"`
	jwt.RegisteredClaims
}

// DecodeIdentity reads the identity from a token payload without verifying
// its signature. Expired tokens are rejected.
func DecodeIdentity(token string, now time.Time) (*domain.Identity, error) {
	var claims identityClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSessionInvalid, err)
	}
	if claims.ExpiresAt != nil && !now.Before(claims.ExpiresAt.Time) {
		return nil, fmt.Errorf("%w: token expired", domain.ErrSessionInvalid)
	}
	if claims.Role == "" {
		return nil, fmt.Errorf("%w: missing role", domain.ErrSessionInvalid)
	}
	return &domain.Identity{NamaLengkap: claims.NamaLengkap, Role: claims.Role, UserID: claims.UserID}, nil
}

// SessionService holds the credential of the current session. It is the
// TokenSource of the remote API client.
type SessionService struct {
	store ports.SessionStore
	auth  ports.AuthAPI
	now   func() time.Time

	mu       sync.RWMutex
	token    string
	identity *domain.Identity
	watchers []func(*domain.Identity)
}

// NewSessionService creates a SessionService with no session loaded.
func NewSessionService(store ports.SessionStore, auth ports.AuthAPI) *SessionService {
	return &SessionService{store: store, auth: auth, now: time.Now}
}

// OnChange registers fn to run after every login, logout or restore.
// fn receives nil on logout.
func (s *SessionService) OnChange(fn func(*domain.Identity)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchers = append(s.watchers, fn)
}

// Restore loads the stored credential. A credential that cannot be decoded
// is removed and the service stays logged out.
func (s *SessionService) Restore(ctx context.Context) error {
	token, err := s.store.Get(ctx, TokenKey)
	if err != nil {
		return fmt.Errorf("read stored token: %w", err)
	}
	if token == "" {
		return nil
	}

	id, err := DecodeIdentity(token, s.now())
	if err != nil {
		if clearErr := s.store.Clear(ctx, TokenKey); clearErr != nil {
			slog.Warn("failed to clear invalid token", "error", clearErr)
		}
		return err
	}

	s.set(token, id)
	return nil
}

// DeviceID returns the kiosk device identifier, generating and storing a
// new one on first use.
func (s *SessionService) DeviceID(ctx context.Context) (string, error) {
	id, err := s.store.Get(ctx, DeviceIDKey)
	if err != nil {
		return "", fmt.Errorf("read device id: %w", err)
	}
	if id != "" {
		return id, nil
	}
	id = uuid.NewString()
	if err := s.store.Set(ctx, DeviceIDKey, id); err != nil {
		return "", fmt.Errorf("store device id: %w", err)
	}
	return id, nil
}

// Login exchanges credentials for a token and stores it.
func (s *SessionService) Login(ctx context.Context, username, password string) (*domain.Identity, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", domain.ErrValidation)
	}

	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanLogin)
	defer span.End()

	deviceID, err := s.DeviceID(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := s.auth.Login(ctx, domain.LoginRequest{Username: username, Password: password, DeviceID: deviceID})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("login: %w", err)
	}
	if resp.Token == "" {
		return nil, errors.New("login: empty token in response")
	}

	id := resp.User
	if id.Role == "" {
		decoded, err := DecodeIdentity(resp.Token, s.now())
		if err != nil {
			return nil, fmt.Errorf("login: %w", err)
		}
		id = *decoded
	}

	if err := s.store.Set(ctx, TokenKey, resp.Token); err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}
	s.set(resp.Token, &id)
	slog.Info("session started", "user_id", id.UserID, "role", id.Role)
	return &id, nil
}

// Logout removes the stored credential.
func (s *SessionService) Logout(ctx context.Context) error {
	if err := s.store.Clear(ctx, TokenKey); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	s.set("", nil)
	return nil
}

// Identity returns a copy of the current identity, or nil.
func (s *SessionService) Identity() *domain.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return nil
	}
	id := *s.identity
	return &id
}

// Token implements ports.TokenSource.
func (s *SessionService) Token(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, nil
}

// RequireSession returns ErrNoSession when logged out.
func (s *SessionService) RequireSession() (*domain.Identity, error) {
	id := s.Identity()
	if id == nil {
		return nil, domain.ErrNoSession
	}
	return id, nil
}

// RequireAdmin returns ErrNoSession when logged out and ErrForbidden for
// non-admin roles.
func (s *SessionService) RequireAdmin() (*domain.Identity, error) {
	id, err := s.RequireSession()
	if err != nil {
		return nil, err
	}
	if !id.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return id, nil
}

func (s *SessionService) set(token string, id *domain.Identity) {
	s.mu.Lock()
	s.token = token
	s.identity = id
	watchers := append([]func(*domain.Identity){}, s.watchers...)
	s.mu.Unlock()

	for _, fn := range watchers {
		if id == nil {
			fn(nil)
			continue
		}
		cp := *id
		fn(&cp)
	}
}
