package usecases_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/rvlionxz/absensi-kiosk/internal/core/domain"
	"github.com/rvlionxz/absensi-kiosk/internal/core/usecases"
)

// --- Mock SessionStore ---

type memStore struct {
	mu   sync.Mutex
	vals map[string]string
}

func newMemStore() *memStore { return &memStore{vals: map[string]string{}} }

func (s *memStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vals[key], nil
}

func (s *memStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vals[key] = value
	return nil
}

func (s *memStore) Clear(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.vals, key)
	return nil
}

// --- Mock AuthAPI ---

type mockAuthAPI struct {
	loginFn func(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error)
	last    domain.LoginRequest
}

func (m *mockAuthAPI) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	m.last = req
	if m.loginFn != nil {
		return m.loginFn(ctx, req)
	}
	return nil, errors.New("not configured")
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("server-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func TestDecodeIdentity(t *testing.T) {
	tok := signToken(t, jwt.MapClaims{"namaLengkap": "Dr. Rina", "role": "admin", "userId": 1})
	id, err := usecases.DecodeIdentity(tok, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.NamaLengkap != "Dr. Rina" || id.Role != domain.RoleAdmin || id.UserID != "1" {
		t.Errorf("unexpected identity %+v", id)
	}
}

func TestDecodeIdentity_Invalid(t *testing.T) {
	expired := signToken(t, jwt.MapClaims{"role": "karyawan", "exp": time.Now().Add(-time.Hour).Unix()})
	noRole := signToken(t, jwt.MapClaims{"namaLengkap": "x"})

	for name, tok := range map[string]string{
		"garbage": "not-a-token",
		"expired": expired,
		"no role": noRole,
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := usecases.DecodeIdentity(tok, time.Now()); !errors.Is(err, domain.ErrSessionInvalid) {
				t.Errorf("expected ErrSessionInvalid, got %v", err)
			}
		})
	}
}

func TestSessionService_RestoreValid(t *testing.T) {
	store := newMemStore()
	store.vals[usecases.TokenKey] = signToken(t, jwt.MapClaims{"namaLengkap": "Siti", "role": "karyawan", "userId": "7"})
	svc := usecases.NewSessionService(store, &mockAuthAPI{})

	var seen *domain.Identity
	svc.OnChange(func(id *domain.Identity) { seen = id })

	if err := svc.Restore(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id := svc.Identity(); id == nil || id.NamaLengkap != "Siti" {
		t.Fatalf("unexpected identity %+v", id)
	}
	if seen == nil || seen.UserID != "7" {
		t.Error("expected OnChange to observe the restored identity")
	}
	if tok, _ := svc.Token(context.Background()); tok == "" {
		t.Error("expected token to be served after restore")
	}
}

func TestSessionService_RestoreInvalidClearsToken(t *testing.T) {
	store := newMemStore()
	store.vals[usecases.TokenKey] = "corrupted"
	svc := usecases.NewSessionService(store, &mockAuthAPI{})

	if err := svc.Restore(context.Background()); !errors.Is(err, domain.ErrSessionInvalid) {
		t.Fatalf("expected ErrSessionInvalid, got %v", err)
	}
	if _, ok := store.vals[usecases.TokenKey]; ok {
		t.Error("invalid token must be removed from the store")
	}
	if svc.Identity() != nil {
		t.Error("expected no session")
	}
}

func TestSessionService_RestoreEmpty(t *testing.T) {
	svc := usecases.NewSessionService(newMemStore(), &mockAuthAPI{})
	if err := svc.Restore(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.RequireSession(); !errors.Is(err, domain.ErrNoSession) {
		t.Errorf("expected ErrNoSession, got %v", err)
	}
}

func TestSessionService_DeviceIDIsStable(t *testing.T) {
	store := newMemStore()
	svc := usecases.NewSessionService(store, &mockAuthAPI{})

	first, err := svc.DeviceID(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := uuid.Parse(first); err != nil {
		t.Errorf("device id %q is not a uuid", first)
	}
	second, _ := svc.DeviceID(context.Background())
	if first != second {
		t.Errorf("device id changed: %s != %s", first, second)
	}
}

func TestSessionService_Login(t *testing.T) {
	store := newMemStore()
	tok := signToken(t, jwt.MapClaims{"namaLengkap": "Siti", "role": "karyawan", "userId": 7})
	auth := &mockAuthAPI{
		loginFn: func(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
			return &domain.LoginResponse{Token: tok, User: domain.Identity{NamaLengkap: "Siti", Role: "karyawan", UserID: "7"}}, nil
		},
	}
	svc := usecases.NewSessionService(store, auth)

	id, err := svc.Login(context.Background(), " siti ", "rahasia")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.Role != domain.RoleEmployee {
		t.Errorf("unexpected role %s", id.Role)
	}
	if auth.last.Username != "siti" || auth.last.DeviceID == "" {
		t.Errorf("unexpected login request %+v", auth.last)
	}
	if auth.last.DeviceID != store.vals[usecases.DeviceIDKey] {
		t.Error("login must send the stored device id")
	}
	if store.vals[usecases.TokenKey] != tok {
		t.Error("token must be stored")
	}
	if _, err := svc.RequireAdmin(); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected ErrForbidden for karyawan, got %v", err)
	}
}

func TestSessionService_LoginFallsBackToTokenPayload(t *testing.T) {
	tok := signToken(t, jwt.MapClaims{"namaLengkap": "Dr. Rina", "role": "admin", "userId": 1})
	auth := &mockAuthAPI{
		loginFn: func(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
			return &domain.LoginResponse{Token: tok}, nil
		},
	}
	svc := usecases.NewSessionService(newMemStore(), auth)

	if _, err := svc.Login(context.Background(), "rina", "secret"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.RequireAdmin(); err != nil {
		t.Errorf("expected admin session, got %v", err)
	}
}

func TestSessionService_LoginValidation(t *testing.T) {
	auth := &mockAuthAPI{}
	svc := usecases.NewSessionService(newMemStore(), auth)

	if _, err := svc.Login(context.Background(), "", "x"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
	if auth.last.Username != "" {
		t.Error("no request expected for invalid input")
	}
}

func TestSessionService_LoginRejected(t *testing.T) {
	store := newMemStore()
	auth := &mockAuthAPI{
		loginFn: func(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
			return nil, &domain.RemoteError{StatusCode: 401, Message: "Username atau password salah."}
		},
	}
	svc := usecases.NewSessionService(store, auth)

	_, err := svc.Login(context.Background(), "siti", "wrong")
	if got := domain.ServerMessage(err, ""); got != "Username atau password salah." {
		t.Errorf("expected server message, got %q", got)
	}
	if _, ok := store.vals[usecases.TokenKey]; ok {
		t.Error("no token may be stored after a rejected login")
	}
}

func TestSessionService_Logout(t *testing.T) {
	store := newMemStore()
	store.vals[usecases.TokenKey] = signToken(t, jwt.MapClaims{"role": "karyawan"})
	store.vals[usecases.DeviceIDKey] = "dev-1"
	svc := usecases.NewSessionService(store, &mockAuthAPI{})
	_ = svc.Restore(context.Background())

	var calls int
	last := &domain.Identity{}
	svc.OnChange(func(id *domain.Identity) { calls++; last = id })

	if err := svc.Logout(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 || last != nil {
		t.Error("expected OnChange(nil) on logout")
	}
	if store.vals[usecases.DeviceIDKey] != "dev-1" {
		t.Error("logout must keep the device id")
	}
	if tok, _ := svc.Token(context.Background()); tok != "" {
		t.Error("expected empty token after logout")
	}
}
