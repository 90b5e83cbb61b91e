package usecases

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rvlionxz/absensi-kiosk/internal/core/domain"
	"github.com/rvlionxz/absensi-kiosk/internal/core/ports"
)

const (
	minPasswordLength  = 6
	unregisteredDevice = "Belum terdaftar"
)

// UserService manages employee accounts for admins.
type UserService struct {
	api ports.UserAPI
}

// NewUserService creates a UserService.
func NewUserService(api ports.UserAPI) *UserService {
	return &UserService{api: api}
}

// List returns all accounts. Only karyawan accounts are marked manageable.
func (s *UserService) List(ctx context.Context) ([]domain.UserAccount, error) {
	users, err := s.api.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	for i := range users {
		u := &users[i]
		u.Manageable = u.Role == domain.RoleEmployee
		u.DeviceLabel = unregisteredDevice
		if u.DeviceID != nil && *u.DeviceID != "" {
			u.DeviceLabel = *u.DeviceID
		}
	}
	return users, nil
}

// Create adds an employee account. Full name, username and password are required.
func (s *UserService) Create(ctx context.Context, u domain.NewUser) error {
	u.FullName = strings.TrimSpace(u.FullName)
	u.Username = strings.TrimSpace(u.Username)
	u.Position = strings.TrimSpace(u.Position)

	var missing []string
	if u.FullName == "" {
		missing = append(missing, "nama_lengkap")
	}
	if u.Username == "" {
		missing = append(missing, "username")
	}
	if u.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s required", domain.ErrValidation, strings.Join(missing, ", "))
	}

	if err := s.api.Create(ctx, u); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// ResetPassword sets a new password for an account.
func (s *UserService) ResetPassword(ctx context.Context, userID, newPassword string) error {
	if userID == "" {
		return fmt.Errorf("%w: user id required", domain.ErrValidation)
	}
	if utf8.RuneCountInString(newPassword) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrValidation, minPasswordLength)
	}
	if err := s.api.ResetPassword(ctx, userID, newPassword); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	return nil
}

// ResetDevice unbinds the device registered to an account.
func (s *UserService) ResetDevice(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("%w: user id required", domain.ErrValidation)
	}
	if err := s.api.ResetDevice(ctx, userID); err != nil {
		return fmt.Errorf("reset device: %w", err)
	}
	return nil
}
