package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rvlionxz/absensi-kiosk/internal/core/domain"
)

func (c *Client) Status(ctx context.Context, tzOffset int) (*domain.StatusResponse, error) {
	var out domain.StatusResponse
	err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     "/absensi/status",
		endpoint: "absensi_status",
		query:    url.Values{"tzOffset": {strconv.Itoa(tzOffset)}},
		out:      &out,
		bounded:  true,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CheckIn is not bounded by the client timeout.
func (c *Client) CheckIn(ctx context.Context, req domain.CheckInRequest) (*domain.AttendanceRecord, error) {
	var out struct {
		Message string                   `json:"message"`
		Data    *domain.AttendanceRecord `json:"data"`
	}
	err := c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/absensi",
		endpoint: "absensi_create",
		body:     req,
		out:      &out,
	})
	if err != nil {
		return nil, err
	}
	return out.Data, nil
}

// History returns an empty list when the API answers with anything but an array.
func (c *Client) History(ctx context.Context, q domain.HistoryQuery) ([]domain.AttendanceRecord, error) {
	params := url.Values{
		"filter":   {string(q.Filter)},
		"tzOffset": {strconv.Itoa(q.TZOffset)},
	}
	if q.Filter == domain.FilterDate && q.Date != "" {
		params.Set("date", q.Date)
	}

	var raw json.RawMessage
	err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     "/absensi",
		endpoint: "absensi_list",
		query:    params,
		out:      &raw,
		bounded:  true,
	})
	if err != nil {
		return nil, err
	}
	var records []domain.AttendanceRecord
	if json.Unmarshal(raw, &records) != nil {
		return []domain.AttendanceRecord{}, nil
	}
	return records, nil
}

func (c *Client) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	var out domain.LoginResponse
	err := c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/auth/login",
		endpoint: "auth_login",
		body:     req,
		out:      &out,
		bounded:  true,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) List(ctx context.Context) ([]domain.UserAccount, error) {
	var raw json.RawMessage
	err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     "/users",
		endpoint: "users_list",
		out:      &raw,
		bounded:  true,
	})
	if err != nil {
		return nil, err
	}
	var users []domain.UserAccount
	if json.Unmarshal(raw, &users) != nil {
		return []domain.UserAccount{}, nil
	}
	return users, nil
}

func (c *Client) Create(ctx context.Context, user domain.NewUser) error {
	return c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/users",
		endpoint: "users_create",
		body:     user,
		bounded:  true,
	})
}

func (c *Client) ResetPassword(ctx context.Context, userID, newPassword string) error {
	return c.do(ctx, call{
		method:   http.MethodPut,
		path:     "/users/reset-password/" + url.PathEscape(userID),
		endpoint: "users_reset_password",
		body:     map[string]string{"newPassword": newPassword},
		bounded:  true,
	})
}

func (c *Client) ResetDevice(ctx context.Context, userID string) error {
	return c.do(ctx, call{
		method:   http.MethodPut,
		path:     "/users/reset-device/" + url.PathEscape(userID),
		endpoint: "users_reset_device",
		bounded:  true,
	})
}
