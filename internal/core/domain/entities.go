package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ID is an identifier the API may send as a JSON number or string.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		*id = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*id = ID(str)
		return nil
	}
	*id = ID(s)
	return nil
}

// AttendanceStatus is the check-in state of the current session.
type AttendanceStatus string

const (
	StatusLoading      AttendanceStatus = "loading"
	StatusNotCheckedIn AttendanceStatus = "not_checked_in"
	StatusCheckedIn    AttendanceStatus = "checked_in"
	StatusError        AttendanceStatus = "error"
)

// Wire values of the remote status endpoint.
const (
	RemoteStatusCheckedIn    = "sudah_absen"
	RemoteStatusNotCheckedIn = "belum_absen"
)

// Coordinate is a float that the API may send as a JSON number or string.
type Coordinate float64

func (c *Coordinate) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*c = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("coordinate %s: %w", string(b), err)
	}
	*c = Coordinate(f)
	return nil
}

// AttendanceRecord is a check-in as stored by the attendance API.
type AttendanceRecord struct {
	ID         ID         `json:"id,omitempty"`
	EmployeeID ID         `json:"user_id,omitempty"`
	FullName   string     `json:"nama_lengkap,omitempty"`
	Position   string     `json:"jabatan,omitempty"`
	CheckInAt  string     `json:"waktu_absen,omitempty"` // raw, possibly naive
	Latitude   Coordinate `json:"latitude"`
	Longitude  Coordinate `json:"longitude"`
}

// StatusResponse is the body of GET /absensi/status.
type StatusResponse struct {
	Status string            `json:"status"`
	Data   *AttendanceRecord `json:"data,omitempty"`
}

// CheckInRequest is the body of POST /absensi.
type CheckInRequest struct {
	Coordinates GeoPoint `json:"koordinat"`
	CheckInTime string   `json:"waktuAbsen"`
	TZOffset    int      `json:"tzOffset"`
}

// HistoryFilter selects the period of the admin attendance history.
type HistoryFilter string

const (
	FilterToday HistoryFilter = "today"
	FilterWeek  HistoryFilter = "week"
	FilterMonth HistoryFilter = "month"
	FilterDate  HistoryFilter = "date"
	FilterAll   HistoryFilter = "all"
)

// Valid reports whether f is one of the known filters.
func (f HistoryFilter) Valid() bool {
	switch f {
	case FilterToday, FilterWeek, FilterMonth, FilterDate, FilterAll:
		return true
	}
	return false
}

// HistoryQuery is the input of the admin history view.
type HistoryQuery struct {
	Filter   HistoryFilter
	Date     string // yyyy-MM-dd, only with FilterDate
	TZOffset int
}

// HistoryRow is an attendance record prepared for display.
type HistoryRow struct {
	ID          string `json:"id"`
	FullName    string `json:"nama_lengkap"`
	Position    string `json:"jabatan"`
	CheckInAt   string `json:"waktu_absen"`
	DisplayTime string `json:"waktu_tampil"`
	Location    string `json:"lokasi"`
}

// Role of an account.
const (
	RoleAdmin    = "admin"
	RoleEmployee = "karyawan"
)

// Identity is who the session belongs to, decoded from the token payload.
type Identity struct {
	NamaLengkap string `json:"namaLengkap"`
	Role        string `json:"role"`
	UserID      ID     `json:"userId"`
}

// IsAdmin reports whether the identity may open admin views.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	DeviceID string `json:"device_id"`
}

// LoginResponse is the body returned by POST /auth/login.
type LoginResponse struct {
	Token string   `json:"token"`
	User  Identity `json:"user"`
}

// UserAccount is an employee or admin account as listed by the user API.
type UserAccount struct {
	ID          ID      `json:"id"`
	FullName    string  `json:"nama_lengkap"`
	Username    string  `json:"username"`
	Role        string  `json:"role"`
	DeviceID    *string `json:"device_id"`
	Position    string  `json:"jabatan,omitempty"`
	Manageable  bool    `json:"manageable"`
	DeviceLabel string  `json:"device_label"`
}

// NewUser is the body of POST /users.
type NewUser struct {
	FullName string `json:"nama_lengkap"`
	Username string `json:"username"`
	Password string `json:"password"`
	Position string `json:"jabatan"`
}

// Notification is a user-facing message produced by a use case.
type Notification struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Variant     string `json:"variant"` // "success" or "destructive"
}

// CheckInEvent is published after every check-in attempt that reached the API.
type CheckInEvent struct {
	DeviceID  string    `json:"device_id"`
	UserID    ID        `json:"user_id"`
	Outcome   string    `json:"outcome"` // "accepted" or "rejected"
	Message   string    `json:"message,omitempty"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Time      time.Time `json:"time"`
}
