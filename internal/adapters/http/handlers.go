package http

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/rvlionxz/absensi-kiosk/internal/core/domain"
	"github.com/rvlionxz/absensi-kiosk/internal/core/usecases"
	"github.com/rvlionxz/absensi-kiosk/internal/pkg/timefmt"
)

const msgLoginFallback = "Terjadi kesalahan. Coba lagi."

func (d *Dependencies) notify(c *fiber.Ctx, title, description, variant string) {
	if d.Notifications == nil {
		return
	}
	d.Notifications.Notify(c.UserContext(), domain.Notification{Title: title, Description: description, Variant: variant})
}

// tzOffset reads the client offset from the query, defaulting to the kiosk zone.
func tzOffset(c *fiber.Ctx) int {
	return c.QueryInt("tzOffset", timefmt.ClientOffset(time.Now()))
}

// --- Session ---

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SessionHandler returns the identity of the current session.
func SessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := deps.Session.Identity()
		return c.JSON(fiber.Map{
			"authenticated": id != nil,
			"user":          id,
		})
	}
}

// LoginHandler exchanges credentials for a session.
func LoginHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req loginRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		id, err := deps.Session.Login(c.UserContext(), req.Username, req.Password)
		if err != nil {
			if !errors.Is(err, domain.ErrValidation) {
				deps.notify(c, "Login Gagal", domain.ServerMessage(err, msgLoginFallback), "destructive")
			}
			return errFrom(c, err, msgLoginFallback)
		}

		deps.notify(c, "Login Berhasil!", "Anda akan diarahkan ke dashboard.", "success")
		redirect := "/dashboard"
		if id.IsAdmin() {
			redirect = "/admin/absensi"
		}
		return c.JSON(fiber.Map{"user": id, "redirect": redirect})
	}
}

// LogoutHandler ends the session. The device id is kept.
func LogoutHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Session.Logout(c.UserContext()); err != nil {
			return newError(c, 500, "internal_error", err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// RequireSession rejects requests without a logged-in session.
func RequireSession(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := deps.Session.RequireSession()
		if err != nil {
			return errFrom(c, err, "")
		}
		c.Locals("identity", id)
		return c.Next()
	}
}

// RequireAdmin rejects requests unless the session role is admin.
func RequireAdmin(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := deps.Session.RequireAdmin()
		if err != nil {
			return errFrom(c, err, "")
		}
		c.Locals("identity", id)
		return c.Next()
	}
}

// --- Location & attendance ---

// LocationHandler returns the latest geofence snapshot.
func LocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		snap := deps.Monitor.Snapshot()
		return c.JSON(fiber.Map{
			"geofence":  snap,
			"reference": deps.Monitor.Reference(),
			"banner":    usecases.Banner(snap),
		})
	}
}

// AttendanceHandler returns today's attendance view. The first call of a
// session loads the status from the attendance API.
func AttendanceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if st, _ := deps.Attendance.Status(); st == domain.StatusLoading {
			if err := deps.Attendance.RefreshStatus(c.UserContext()); err != nil {
				LoggerFromCtx(c.UserContext()).Warn("attendance status refresh failed", "error", err)
			}
		}
		return c.JSON(deps.Attendance.View())
	}
}

// CheckInHandler submits today's check-in.
func CheckInHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rec, err := deps.Attendance.SubmitCheckIn(c.UserContext())
		if err != nil {
			return errFrom(c, err, msgServerError)
		}
		if deps.History != nil {
			deps.History.Invalidate(c.UserContext(), timefmt.ClientOffset(time.Now()))
		}

		name := ""
		if id, ok := c.Locals("identity").(*domain.Identity); ok {
			name = id.NamaLengkap
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": fmt.Sprintf("Kehadiran untuk %s telah direkam.", name),
			"record":  rec,
			"view":    deps.Attendance.View(),
		})
	}
}

// --- Admin ---

// AdminAttendanceHandler lists attendance history for a period.
func AdminAttendanceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := domain.HistoryQuery{
			Filter:   domain.HistoryFilter(c.Query("filter", string(domain.FilterToday))),
			Date:     c.Query("date"),
			TZOffset: tzOffset(c),
		}
		rows, err := deps.History.List(c.UserContext(), q)
		if err != nil {
			return errFrom(c, err, msgServerError)
		}
		return c.JSON(paginate(c, rows))
	}
}

// ListUsersHandler lists employee and admin accounts.
func ListUsersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		users, err := deps.Users.List(c.UserContext())
		if err != nil {
			return errFrom(c, err, msgServerError)
		}
		return c.JSON(paginate(c, users))
	}
}

// CreateUserHandler adds an employee account.
func CreateUserHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var u domain.NewUser
		if err := c.BodyParser(&u); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if err := deps.Users.Create(c.UserContext(), u); err != nil {
			if !errors.Is(err, domain.ErrValidation) {
				deps.notify(c, "Gagal Menambahkan Pegawai", domain.ServerMessage(err, msgServerError), "destructive")
			}
			return errFrom(c, err, msgServerError)
		}
		msg := fmt.Sprintf("Pegawai baru %q berhasil ditambahkan.", strings.TrimSpace(u.FullName))
		deps.notify(c, "Sukses!", msg, "success")
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": msg})
	}
}

type resetPasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

// ResetPasswordHandler sets a new password for an account.
func ResetPasswordHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req resetPasswordRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if err := deps.Users.ResetPassword(c.UserContext(), c.Params("id"), req.NewPassword); err != nil {
			if !errors.Is(err, domain.ErrValidation) {
				deps.notify(c, "Gagal Reset Password", domain.ServerMessage(err, msgServerError), "destructive")
			}
			return errFrom(c, err, msgServerError)
		}
		deps.notify(c, "Sukses!", "Password berhasil di-reset.", "success")
		return c.JSON(fiber.Map{"message": "Password berhasil di-reset."})
	}
}

// ResetDeviceHandler unbinds the device of an account.
func ResetDeviceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Users.ResetDevice(c.UserContext(), c.Params("id")); err != nil {
			deps.notify(c, "Gagal Reset Device", msgServerError, "destructive")
			return errFrom(c, err, msgServerError)
		}
		deps.notify(c, "Sukses!", "Device ID berhasil di-reset.", "success")
		return c.JSON(fiber.Map{"message": "Device ID berhasil di-reset."})
	}
}
