package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carepoint/scheduling-api/internal/core/domain"
	"github.com/carepoint/scheduling-api/internal/core/policy"
	"github.com/carepoint/scheduling-api/internal/core/ports"
)

// ReminderHandler handles HTTP requests for reminders.
type ReminderHandler struct {
	service      ports.ReminderService
	appointments ports.AppointmentService
}

func NewReminderHandler(service ports.ReminderService, appointments ports.AppointmentService) *ReminderHandler {
	return &ReminderHandler{service: service, appointments: appointments}
}

// Create handles POST /reminders. Non-admin callers may only attach reminders
// to appointments they take part in.
func (h *ReminderHandler) Create(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}

	var req createReminderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if req.UserID == "" {
		req.UserID = p.ID
	}
	if !policy.CanAccessOwnedResource(p, req.UserID) {
		return domain.ErrForbidden
	}
	if !policy.IsAdmin(p) {
		appt, err := h.appointments.Get(c.Request().Context(), req.AppointmentID)
		if err != nil {
			return err
		}
		if !policy.CanAccessAppointment(p, appt.DoctorID, appt.PatientID) {
			return domain.ErrForbidden
		}
	}

	rem, err := h.service.Create(c.Request().Context(), ports.CreateReminderInput{
		UserID:           req.UserID,
		AppointmentID:    req.AppointmentID,
		Title:            req.Title,
		Message:          req.Message,
		ReminderDateTime: req.ReminderDateTime,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toReminderResponse(*rem))
}

// Get handles GET /reminders/:id.
func (h *ReminderHandler) Get(c echo.Context) error {
	rem, err := h.authorized(c, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toReminderResponse(*rem))
}

// ForUser handles GET /reminders/user/:userId.
func (h *ReminderHandler) ForUser(c echo.Context) error {
	userID := c.Param("userId")
	if err := authorizeOwner(c, userID); err != nil {
		return err
	}
	rems, err := h.service.ForUser(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toReminderResponses(rems))
}

// UnreadForUser handles GET /reminders/user/:userId/unread.
func (h *ReminderHandler) UnreadForUser(c echo.Context) error {
	userID := c.Param("userId")
	if err := authorizeOwner(c, userID); err != nil {
		return err
	}
	rems, err := h.service.UnreadForUser(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toReminderResponses(rems))
}

// ForAppointment handles GET /reminders/appointment/:appointmentId.
// Non-admin callers only see their own reminders.
func (h *ReminderHandler) ForAppointment(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	rems, err := h.service.ForAppointment(c.Request().Context(), c.Param("appointmentId"))
	if err != nil {
		return err
	}
	if !policy.IsAdmin(p) {
		own := make([]ports.ReminderView, 0, len(rems))
		for _, r := range rems {
			if policy.CanAccessOwnedResource(p, r.UserID) {
				own = append(own, r)
			}
		}
		rems = own
	}
	return c.JSON(http.StatusOK, toReminderResponses(rems))
}

// MarkRead handles PATCH /reminders/:id/read. Idempotent.
func (h *ReminderHandler) MarkRead(c echo.Context) error {
	rem, err := h.authorized(c, c.Param("id"))
	if err != nil {
		return err
	}
	updated, err := h.service.MarkRead(c.Request().Context(), rem.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toReminderResponse(*updated))
}

// MarkAllRead handles PATCH /reminders/user/:userId/read-all.
func (h *ReminderHandler) MarkAllRead(c echo.Context) error {
	userID := c.Param("userId")
	if err := authorizeOwner(c, userID); err != nil {
		return err
	}
	n, err := h.service.MarkAllRead(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, markAllReadResponse{Updated: n})
}

// Delete handles DELETE /reminders/:id.
func (h *ReminderHandler) Delete(c echo.Context) error {
	rem, err := h.authorized(c, c.Param("id"))
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), rem.ID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ReminderHandler) authorized(c echo.Context, id string) (*ports.ReminderView, error) {
	p, err := caller(c)
	if err != nil {
		return nil, err
	}
	rem, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return nil, err
	}
	if !policy.CanAccessOwnedResource(p, rem.UserID) {
		return nil, domain.ErrForbidden
	}
	return rem, nil
}
