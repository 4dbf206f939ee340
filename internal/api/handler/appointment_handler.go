package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/carepoint/scheduling-api/internal/core/domain"
	"github.com/carepoint/scheduling-api/internal/core/policy"
	"github.com/carepoint/scheduling-api/internal/core/ports"
)

// AppointmentHandler handles HTTP requests for appointments.
type AppointmentHandler struct {
	service ports.AppointmentService
}

func NewAppointmentHandler(service ports.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{service: service}
}

// List handles GET /appointments.
func (h *AppointmentHandler) List(c echo.Context) error {
	return h.listVisible(c, h.service.List)
}

// Upcoming handles GET /appointments/upcoming.
func (h *AppointmentHandler) Upcoming(c echo.Context) error {
	return h.listVisible(c, h.service.Upcoming)
}

// Today handles GET /appointments/today.
func (h *AppointmentHandler) Today(c echo.Context) error {
	return h.listVisible(c, h.service.Today)
}

// Range handles GET /appointments/range?from=<RFC3339>&to=<RFC3339>.
func (h *AppointmentHandler) Range(c echo.Context) error {
	var fe []domain.FieldError
	from, err := time.Parse(time.RFC3339, c.QueryParam("from"))
	if err != nil {
		fe = append(fe, domain.FieldError{Field: "from", Error: "must be an RFC3339 timestamp"})
	}
	to, err := time.Parse(time.RFC3339, c.QueryParam("to"))
	if err != nil {
		fe = append(fe, domain.FieldError{Field: "to", Error: "must be an RFC3339 timestamp"})
	}
	if len(fe) > 0 {
		return &domain.ValidationError{Fields: fe}
	}

	return h.listVisible(c, func(ctx context.Context) ([]ports.AppointmentView, error) {
		return h.service.Range(ctx, from, to)
	})
}

// ForDoctor handles GET /appointments/doctor/:id.
func (h *AppointmentHandler) ForDoctor(c echo.Context) error {
	id := c.Param("id")
	if err := authorizeOwner(c, id); err != nil {
		return err
	}
	appts, err := h.service.ForDoctor(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAppointmentResponses(appts))
}

// ForPatient handles GET /appointments/patient/:id.
func (h *AppointmentHandler) ForPatient(c echo.Context) error {
	id := c.Param("id")
	if err := authorizeOwner(c, id); err != nil {
		return err
	}
	appts, err := h.service.ForPatient(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAppointmentResponses(appts))
}

// Get handles GET /appointments/:id.
func (h *AppointmentHandler) Get(c echo.Context) error {
	_, appt, err := h.authorized(c, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAppointmentResponse(*appt))
}

// Create handles POST /appointments. Non-admin callers must be one of the
// participants.
func (h *AppointmentHandler) Create(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}

	var req createAppointmentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	status, err := parseStatus(req.Status)
	if err != nil {
		return err
	}
	if !policy.CanAccessAppointment(p, req.DoctorID, req.PatientID) {
		return domain.ErrForbidden
	}

	appt, err := h.service.Create(c.Request().Context(), ports.CreateAppointmentInput{
		Title:     req.Title,
		PatientID: req.PatientID,
		DoctorID:  req.DoctorID,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Status:    status,
		Notes:     req.Notes,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toAppointmentResponse(*appt))
}

// Update handles PATCH /appointments/:id. The caller must be allowed on the
// appointment before and after the change.
func (h *AppointmentHandler) Update(c echo.Context) error {
	p, existing, err := h.authorized(c, c.Param("id"))
	if err != nil {
		return err
	}

	var req updateAppointmentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	in := ports.UpdateAppointmentInput{
		Title:     req.Title,
		PatientID: req.PatientID,
		DoctorID:  req.DoctorID,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Notes:     req.Notes,
	}
	if req.Status != nil {
		st, ok := domain.ParseAppointmentStatus(*req.Status)
		if !ok {
			return domain.Invalid("status", "must be one of: Pending, Confirmed, Cancelled, Completed")
		}
		in.Status = &st
	}

	doctorID, patientID := existing.DoctorID, existing.PatientID
	if in.DoctorID != nil {
		doctorID = *in.DoctorID
	}
	if in.PatientID != nil {
		patientID = *in.PatientID
	}
	if !policy.CanAccessAppointment(p, doctorID, patientID) {
		return domain.ErrForbidden
	}

	appt, err := h.service.Update(c.Request().Context(), existing.ID, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAppointmentResponse(*appt))
}

// UpdateStatus handles PATCH /appointments/:id/status.
func (h *AppointmentHandler) UpdateStatus(c echo.Context) error {
	_, existing, err := h.authorized(c, c.Param("id"))
	if err != nil {
		return err
	}

	var req updateStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	st, ok := domain.ParseAppointmentStatus(req.Status)
	if !ok {
		return domain.Invalid("status", "must be one of: Pending, Confirmed, Cancelled, Completed")
	}

	appt, err := h.service.Update(c.Request().Context(), existing.ID, ports.UpdateAppointmentInput{Status: &st})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAppointmentResponse(*appt))
}

// Delete handles DELETE /appointments/:id.
func (h *AppointmentHandler) Delete(c echo.Context) error {
	_, existing, err := h.authorized(c, c.Param("id"))
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), existing.ID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// authorized loads the appointment and checks the caller is a participant or
// admin. It returns the caller alongside the appointment.
func (h *AppointmentHandler) authorized(c echo.Context, id string) (domain.Principal, *ports.AppointmentView, error) {
	p, err := caller(c)
	if err != nil {
		return domain.Principal{}, nil, err
	}
	appt, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return domain.Principal{}, nil, err
	}
	if !policy.CanAccessAppointment(p, appt.DoctorID, appt.PatientID) {
		return domain.Principal{}, nil, domain.ErrForbidden
	}
	return p, appt, nil
}

// listVisible runs an aggregate listing and keeps only what the caller may see.
func (h *AppointmentHandler) listVisible(c echo.Context, list func(ctx context.Context) ([]ports.AppointmentView, error)) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	appts, err := list(c.Request().Context())
	if err != nil {
		return err
	}
	if !policy.IsAdmin(p) {
		visible := make([]ports.AppointmentView, 0, len(appts))
		for _, a := range appts {
			if policy.CanAccessAppointment(p, a.DoctorID, a.PatientID) {
				visible = append(visible, a)
			}
		}
		appts = visible
	}
	return c.JSON(http.StatusOK, toAppointmentResponses(appts))
}
