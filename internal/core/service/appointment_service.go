package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carepoint/scheduling-api/internal/core/domain"
	"github.com/carepoint/scheduling-api/internal/core/ports"
)

type AppointmentService struct {
	appointments ports.AppointmentRepository
	users        ports.UserRepository
	cache        ports.Cache
	notifier     ports.Notifier
	log          zerolog.Logger
	now          func() time.Time
}

func NewAppointmentService(
	appointments ports.AppointmentRepository,
	users ports.UserRepository,
	cache ports.Cache,
	notifier ports.Notifier,
	log zerolog.Logger,
) *AppointmentService {
	return &AppointmentService{
		appointments: appointments,
		users:        users,
		cache:        orNopCache(cache),
		notifier:     orNopNotifier(notifier),
		log:          log,
		now:          utcNow,
	}
}

func (s *AppointmentService) List(ctx context.Context) ([]ports.AppointmentView, error) {
	return s.list(ctx, keyAppointmentsAll, ttlAppointments, ports.AppointmentFilter{})
}

// Upcoming lists active appointments that have not started yet. The cutoff
// is taken when the cache entry is filled, so an appointment may stay listed
// for up to ttlAppointmentsUpcoming after it starts.
func (s *AppointmentService) Upcoming(ctx context.Context) ([]ports.AppointmentView, error) {
	return s.list(ctx, keyAppointmentsUpcoming, ttlAppointmentsUpcoming, ports.AppointmentFilter{
		StartAfter: s.now(),
		Statuses:   []domain.AppointmentStatus{domain.StatusPending, domain.StatusConfirmed},
	})
}

// Today lists appointments starting on the current UTC calendar day.
func (s *AppointmentService) Today(ctx context.Context) ([]ports.AppointmentView, error) {
	day := s.now().UTC().Truncate(24 * time.Hour)
	return s.list(ctx, todayKey(day), ttlAppointmentsToday, ports.AppointmentFilter{
		StartFrom:   day,
		StartBefore: day.Add(24 * time.Hour),
	})
}

// Range lists appointments starting within [from, to).
func (s *AppointmentService) Range(ctx context.Context, from, to time.Time) ([]ports.AppointmentView, error) {
	if !to.After(from) {
		return nil, domain.Invalid("to", "must be after from")
	}
	return s.list(ctx, rangeKey(from, to), ttlAppointmentsRange, ports.AppointmentFilter{
		StartFrom:   from,
		StartBefore: to,
	})
}

func (s *AppointmentService) ForDoctor(ctx context.Context, doctorID string) ([]ports.AppointmentView, error) {
	return s.list(ctx, doctorAppointmentsKey(doctorID), ttlAppointments, ports.AppointmentFilter{DoctorID: doctorID})
}

func (s *AppointmentService) ForPatient(ctx context.Context, patientID string) ([]ports.AppointmentView, error) {
	return s.list(ctx, patientAppointmentsKey(patientID), ttlAppointments, ports.AppointmentFilter{PatientID: patientID})
}

func (s *AppointmentService) Get(ctx context.Context, id string) (*ports.AppointmentView, error) {
	v, err := cached(ctx, s.cache, appointmentKey(id), ttlAppointments, func(ctx context.Context) (ports.AppointmentView, error) {
		a, err := s.appointments.FindByID(ctx, id)
		if err != nil {
			return ports.AppointmentView{}, err
		}
		return toAppointmentView(a), nil
	})
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Create books an appointment. Input is validated before anything is read or
// written; the doctor must be a user with the Doctor role.
func (s *AppointmentService) Create(ctx context.Context, in ports.CreateAppointmentInput) (*ports.AppointmentView, error) {
	status := in.Status
	if status == "" {
		status = domain.StatusPending
	}
	a := &domain.Appointment{
		ID:        uuid.NewString(),
		Title:     strings.TrimSpace(in.Title),
		PatientID: in.PatientID,
		DoctorID:  in.DoctorID,
		StartTime: in.StartTime.UTC(),
		EndTime:   in.EndTime.UTC(),
		Status:    status,
		Notes:     in.Notes,
	}
	if err := validateAppointment(a); err != nil {
		return nil, err
	}

	if err := s.checkPatient(ctx, a.PatientID); err != nil {
		return nil, err
	}
	if err := s.checkDoctor(ctx, a.DoctorID); err != nil {
		return nil, err
	}

	now := s.now()
	a.CreatedAt = now
	a.UpdatedAt = now
	if err := s.appointments.Create(ctx, a); err != nil {
		s.log.Error().Err(err).Msg("failed to create appointment")
		return nil, err
	}
	s.invalidate(ctx, a)
	s.notifyParticipants(ports.NotifyAppointmentCreated, a)

	s.log.Info().Str("appointment_id", a.ID).Str("doctor_id", a.DoctorID).Str("patient_id", a.PatientID).Msg("appointment created")
	v := toAppointmentView(a)
	return &v, nil
}

// Update applies a partial update. Any status may be set from any other status.
func (s *AppointmentService) Update(ctx context.Context, id string, in ports.UpdateAppointmentInput) (*ports.AppointmentView, error) {
	current, err := s.appointments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *current
	next := *current

	if in.Title != nil {
		next.Title = strings.TrimSpace(*in.Title)
	}
	if in.PatientID != nil {
		next.PatientID = *in.PatientID
	}
	if in.DoctorID != nil {
		next.DoctorID = *in.DoctorID
	}
	if in.StartTime != nil {
		next.StartTime = in.StartTime.UTC()
	}
	if in.EndTime != nil {
		next.EndTime = in.EndTime.UTC()
	}
	if in.Status != nil {
		next.Status = *in.Status
	}
	if in.Notes != nil {
		next.Notes = *in.Notes
	}
	if err := validateAppointment(&next); err != nil {
		return nil, err
	}

	if next.PatientID != before.PatientID {
		if err := s.checkPatient(ctx, next.PatientID); err != nil {
			return nil, err
		}
	}
	if next.DoctorID != before.DoctorID {
		if err := s.checkDoctor(ctx, next.DoctorID); err != nil {
			return nil, err
		}
	}

	next.UpdatedAt = s.now()
	if err := s.appointments.Update(ctx, &next); err != nil {
		return nil, err
	}
	s.invalidate(ctx, &before, &next)
	s.notifyParticipants(ports.NotifyAppointmentUpdated, &next)

	s.log.Info().Str("appointment_id", next.ID).Str("status", string(next.Status)).Msg("appointment updated")
	v := toAppointmentView(&next)
	return &v, nil
}

// Delete removes the appointment. Its reminders are kept.
func (s *AppointmentService) Delete(ctx context.Context, id string) error {
	a, err := s.appointments.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.appointments.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, a)
	s.log.Info().Str("appointment_id", id).Msg("appointment deleted")
	return nil
}

func (s *AppointmentService) list(ctx context.Context, key string, ttl time.Duration, f ports.AppointmentFilter) ([]ports.AppointmentView, error) {
	return cached(ctx, s.cache, key, ttl, func(ctx context.Context) ([]ports.AppointmentView, error) {
		list, err := s.appointments.List(ctx, f)
		if err != nil {
			return nil, err
		}
		return toAppointmentViews(list), nil
	})
}

func (s *AppointmentService) checkPatient(ctx context.Context, id string) error {
	if _, err := s.users.FindByID(ctx, id); err != nil {
		if isNotFound(err) {
			return domain.NotFound("patient", id)
		}
		return fmt.Errorf("resolve patient: %w", err)
	}
	return nil
}

func (s *AppointmentService) checkDoctor(ctx context.Context, id string) error {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return domain.NotFound("doctor", id)
		}
		return fmt.Errorf("resolve doctor: %w", err)
	}
	if u.Role != domain.RoleDoctor {
		return domain.NotFound("doctor", id)
	}
	return nil
}

// invalidate drops every key that could hold any of the given appointments,
// including reminder views that embed them.
func (s *AppointmentService) invalidate(ctx context.Context, appts ...*domain.Appointment) {
	keys := []string{keyAppointmentsAll, keyAppointmentsUpcoming}
	for _, a := range appts {
		keys = append(keys,
			appointmentKey(a.ID),
			doctorAppointmentsKey(a.DoctorID),
			patientAppointmentsKey(a.PatientID),
		)
	}
	s.cache.Remove(ctx, keys...)
	s.cache.RemoveByPrefix(ctx, prefixAppointmentsToday, prefixAppointmentsRange, prefixReminders)
}

func (s *AppointmentService) notifyParticipants(kind string, a *domain.Appointment) {
	payload := toAppointmentView(a)
	for _, userID := range []string{a.PatientID, a.DoctorID} {
		s.notifier.Notify(ports.Notification{Type: kind, UserID: userID, Payload: payload, OccurredAt: s.now()})
	}
}

func validateAppointment(a *domain.Appointment) error {
	var fe fieldErrors
	if a.Title == "" {
		fe.add("title", "is required")
	}
	if a.PatientID == "" {
		fe.add("patientId", "is required")
	}
	if a.DoctorID == "" {
		fe.add("doctorId", "is required")
	}
	if !domain.ValidWindow(a.StartTime, a.EndTime) {
		fe.add("endTime", "must be after startTime")
	}
	if !a.Status.IsValid() {
		fe.add("status", "must be one of Pending, Confirmed, Cancelled, Completed")
	}
	return fe.err()
}
