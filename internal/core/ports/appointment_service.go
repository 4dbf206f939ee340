package ports

import (
	"context"
	"time"

	"github.com/carepoint/scheduling-api/internal/core/domain"
)

// CreateAppointmentInput carries the data needed to book an appointment.
// An empty Status defaults to Pending.
type CreateAppointmentInput struct {
	Title     string
	PatientID string
	DoctorID  string
	StartTime time.Time
	EndTime   time.Time
	Status    domain.AppointmentStatus
	Notes     string
}

// UpdateAppointmentInput is a partial update; nil fields are left unchanged.
type UpdateAppointmentInput struct {
	Title     *string
	PatientID *string
	DoctorID  *string
	StartTime *time.Time
	EndTime   *time.Time
	Status    *domain.AppointmentStatus
	Notes     *string
}

// AppointmentService defines use-case operations for appointments.
type AppointmentService interface {
	List(ctx context.Context) ([]AppointmentView, error)
	Upcoming(ctx context.Context) ([]AppointmentView, error)
	Today(ctx context.Context) ([]AppointmentView, error)
	Range(ctx context.Context, from, to time.Time) ([]AppointmentView, error)
	ForDoctor(ctx context.Context, doctorID string) ([]AppointmentView, error)
	ForPatient(ctx context.Context, patientID string) ([]AppointmentView, error)
	Get(ctx context.Context, id string) (*AppointmentView, error)
	Create(ctx context.Context, input CreateAppointmentInput) (*AppointmentView, error)
	Update(ctx context.Context, id string, input UpdateAppointmentInput) (*AppointmentView, error)
	Delete(ctx context.Context, id string) error
}
