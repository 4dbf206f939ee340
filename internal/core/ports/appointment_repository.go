package ports

import (
	"context"
	"time"

	"github.com/carepoint/scheduling-api/internal/core/domain"
)

// AppointmentFilter narrows an appointment listing. Zero values mean no filter.
// StartAfter is exclusive, StartFrom inclusive and StartBefore exclusive.
type AppointmentFilter struct {
	DoctorID    string
	PatientID   string
	StartAfter  time.Time
	StartFrom   time.Time
	StartBefore time.Time
	Statuses    []domain.AppointmentStatus
}

// AppointmentRepository defines persistence operations for appointments.
type AppointmentRepository interface {
	Create(ctx context.Context, a *domain.Appointment) error
	FindByID(ctx context.Context, id string) (*domain.Appointment, error)
	// List returns matching appointments ordered by StartTime ascending.
	List(ctx context.Context, filter AppointmentFilter) ([]*domain.Appointment, error)
	Update(ctx context.Context, a *domain.Appointment) error
	Delete(ctx context.Context, id string) error
}
