package domain

import (
	"strings"
	"time"
)

// AppointmentStatus represents the lifecycle state of an appointment.
// Any status may be set from any other status.
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "Pending"
	StatusConfirmed AppointmentStatus = "Confirmed"
	StatusCancelled AppointmentStatus = "Cancelled"
	StatusCompleted AppointmentStatus = "Completed"
)

var appointmentStatuses = []AppointmentStatus{StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted}

// ParseAppointmentStatus accepts a status name case-insensitively.
func ParseAppointmentStatus(s string) (AppointmentStatus, bool) {
	for _, st := range appointmentStatuses {
		if strings.EqualFold(strings.TrimSpace(s), string(st)) {
			return st, true
		}
	}
	return "", false
}

func (s AppointmentStatus) IsValid() bool {
	for _, st := range appointmentStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// IsActive reports whether the appointment can still take place.
func (s AppointmentStatus) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Appointment is a scheduled encounter between a patient and a doctor.
type Appointment struct {
	ID        string
	Title     string
	PatientID string
	DoctorID  string
	StartTime time.Time
	EndTime   time.Time
	Status    AppointmentStatus
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidWindow reports whether end is strictly after start.
func ValidWindow(start, end time.Time) bool {
	return end.After(start)
}
