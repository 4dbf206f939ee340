package ports

import (
	"time"

	"github.com/carepoint/scheduling-api/internal/core/domain"
)

// UserView is the public shape of a user; it never carries secrets.
type UserView struct {
	ID                string
	Email             string
	FirstName         string
	LastName          string
	Role              domain.Role
	Specialization    string
	ProfilePictureURL string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type AppointmentView struct {
	ID        string
	Title     string
	PatientID string
	DoctorID  string
	StartTime time.Time
	EndTime   time.Time
	Status    domain.AppointmentStatus
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type MessageView struct {
	ID          string
	SenderID    string
	ReceiverID  string
	Content     string
	IsEncrypted bool
	Hash        string
	IsRead      bool
	ReadAt      *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AppointmentSummary is embedded in reminder views.
type AppointmentSummary struct {
	ID        string
	Title     string
	StartTime time.Time
	EndTime   time.Time
	Status    domain.AppointmentStatus
}

// ReminderView embeds its appointment, which is nil when the appointment was deleted.
type ReminderView struct {
	ID               string
	UserID           string
	AppointmentID    string
	Title            string
	Message          string
	ReminderDateTime time.Time
	IsRead           bool
	Appointment      *AppointmentSummary
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
