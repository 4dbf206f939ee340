package domain

import "time"

// Reminder is a scheduled notice for a user about an appointment.
// AppointmentID is not guaranteed to resolve: deleting an appointment leaves
// its reminders in place.
type Reminder struct {
	ID               string
	UserID           string
	AppointmentID    string
	Title            string
	Message          string
	ReminderDateTime time.Time
	IsRead           bool
	NotifiedAt       *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
