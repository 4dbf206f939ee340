package ports

import (
	"context"
	"time"
)

// CreateReminderInput carries a new reminder.
type CreateReminderInput struct {
	UserID           string
	AppointmentID    string
	Title            string
	Message          string
	ReminderDateTime time.Time
}

// ReminderService defines use-case operations for reminders.
type ReminderService interface {
	Create(ctx context.Context, input CreateReminderInput) (*ReminderView, error)
	Get(ctx context.Context, id string) (*ReminderView, error)
	ForUser(ctx context.Context, userID string) ([]ReminderView, error)
	UnreadForUser(ctx context.Context, userID string) ([]ReminderView, error)
	ForAppointment(ctx context.Context, appointmentID string) ([]ReminderView, error)
	MarkRead(ctx context.Context, id string) (*ReminderView, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	Delete(ctx context.Context, id string) error
	// DispatchDue publishes a due notice for every reminder that came due by now
	// and returns how many were dispatched.
	DispatchDue(ctx context.Context, now time.Time) (int, error)
}
