package ports

import (
	"context"
	"time"

	"github.com/carepoint/scheduling-api/internal/core/domain"
)

// ReminderRepository defines persistence operations for reminders.
type ReminderRepository interface {
	Create(ctx context.Context, r *domain.Reminder) error
	FindByID(ctx context.Context, id string) (*domain.Reminder, error)
	// ListByUser returns the user's reminders ordered by ReminderDateTime.
	ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]*domain.Reminder, error)
	ListByAppointment(ctx context.Context, appointmentID string) ([]*domain.Reminder, error)
	// MarkRead sets the read flag. Marking an already read reminder is not an error.
	MarkRead(ctx context.Context, id string, at time.Time) error
	// MarkAllRead marks every unread reminder of userID and returns how many changed.
	MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error)
	// ListDue returns unread, not yet notified reminders due at or before now.
	ListDue(ctx context.Context, now time.Time, limit int) ([]*domain.Reminder, error)
	MarkNotified(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
}
