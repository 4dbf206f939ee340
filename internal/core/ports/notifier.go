package ports

import (
	"context"
	"time"
)

// Notification types published to the event exchange.
const (
	NotifyAppointmentCreated     = "appointment.created"
	NotifyAppointmentUpdated     = "appointment.updated"
	NotifyMessageSent            = "message.sent"
	NotifyReminderDue            = "reminder.due"
	NotifyPasswordResetRequested = "auth.password_reset_requested"
)

// Notification is an asynchronous event about a user.
type Notification struct {
	Type       string
	UserID     string
	Payload    any
	OccurredAt time.Time
}

// Notifier accepts notifications without blocking the caller.
type Notifier interface {
	Notify(n Notification)
}

// EventPublisher delivers serialized notifications to a broker.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
	Close() error
}
