package ports

import (
	"context"
	"time"

	"github.com/carepoint/scheduling-api/internal/core/domain"
)

// MessageRepository defines persistence operations for direct messages.
type MessageRepository interface {
	Create(ctx context.Context, m *domain.Message) error
	FindByID(ctx context.Context, id string) (*domain.Message, error)
	// ListForUser returns every message sent or received by userID, newest first.
	ListForUser(ctx context.Context, userID string) ([]*domain.Message, error)
	// ListUnread returns unread messages addressed to receiverID, newest first.
	ListUnread(ctx context.Context, receiverID string) ([]*domain.Message, error)
	// ListConversation returns messages exchanged between a and b, oldest first.
	ListConversation(ctx context.Context, a, b string) ([]*domain.Message, error)
	// MarkRead flips the read flag. It reports whether the flag changed.
	MarkRead(ctx context.Context, id string, at time.Time) (bool, error)
	Delete(ctx context.Context, id string) error
}
