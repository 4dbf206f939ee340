package ports

import "context"

// SendMessageInput carries a new direct message. SenderID is always the caller.
type SendMessageInput struct {
	SenderID    string
	ReceiverID  string
	Content     string
	IsEncrypted bool
	Hash        string
}

// MessageService defines use-case operations for direct messages.
type MessageService interface {
	Send(ctx context.Context, input SendMessageInput) (*MessageView, error)
	Get(ctx context.Context, id string) (*MessageView, error)
	ForUser(ctx context.Context, userID string) ([]MessageView, error)
	Unread(ctx context.Context, userID string) ([]MessageView, error)
	Conversation(ctx context.Context, userA, userB string) ([]MessageView, error)
	MarkRead(ctx context.Context, id string) (*MessageView, error)
	Delete(ctx context.Context, id string) error
}
