package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carepoint/scheduling-api/internal/core/domain"
	"github.com/carepoint/scheduling-api/internal/core/ports"
)

type MessageService struct {
	messages ports.MessageRepository
	users    ports.UserRepository
	cache    ports.Cache
	notifier ports.Notifier
	log      zerolog.Logger
	now      func() time.Time
}

func NewMessageService(
	messages ports.MessageRepository,
	users ports.UserRepository,
	cache ports.Cache,
	notifier ports.Notifier,
	log zerolog.Logger,
) *MessageService {
	return &MessageService{
		messages: messages,
		users:    users,
		cache:    orNopCache(cache),
		notifier: orNopNotifier(notifier),
		log:      log,
		now:      utcNow,
	}
}

// Send stores a message from the caller. The hash is stored as supplied.
func (s *MessageService) Send(ctx context.Context, in ports.SendMessageInput) (*ports.MessageView, error) {
	var fe fieldErrors
	if strings.TrimSpace(in.Content) == "" {
		fe.add("content", "is required")
	}
	if in.ReceiverID == "" {
		fe.add("receiverId", "is required")
	}
	if err := fe.err(); err != nil {
		return nil, err
	}

	if err := s.checkUser(ctx, "sender", in.SenderID); err != nil {
		return nil, err
	}
	if err := s.checkUser(ctx, "receiver", in.ReceiverID); err != nil {
		return nil, err
	}

	now := s.now()
	m := &domain.Message{
		ID:          uuid.NewString(),
		SenderID:    in.SenderID,
		ReceiverID:  in.ReceiverID,
		Content:     in.Content,
		IsEncrypted: in.IsEncrypted,
		Hash:        in.Hash,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.messages.Create(ctx, m); err != nil {
		return nil, err
	}
	s.invalidate(ctx, m)

	v := toMessageView(m)
	s.notifier.Notify(ports.Notification{Type: ports.NotifyMessageSent, UserID: m.ReceiverID, Payload: v, OccurredAt: now})
	s.log.Debug().Str("message_id", m.ID).Str("sender_id", m.SenderID).Str("receiver_id", m.ReceiverID).Msg("message sent")
	return &v, nil
}

func (s *MessageService) Get(ctx context.Context, id string) (*ports.MessageView, error) {
	v, err := cached(ctx, s.cache, messageKey(id), ttlMessages, func(ctx context.Context) (ports.MessageView, error) {
		m, err := s.messages.FindByID(ctx, id)
		if err != nil {
			return ports.MessageView{}, err
		}
		return toMessageView(m), nil
	})
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ForUser lists messages the user sent or received, newest first.
func (s *MessageService) ForUser(ctx context.Context, userID string) ([]ports.MessageView, error) {
	return s.list(ctx, userMessagesKey(userID), ttlMessages, func(ctx context.Context) ([]*domain.Message, error) {
		return s.messages.ListForUser(ctx, userID)
	})
}

// Unread lists unread messages addressed to the user.
func (s *MessageService) Unread(ctx context.Context, userID string) ([]ports.MessageView, error) {
	return s.list(ctx, unreadMessagesKey(userID), ttlUnread, func(ctx context.Context) ([]*domain.Message, error) {
		return s.messages.ListUnread(ctx, userID)
	})
}

// Conversation lists messages exchanged between two users, oldest first.
func (s *MessageService) Conversation(ctx context.Context, userA, userB string) ([]ports.MessageView, error) {
	return s.list(ctx, conversationKey(userA, userB), ttlMessages, func(ctx context.Context) ([]*domain.Message, error) {
		return s.messages.ListConversation(ctx, userA, userB)
	})
}

// MarkRead is idempotent: an already read message is returned unchanged.
func (s *MessageService) MarkRead(ctx context.Context, id string) (*ports.MessageView, error) {
	m, err := s.messages.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !m.IsRead {
		now := s.now()
		changed, err := s.messages.MarkRead(ctx, id, now)
		if err != nil {
			return nil, err
		}
		if changed {
			m.IsRead = true
			m.ReadAt = &now
			m.UpdatedAt = now
		} else if m, err = s.messages.FindByID(ctx, id); err != nil {
			return nil, err
		}
		s.invalidate(ctx, m)
	}
	v := toMessageView(m)
	return &v, nil
}

func (s *MessageService) Delete(ctx context.Context, id string) error {
	m, err := s.messages.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.messages.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, m)
	return nil
}

func (s *MessageService) list(ctx context.Context, key string, ttl time.Duration, load func(context.Context) ([]*domain.Message, error)) ([]ports.MessageView, error) {
	return cached(ctx, s.cache, key, ttl, func(ctx context.Context) ([]ports.MessageView, error) {
		list, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return toMessageViews(list), nil
	})
}

func (s *MessageService) checkUser(ctx context.Context, entity, id string) error {
	if _, err := s.users.FindByID(ctx, id); err != nil {
		if isNotFound(err) {
			return domain.NotFound(entity, id)
		}
		return fmt.Errorf("resolve %s: %w", entity, err)
	}
	return nil
}

func (s *MessageService) invalidate(ctx context.Context, m *domain.Message) {
	s.cache.Remove(ctx,
		messageKey(m.ID),
		userMessagesKey(m.SenderID),
		userMessagesKey(m.ReceiverID),
		unreadMessagesKey(m.SenderID),
		unreadMessagesKey(m.ReceiverID),
		conversationKey(m.SenderID, m.ReceiverID),
	)
}
