package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/carepoint/scheduling-api/internal/core/domain"
)

const collectionMessages = "messages"

type MessageRepository struct {
	col *mongo.Collection
}

func NewMessageRepository(db *mongo.Database) *MessageRepository {
	return &MessageRepository{col: db.Collection(collectionMessages)}
}

type messageDocument struct {
	ID          string     `bson:"_id"`
	SenderID    string     `bson:"sender_id"`
	ReceiverID  string     `bson:"receiver_id"`
	Content     string     `bson:"content"`
	IsEncrypted bool       `bson:"is_encrypted"`
	Hash        string     `bson:"hash,omitempty"`
	IsRead      bool       `bson:"is_read"`
	ReadAt      *time.Time `bson:"read_at,omitempty"`
	CreatedAt   time.Time  `bson:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at"`
}

func (d *messageDocument) toDomain() *domain.Message {
	m := &domain.Message{
		ID:          d.ID,
		SenderID:    d.SenderID,
		ReceiverID:  d.ReceiverID,
		Content:     d.Content,
		IsEncrypted: d.IsEncrypted,
		Hash:        d.Hash,
		IsRead:      d.IsRead,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
	if d.ReadAt != nil {
		t := d.ReadAt.UTC()
		m.ReadAt = &t
	}
	return m
}

func (r *MessageRepository) Create(ctx context.Context, m *domain.Message) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := messageDocument{
		ID:          m.ID,
		SenderID:    m.SenderID,
		ReceiverID:  m.ReceiverID,
		Content:     m.Content,
		IsEncrypted: m.IsEncrypted,
		Hash:        m.Hash,
		IsRead:      m.IsRead,
		ReadAt:      m.ReadAt,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (r *MessageRepository) FindByID(ctx context.Context, id string) (*domain.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc messageDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, mapFindErr(err, "message", id)
	}
	return doc.toDomain(), nil
}

func (r *MessageRepository) ListForUser(ctx context.Context, userID string) ([]*domain.Message, error) {
	return r.find(ctx, bson.M{"$or": bson.A{
		bson.M{"sender_id": userID},
		bson.M{"receiver_id": userID},
	}}, -1)
}

func (r *MessageRepository) ListUnread(ctx context.Context, receiverID string) ([]*domain.Message, error) {
	return r.find(ctx, bson.M{"receiver_id": receiverID, "is_read": false}, -1)
}

func (r *MessageRepository) ListConversation(ctx context.Context, a, b string) ([]*domain.Message, error) {
	return r.find(ctx, bson.M{"$or": bson.A{
		bson.M{"sender_id": a, "receiver_id": b},
		bson.M{"sender_id": b, "receiver_id": a},
	}}, 1)
}

func (r *MessageRepository) find(ctx context.Context, filter bson.M, order int) ([]*domain.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: order}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	list, err := decodeAll(ctx, cur, (*messageDocument).toDomain)
	if err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	return list, nil
}

// MarkRead only flips unread messages, so concurrent calls report a single change.
func (r *MessageRepository) MarkRead(ctx context.Context, id string, at time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true, "read_at": at, "updated_at": at}},
	)
	if err != nil {
		return false, fmt.Errorf("mark message read: %w", err)
	}
	if res.MatchedCount == 1 {
		return true, nil
	}

	n, err := r.col.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("mark message read: %w", err)
	}
	if n == 0 {
		return false, domain.NotFound("message", id)
	}
	return false, nil
}

func (r *MessageRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.NotFound("message", id)
	}
	return nil
}

func (r *MessageRepository) EnsureIndexes(ctx context.Context) error {
	return createIndexes(ctx, r.col, []mongo.IndexModel{
		{Keys: bson.D{{Key: "sender_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "receiver_id", Value: 1}, {Key: "is_read", Value: 1}, {Key: "created_at", Value: -1}}},
	})
}
