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

const collectionReminders = "reminders"

type ReminderRepository struct {
	col *mongo.Collection
}

func NewReminderRepository(db *mongo.Database) *ReminderRepository {
	return &ReminderRepository{col: db.Collection(collectionReminders)}
}

type reminderDocument struct {
	ID               string     `bson:"_id"`
	UserID           string     `bson:"user_id"`
	AppointmentID    string     `bson:"appointment_id"`
	Title            string     `bson:"title"`
	Message          string     `bson:"message"`
	ReminderDateTime time.Time  `bson:"reminder_date_time"`
	IsRead           bool       `bson:"is_read"`
	NotifiedAt       *time.Time `bson:"notified_at,omitempty"`
	CreatedAt        time.Time  `bson:"created_at"`
	UpdatedAt        time.Time  `bson:"updated_at"`
}

func (d *reminderDocument) toDomain() *domain.Reminder {
	r := &domain.Reminder{
		ID:               d.ID,
		UserID:           d.UserID,
		AppointmentID:    d.AppointmentID,
		Title:            d.Title,
		Message:          d.Message,
		ReminderDateTime: d.ReminderDateTime.UTC(),
		IsRead:           d.IsRead,
		CreatedAt:        d.CreatedAt.UTC(),
		UpdatedAt:        d.UpdatedAt.UTC(),
	}
	if d.NotifiedAt != nil {
		t := d.NotifiedAt.UTC()
		r.NotifiedAt = &t
	}
	return r
}

func (r *ReminderRepository) Create(ctx context.Context, rem *domain.Reminder) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := reminderDocument{
		ID:               rem.ID,
		UserID:           rem.UserID,
		AppointmentID:    rem.AppointmentID,
		Title:            rem.Title,
		Message:          rem.Message,
		ReminderDateTime: rem.ReminderDateTime,
		IsRead:           rem.IsRead,
		NotifiedAt:       rem.NotifiedAt,
		CreatedAt:        rem.CreatedAt,
		UpdatedAt:        rem.UpdatedAt,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert reminder: %w", err)
	}
	return nil
}

func (r *ReminderRepository) FindByID(ctx context.Context, id string) (*domain.Reminder, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc reminderDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, mapFindErr(err, "reminder", id)
	}
	return doc.toDomain(), nil
}

func (r *ReminderRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]*domain.Reminder, error) {
	filter := bson.M{"user_id": userID}
	if unreadOnly {
		filter["is_read"] = false
	}
	return r.find(ctx, filter, 0)
}

func (r *ReminderRepository) ListByAppointment(ctx context.Context, appointmentID string) ([]*domain.Reminder, error) {
	return r.find(ctx, bson.M{"appointment_id": appointmentID}, 0)
}

// ListDue matches reminders that are unread, never notified and due by now.
// A missing notified_at field matches the nil filter.
func (r *ReminderRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*domain.Reminder, error) {
	return r.find(ctx, bson.M{
		"is_read":            false,
		"notified_at":        nil,
		"reminder_date_time": bson.M{"$lte": now},
	}, limit)
}

func (r *ReminderRepository) find(ctx context.Context, filter bson.M, limit int) ([]*domain.Reminder, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "reminder_date_time", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	list, err := decodeAll(ctx, cur, (*reminderDocument).toDomain)
	if err != nil {
		return nil, fmt.Errorf("decode reminders: %w", err)
	}
	return list, nil
}

// MarkRead sets the read flag; an already read reminder still matches.
func (r *ReminderRepository) MarkRead(ctx context.Context, id string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"is_read": true, "updated_at": at}})
	if err != nil {
		return fmt.Errorf("mark reminder read: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.NotFound("reminder", id)
	}
	return nil
}

func (r *ReminderRepository) MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateMany(ctx,
		bson.M{"user_id": userID, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true, "updated_at": at}},
	)
	if err != nil {
		return 0, fmt.Errorf("mark reminders read: %w", err)
	}
	return res.ModifiedCount, nil
}

func (r *ReminderRepository) MarkNotified(ctx context.Context, id string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"notified_at": at}})
	if err != nil {
		return fmt.Errorf("mark reminder notified: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.NotFound("reminder", id)
	}
	return nil
}

func (r *ReminderRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.NotFound("reminder", id)
	}
	return nil
}

func (r *ReminderRepository) EnsureIndexes(ctx context.Context) error {
	return createIndexes(ctx, r.col, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "reminder_date_time", Value: 1}}},
		{Keys: bson.D{{Key: "appointment_id", Value: 1}}},
		{Keys: bson.D{{Key: "is_read", Value: 1}, {Key: "notified_at", Value: 1}, {Key: "reminder_date_time", Value: 1}}},
	})
}
