package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/carepoint/scheduling-api/internal/core/domain"
	"github.com/carepoint/scheduling-api/internal/core/ports"
)

const collectionAppointments = "appointments"

type AppointmentRepository struct {
	col *mongo.Collection
}

func NewAppointmentRepository(db *mongo.Database) *AppointmentRepository {
	return &AppointmentRepository{col: db.Collection(collectionAppointments)}
}

type appointmentDocument struct {
	ID        string    `bson:"_id"`
	Title     string    `bson:"title"`
	PatientID string    `bson:"patient_id"`
	DoctorID  string    `bson:"doctor_id"`
	StartTime time.Time `bson:"start_time"`
	EndTime   time.Time `bson:"end_time"`
	Status    string    `bson:"status"`
	Notes     string    `bson:"notes,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func toAppointmentDocument(a *domain.Appointment) appointmentDocument {
	return appointmentDocument{
		ID:        a.ID,
		Title:     a.Title,
		PatientID: a.PatientID,
		DoctorID:  a.DoctorID,
		StartTime: a.StartTime,
		EndTime:   a.EndTime,
		Status:    string(a.Status),
		Notes:     a.Notes,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func (d *appointmentDocument) toDomain() *domain.Appointment {
	return &domain.Appointment{
		ID:        d.ID,
		Title:     d.Title,
		PatientID: d.PatientID,
		DoctorID:  d.DoctorID,
		StartTime: d.StartTime.UTC(),
		EndTime:   d.EndTime.UTC(),
		Status:    domain.AppointmentStatus(d.Status),
		Notes:     d.Notes,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

func (r *AppointmentRepository) Create(ctx context.Context, a *domain.Appointment) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, toAppointmentDocument(a)); err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

func (r *AppointmentRepository) FindByID(ctx context.Context, id string) (*domain.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc appointmentDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, mapFindErr(err, "appointment", id)
	}
	return doc.toDomain(), nil
}

func (r *AppointmentRepository) List(ctx context.Context, f ports.AppointmentFilter) ([]*domain.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}})
	cur, err := r.col.Find(ctx, appointmentFilter(f), opts)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	list, err := decodeAll(ctx, cur, (*appointmentDocument).toDomain)
	if err != nil {
		return nil, fmt.Errorf("decode appointments: %w", err)
	}
	return list, nil
}

func appointmentFilter(f ports.AppointmentFilter) bson.M {
	filter := bson.M{}
	if f.DoctorID != "" {
		filter["doctor_id"] = f.DoctorID
	}
	if f.PatientID != "" {
		filter["patient_id"] = f.PatientID
	}

	start := bson.M{}
	if !f.StartAfter.IsZero() {
		start["$gt"] = f.StartAfter
	}
	if !f.StartFrom.IsZero() {
		start["$gte"] = f.StartFrom
	}
	if !f.StartBefore.IsZero() {
		start["$lt"] = f.StartBefore
	}
	if len(start) > 0 {
		filter["start_time"] = start
	}

	if len(f.Statuses) > 0 {
		statuses := make([]string, 0, len(f.Statuses))
		for _, s := range f.Statuses {
			statuses = append(statuses, string(s))
		}
		filter["status"] = bson.M{"$in": statuses}
	}
	return filter
}

// Update overwrites the stored appointment. Concurrent updates are last-write-wins.
func (r *AppointmentRepository) Update(ctx context.Context, a *domain.Appointment) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": a.ID}, toAppointmentDocument(a))
	if err != nil {
		return fmt.Errorf("update appointment: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.NotFound("appointment", a.ID)
	}
	return nil
}

func (r *AppointmentRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.NotFound("appointment", id)
	}
	return nil
}

func (r *AppointmentRepository) EnsureIndexes(ctx context.Context) error {
	return createIndexes(ctx, r.col, []mongo.IndexModel{
		{Keys: bson.D{{Key: "start_time", Value: 1}}},
		{Keys: bson.D{{Key: "doctor_id", Value: 1}, {Key: "start_time", Value: 1}}},
		{Keys: bson.D{{Key: "patient_id", Value: 1}, {Key: "start_time", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "start_time", Value: 1}}},
	})
}
