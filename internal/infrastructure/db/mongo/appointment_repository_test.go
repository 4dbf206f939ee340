package mongo

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/carepoint/scheduling-api/internal/core/domain"
	"github.com/carepoint/scheduling-api/internal/core/ports"
)

func TestAppointmentFilter_Empty(t *testing.T) {
	if got := appointmentFilter(ports.AppointmentFilter{}); len(got) != 0 {
		t.Fatalf("expected empty filter, got %v", got)
	}
}

func TestAppointmentFilter_Upcoming(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	got := appointmentFilter(ports.AppointmentFilter{
		DoctorID:   "d1",
		StartAfter: now,
		Statuses:   []domain.AppointmentStatus{domain.StatusPending, domain.StatusConfirmed},
	})

	if got["doctor_id"] != "d1" {
		t.Fatalf("expected doctor filter, got %v", got)
	}
	if _, ok := got["patient_id"]; ok {
		t.Fatalf("unexpected patient filter: %v", got)
	}
	start, ok := got["start_time"].(bson.M)
	if !ok || !start["$gt"].(time.Time).Equal(now) || len(start) != 1 {
		t.Fatalf("expected exclusive lower bound, got %v", got["start_time"])
	}
	in, ok := got["status"].(bson.M)["$in"].([]string)
	if !ok || len(in) != 2 || in[0] != "Pending" || in[1] != "Confirmed" {
		t.Fatalf("unexpected status filter: %v", got["status"])
	}
}

func TestAppointmentFilter_HalfOpenRange(t *testing.T) {
	from := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)
	got := appointmentFilter(ports.AppointmentFilter{StartFrom: from, StartBefore: to})

	start := got["start_time"].(bson.M)
	if !start["$gte"].(time.Time).Equal(from) || !start["$lt"].(time.Time).Equal(to) {
		t.Fatalf("expected [from, to), got %v", start)
	}
}
