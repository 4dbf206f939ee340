package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/carepoint/scheduling-api/internal/core/domain"
	"github.com/carepoint/scheduling-api/internal/core/ports"
)

type appointmentFixture struct {
	svc      *AppointmentService
	repo     *stubAppointmentRepo
	users    *stubUserRepo
	cache    *stubCache
	notifier *recordingNotifier
}

func newAppointmentFixture() *appointmentFixture {
	users := newStubUserRepo()
	seedUsers(users)
	users.add(&domain.User{ID: "d2", Email: "doc2@example.com", Role: domain.RoleDoctor})
	repo := newStubAppointmentRepo()
	cache := newStubCache()
	notifier := &recordingNotifier{}
	svc := NewAppointmentService(repo, users, cache, notifier, zerolog.Nop())
	svc.now = fixedClock
	return &appointmentFixture{svc: svc, repo: repo, users: users, cache: cache, notifier: notifier}
}

func validAppointmentInput() ports.CreateAppointmentInput {
	return ports.CreateAppointmentInput{
		Title:     "Check-up",
		PatientID: "p1",
		DoctorID:  "d1",
		StartTime: fixedNow.Add(2 * time.Hour),
		EndTime:   fixedNow.Add(3 * time.Hour),
	}
}

func TestAppointmentService_Create(t *testing.T) {
	f := newAppointmentFixture()

	v, err := f.svc.Create(context.Background(), validAppointmentInput())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if v.ID == "" || v.Status != domain.StatusPending {
		t.Fatalf("unexpected view: %+v", v)
	}
	if f.repo.writes != 1 {
		t.Fatalf("expected one write, got %d", f.repo.writes)
	}
	got := f.notifier.types()
	if len(got) != 2 || got[0] != ports.NotifyAppointmentCreated {
		t.Fatalf("expected a created notice per participant, got %v", got)
	}
}

func TestAppointmentService_Create_RejectsBadWindowBeforeWriting(t *testing.T) {
	f := newAppointmentFixture()

	for name, end := range map[string]time.Time{
		"end equals start": fixedNow.Add(2 * time.Hour),
		"end before start": fixedNow.Add(time.Hour),
	} {
		t.Run(name, func(t *testing.T) {
			in := validAppointmentInput()
			in.EndTime = end
			_, err := f.svc.Create(context.Background(), in)
			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Fields[0].Field != "endTime" {
				t.Fatalf("unexpected fields: %+v", verr.Fields)
			}
			if f.repo.writes != 0 {
				t.Fatalf("expected no storage write, got %d", f.repo.writes)
			}
		})
	}
}

func TestAppointmentService_Create_DoctorMustHaveDoctorRole(t *testing.T) {
	f := newAppointmentFixture()
	in := validAppointmentInput()
	in.DoctorID = "p1"

	_, err := f.svc.Create(context.Background(), in)
	var nf *domain.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if nf.Entity != "doctor" || nf.ID != "p1" {
		t.Fatalf("expected doctor p1 in error, got %+v", nf)
	}
	if f.repo.writes != 0 {
		t.Fatalf("expected no write")
	}
}

func TestAppointmentService_Create_UnknownPatient(t *testing.T) {
	f := newAppointmentFixture()
	in := validAppointmentInput()
	in.PatientID = "ghost"

	_, err := f.svc.Create(context.Background(), in)
	var nf *domain.NotFoundError
	if !errors.As(err, &nf) || nf.Entity != "patient" {
		t.Fatalf("expected patient NotFoundError, got %v", err)
	}
}

func TestAppointmentService_WriteInvalidatesEveryAffectedKey(t *testing.T) {
	f := newAppointmentFixture()
	ctx := context.Background()

	created, err := f.svc.Create(ctx, validAppointmentInput())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	// Populate every view that can contain the appointment.
	_, _ = f.svc.List(ctx)
	_, _ = f.svc.Upcoming(ctx)
	_, _ = f.svc.Today(ctx)
	_, _ = f.svc.Range(ctx, fixedNow, fixedNow.Add(24*time.Hour))
	_, _ = f.svc.ForDoctor(ctx, "d1")
	_, _ = f.svc.ForPatient(ctx, "p1")
	_, _ = f.svc.Get(ctx, created.ID)
	f.cache.Set(ctx, userRemindersKey("p1"), []ports.ReminderView{}, time.Minute)

	listsBefore := f.repo.lists
	_, _ = f.svc.List(ctx)
	if f.repo.lists != listsBefore {
		t.Fatalf("expected cached listing to skip storage")
	}

	doctor := "d2"
	title := "Follow-up"
	if _, err := f.svc.Update(ctx, created.ID, ports.UpdateAppointmentInput{DoctorID: &doctor, Title: &title}); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	for _, key := range []string{
		keyAppointmentsAll,
		keyAppointmentsUpcoming,
		todayKey(fixedNow.Truncate(24 * time.Hour)),
		rangeKey(fixedNow, fixedNow.Add(24*time.Hour)),
		doctorAppointmentsKey("d1"),
		doctorAppointmentsKey("d2"),
		patientAppointmentsKey("p1"),
		appointmentKey(created.ID),
		userRemindersKey("p1"),
	} {
		if f.cache.has(key) {
			t.Fatalf("expected %s to be invalidated", key)
		}
	}

	all, _ := f.svc.List(ctx)
	if len(all) != 1 || all[0].Title != "Follow-up" || all[0].DoctorID != "d2" {
		t.Fatalf("expected read to reflect the write, got %+v", all)
	}
	old, _ := f.svc.ForDoctor(ctx, "d1")
	if len(old) != 0 {
		t.Fatalf("expected previous doctor listing to be empty, got %+v", old)
	}
}

func TestAppointmentService_Update(t *testing.T) {
	f := newAppointmentFixture()
	ctx := context.Background()
	created, _ := f.svc.Create(ctx, validAppointmentInput())

	t.Run("merged window must stay valid", func(t *testing.T) {
		end := fixedNow.Add(time.Hour)
		_, err := f.svc.Update(ctx, created.ID, ports.UpdateAppointmentInput{EndTime: &end})
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("any status transition is allowed", func(t *testing.T) {
		for _, st := range []domain.AppointmentStatus{domain.StatusCompleted, domain.StatusPending, domain.StatusCancelled, domain.StatusConfirmed} {
			v, err := f.svc.Update(ctx, created.ID, ports.UpdateAppointmentInput{Status: &st})
			if err != nil {
				t.Fatalf("set status %s: %v", st, err)
			}
			if v.Status != st {
				t.Fatalf("expected status %s, got %s", st, v.Status)
			}
		}
	})

	t.Run("new doctor must be a doctor", func(t *testing.T) {
		doctor := "a1"
		_, err := f.svc.Update(ctx, created.ID, ports.UpdateAppointmentInput{DoctorID: &doctor})
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})

	t.Run("unknown appointment", func(t *testing.T) {
		if _, err := f.svc.Update(ctx, "missing", ports.UpdateAppointmentInput{}); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})
}

func TestAppointmentService_TimeViews(t *testing.T) {
	f := newAppointmentFixture()
	ctx := context.Background()

	mk := func(title string, start time.Duration, status domain.AppointmentStatus) {
		in := validAppointmentInput()
		in.Title = title
		in.StartTime = fixedNow.Add(start)
		in.EndTime = in.StartTime.Add(30 * time.Minute)
		in.Status = status
		if _, err := f.svc.Create(ctx, in); err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
	}
	mk("earlier today", -2*time.Hour, domain.StatusCompleted)
	mk("later today", 3*time.Hour, domain.StatusConfirmed)
	mk("tomorrow", 26*time.Hour, domain.StatusPending)
	mk("cancelled", 5*time.Hour, domain.StatusCancelled)

	upcoming, _ := f.svc.Upcoming(ctx)
	if len(upcoming) != 2 || upcoming[0].Title != "later today" || upcoming[1].Title != "tomorrow" {
		t.Fatalf("unexpected upcoming: %+v", upcoming)
	}

	today, _ := f.svc.Today(ctx)
	if len(today) != 3 {
		t.Fatalf("expected 3 appointments today, got %d", len(today))
	}

	ranged, err := f.svc.Range(ctx, fixedNow.Add(24*time.Hour), fixedNow.Add(48*time.Hour))
	if err != nil {
		t.Fatalf("Range returned error: %v", err)
	}
	if len(ranged) != 1 || ranged[0].Title != "tomorrow" {
		t.Fatalf("unexpected range: %+v", ranged)
	}

	if _, err := f.svc.Range(ctx, fixedNow, fixedNow); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for empty range, got %v", err)
	}
}

func TestAppointmentService_Delete(t *testing.T) {
	f := newAppointmentFixture()
	ctx := context.Background()
	created, _ := f.svc.Create(ctx, validAppointmentInput())
	_, _ = f.svc.Get(ctx, created.ID)

	if err := f.svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := f.svc.Get(ctx, created.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestAppointmentService_Range_SubSecondBoundsAreDistinct(t *testing.T) {
	f := newAppointmentFixture()
	ctx := context.Background()

	in := validAppointmentInput()
	in.StartTime = fixedNow.Add(time.Hour)
	in.EndTime = in.StartTime.Add(30 * time.Minute)
	if _, err := f.svc.Create(ctx, in); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	to := fixedNow.Add(24 * time.Hour)
	whole, err := f.svc.Range(ctx, in.StartTime, to)
	if err != nil {
		t.Fatalf("Range returned error: %v", err)
	}
	if len(whole) != 1 {
		t.Fatalf("expected appointment at the lower bound, got %+v", whole)
	}

	later, err := f.svc.Range(ctx, in.StartTime.Add(500*time.Millisecond), to)
	if err != nil {
		t.Fatalf("Range returned error: %v", err)
	}
	if len(later) != 0 {
		t.Fatalf("expected half-second later bound to exclude it, got %+v", later)
	}
	if rangeKey(in.StartTime, to) == rangeKey(in.StartTime.Add(500*time.Millisecond), to) {
		t.Fatalf("expected distinct cache keys for sub-second bounds")
	}
}
