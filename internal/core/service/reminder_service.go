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

// dueBatchSize caps how many reminders one sweep dispatches.
const dueBatchSize = 500

type ReminderService struct {
	reminders    ports.ReminderRepository
	appointments ports.AppointmentRepository
	users        ports.UserRepository
	cache        ports.Cache
	notifier     ports.Notifier
	log          zerolog.Logger
	now          func() time.Time
}

func NewReminderService(
	reminders ports.ReminderRepository,
	appointments ports.AppointmentRepository,
	users ports.UserRepository,
	cache ports.Cache,
	notifier ports.Notifier,
	log zerolog.Logger,
) *ReminderService {
	return &ReminderService{
		reminders:    reminders,
		appointments: appointments,
		users:        users,
		cache:        orNopCache(cache),
		notifier:     orNopNotifier(notifier),
		log:          log,
		now:          utcNow,
	}
}

func (s *ReminderService) Create(ctx context.Context, in ports.CreateReminderInput) (*ports.ReminderView, error) {
	var fe fieldErrors
	if in.UserID == "" {
		fe.add("userId", "is required")
	}
	if in.AppointmentID == "" {
		fe.add("appointmentId", "is required")
	}
	if strings.TrimSpace(in.Title) == "" {
		fe.add("title", "is required")
	}
	if in.ReminderDateTime.IsZero() {
		fe.add("reminderDateTime", "is required")
	}
	if err := fe.err(); err != nil {
		return nil, err
	}

	if _, err := s.users.FindByID(ctx, in.UserID); err != nil {
		if isNotFound(err) {
			return nil, domain.NotFound("user", in.UserID)
		}
		return nil, fmt.Errorf("create reminder: %w", err)
	}
	appt, err := s.appointments.FindByID(ctx, in.AppointmentID)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.NotFound("appointment", in.AppointmentID)
		}
		return nil, fmt.Errorf("create reminder: %w", err)
	}

	now := s.now()
	r := &domain.Reminder{
		ID:               uuid.NewString(),
		UserID:           in.UserID,
		AppointmentID:    in.AppointmentID,
		Title:            strings.TrimSpace(in.Title),
		Message:          in.Message,
		ReminderDateTime: in.ReminderDateTime.UTC(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.reminders.Create(ctx, r); err != nil {
		return nil, err
	}
	s.invalidate(ctx, r)

	v := toReminderView(r, appt)
	return &v, nil
}

func (s *ReminderService) Get(ctx context.Context, id string) (*ports.ReminderView, error) {
	v, err := cached(ctx, s.cache, reminderKey(id), ttlReminders, func(ctx context.Context) (ports.ReminderView, error) {
		r, err := s.reminders.FindByID(ctx, id)
		if err != nil {
			return ports.ReminderView{}, err
		}
		views, err := s.views(ctx, []*domain.Reminder{r})
		if err != nil {
			return ports.ReminderView{}, err
		}
		return views[0], nil
	})
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *ReminderService) ForUser(ctx context.Context, userID string) ([]ports.ReminderView, error) {
	return s.list(ctx, userRemindersKey(userID), ttlReminders, func(ctx context.Context) ([]*domain.Reminder, error) {
		return s.reminders.ListByUser(ctx, userID, false)
	})
}

func (s *ReminderService) UnreadForUser(ctx context.Context, userID string) ([]ports.ReminderView, error) {
	return s.list(ctx, unreadRemindersKey(userID), ttlUnread, func(ctx context.Context) ([]*domain.Reminder, error) {
		return s.reminders.ListByUser(ctx, userID, true)
	})
}

func (s *ReminderService) ForAppointment(ctx context.Context, appointmentID string) ([]ports.ReminderView, error) {
	return s.list(ctx, appointmentRemindersKey(appointmentID), ttlReminders, func(ctx context.Context) ([]*domain.Reminder, error) {
		return s.reminders.ListByAppointment(ctx, appointmentID)
	})
}

// MarkRead is idempotent: marking a read reminder again succeeds and leaves it read.
func (s *ReminderService) MarkRead(ctx context.Context, id string) (*ports.ReminderView, error) {
	r, err := s.reminders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !r.IsRead {
		now := s.now()
		if err := s.reminders.MarkRead(ctx, id, now); err != nil {
			return nil, err
		}
		r.IsRead = true
		r.UpdatedAt = now
		s.invalidate(ctx, r)
	}
	views, err := s.views(ctx, []*domain.Reminder{r})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// MarkAllRead marks every unread reminder of the user and returns the count.
func (s *ReminderService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	n, err := s.reminders.MarkAllRead(ctx, userID, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.cache.Remove(ctx, userRemindersKey(userID), unreadRemindersKey(userID))
		s.cache.RemoveByPrefix(ctx, prefixRemindersID, prefixRemindersAppointment)
	}
	s.log.Debug().Str("user_id", userID).Int64("count", n).Msg("reminders marked read")
	return n, nil
}

func (s *ReminderService) Delete(ctx context.Context, id string) error {
	r, err := s.reminders.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.reminders.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, r)
	return nil
}

// DispatchDue publishes reminder.due for unread reminders that came due and
// stamps them so later sweeps skip them. A reminder failing to stamp is
// retried on the next sweep.
func (s *ReminderService) DispatchDue(ctx context.Context, now time.Time) (int, error) {
	due, err := s.reminders.ListDue(ctx, now, dueBatchSize)
	if err != nil {
		return 0, fmt.Errorf("dispatch due reminders: %w", err)
	}
	if len(due) == 0 {
		return 0, nil
	}
	views, err := s.views(ctx, due)
	if err != nil {
		return 0, fmt.Errorf("dispatch due reminders: %w", err)
	}

	sent := 0
	for i, r := range due {
		if err := s.reminders.MarkNotified(ctx, r.ID, now); err != nil {
			s.log.Warn().Err(err).Str("reminder_id", r.ID).Msg("failed to stamp reminder as notified")
			continue
		}
		s.notifier.Notify(ports.Notification{
			Type:       ports.NotifyReminderDue,
			UserID:     r.UserID,
			Payload:    views[i],
			OccurredAt: now,
		})
		sent++
	}
	s.log.Info().Int("count", sent).Msg("due reminders dispatched")
	return sent, nil
}

func (s *ReminderService) list(ctx context.Context, key string, ttl time.Duration, load func(context.Context) ([]*domain.Reminder, error)) ([]ports.ReminderView, error) {
	return cached(ctx, s.cache, key, ttl, func(ctx context.Context) ([]ports.ReminderView, error) {
		list, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return s.views(ctx, list)
	})
}

// views resolves each reminder's appointment once. Reminders whose appointment
// was deleted get a nil summary.
func (s *ReminderService) views(ctx context.Context, list []*domain.Reminder) ([]ports.ReminderView, error) {
	appts := make(map[string]*domain.Appointment)
	out := make([]ports.ReminderView, 0, len(list))
	for _, r := range list {
		a, seen := appts[r.AppointmentID]
		if !seen {
			found, err := s.appointments.FindByID(ctx, r.AppointmentID)
			switch {
			case err == nil:
				a = found
			case !isNotFound(err):
				return nil, err
			}
			appts[r.AppointmentID] = a
		}
		out = append(out, toReminderView(r, a))
	}
	return out, nil
}

func (s *ReminderService) invalidate(ctx context.Context, r *domain.Reminder) {
	s.cache.Remove(ctx,
		reminderKey(r.ID),
		userRemindersKey(r.UserID),
		unreadRemindersKey(r.UserID),
		appointmentRemindersKey(r.AppointmentID),
	)
}

func toReminderView(r *domain.Reminder, a *domain.Appointment) ports.ReminderView {
	v := ports.ReminderView{
		ID:               r.ID,
		UserID:           r.UserID,
		AppointmentID:    r.AppointmentID,
		Title:            r.Title,
		Message:          r.Message,
		ReminderDateTime: r.ReminderDateTime,
		IsRead:           r.IsRead,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
	if a != nil {
		v.Appointment = &ports.AppointmentSummary{
			ID:        a.ID,
			Title:     a.Title,
			StartTime: a.StartTime,
			EndTime:   a.EndTime,
			Status:    a.Status,
		}
	}
	return v
}
