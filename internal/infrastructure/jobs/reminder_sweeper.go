package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/carepoint/scheduling-api/internal/pkg/metrics"
)

const (
	defaultSchedule = "@every 1m"
	sweepTimeout    = 30 * time.Second
)

// DueDispatcher is the part of the reminder service the sweeper drives.
type DueDispatcher interface {
	DispatchDue(ctx context.Context, now time.Time) (int, error)
}

// ReminderSweeper periodically announces reminders that have come due.
type ReminderSweeper struct {
	cron     *cron.Cron
	schedule string
	target   DueDispatcher
	log      zerolog.Logger
	now      func() time.Time

	mu      sync.Mutex
	running bool
}

func NewReminderSweeper(schedule string, target DueDispatcher, log zerolog.Logger) *ReminderSweeper {
	if schedule == "" {
		schedule = defaultSchedule
	}
	return &ReminderSweeper{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		schedule: schedule,
		target:   target,
		log:      log,
		now:      time.Now,
	}
}

// Start registers the sweep and starts the cron loop. An invalid schedule is
// reported here rather than at the first tick.
func (s *ReminderSweeper) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.Sweep); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info().Str("schedule", s.schedule).Msg("reminder sweeper started")
	return nil
}

// Stop waits for a running sweep to finish or ctx to expire.
func (s *ReminderSweeper) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn().Msg("reminder sweeper stop timed out")
	}
}

// Sweep runs one pass. Overlapping ticks are skipped.
func (s *ReminderSweeper) Sweep() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.log.Debug().Msg("previous reminder sweep still running, skipping")
		return
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	n, err := s.target.DispatchDue(ctx, s.now().UTC())
	if err != nil {
		s.log.Error().Err(err).Msg("reminder sweep failed")
		return
	}
	if n > 0 {
		metrics.RemindersDispatchedTotal.Add(float64(n))
	}
}
