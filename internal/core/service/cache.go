package service

import (
	"context"
	"fmt"
	"time"

	"github.com/carepoint/scheduling-api/internal/core/ports"
)

// Cache keys and lifetimes. Prefix-scoped families end with ':'.
const (
	keyUsersAll     = "users:all"
	keyUsersDoctors = "users:doctors"

	keyAppointmentsAll      = "appointments:all"
	keyAppointmentsUpcoming = "appointments:upcoming"
	prefixAppointmentsToday = "appointments:today:"
	prefixAppointmentsRange = "appointments:range:"

	prefixReminders            = "reminders:"
	prefixRemindersID          = "reminders:id:"
	prefixRemindersAppointment = "reminders:appointment:"

	ttlUsers                = 30 * time.Minute
	ttlAppointments         = 15 * time.Minute
	ttlAppointmentsUpcoming = 10 * time.Minute
	ttlAppointmentsToday    = 5 * time.Minute
	ttlAppointmentsRange    = 10 * time.Minute
	ttlMessages             = 10 * time.Minute
	ttlUnread               = 5 * time.Minute
	ttlReminders            = 10 * time.Minute
)

func userKey(id string) string { return "users:id:" + id }
func appointmentKey(id string) string { return "appointments:id:" + id }
func doctorAppointmentsKey(id string) string { return "appointments:doctor:" + id }
func patientAppointmentsKey(id string) string { return "appointments:patient:" + id }
func todayKey(day time.Time) string { return prefixAppointmentsToday + day.Format(time.DateOnly) }
func rangeKey(from, to time.Time) string {
	return fmt.Sprintf("%s%s:%s", prefixAppointmentsRange, from.UTC().Format(time.RFC3339Nano), to.UTC().Format(time.RFC3339Nano))
}

func messageKey(id string) string { return "messages:id:" + id }
func userMessagesKey(id string) string { return "messages:user:" + id }
func unreadMessagesKey(id string) string { return "messages:unread:" + id }

// conversationKey is symmetric in its arguments.
func conversationKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return "messages:conversation:" + a + ":" + b
}

func reminderKey(id string) string { return prefixRemindersID + id }
func userRemindersKey(id string) string { return "reminders:user:" + id }
func unreadRemindersKey(id string) string { return "reminders:unread:" + id }
func appointmentRemindersKey(id string) string { return prefixRemindersAppointment + id }

// cached serves key from c when present, otherwise loads, stores and returns it.
// Load errors are never cached.
func cached[T any](ctx context.Context, c ports.Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var v T
	if c.Get(ctx, key, &v) {
		return v, nil
	}
	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	c.Set(ctx, key, v, ttl)
	return v, nil
}

// nopCache is used when no cache is wired; every read is a miss.
type nopCache struct{}

func (nopCache) Get(context.Context, string, any) bool { return false }
func (nopCache) Set(context.Context, string, any, time.Duration) {}
func (nopCache) Remove(context.Context, ...string) {}
func (nopCache) RemoveByPrefix(context.Context, ...string) {}

func orNopCache(c ports.Cache) ports.Cache {
	if c == nil {
		return nopCache{}
	}
	return c
}
