package service

import (
	"context"
	"encoding/json"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/carepoint/scheduling-api/internal/core/domain"
	"github.com/carepoint/scheduling-api/internal/core/ports"
)

func init() {
	passwordCost = bcrypt.MinCost
}

var fixedNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// ---- users ----

type stubUserRepo struct {
	users  map[string]*domain.User
	writes int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	return &c
}

func (r *stubUserRepo) add(u *domain.User) *domain.User {
	r.users[u.ID] = cloneUser(u)
	return u
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) error {
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return domain.Conflict("a user with email '%s' already exists", u.Email)
		}
	}
	r.writes++
	r.users[u.ID] = cloneUser(u)
	return nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.NotFound("user", id)
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.NotFound("user", email)
}

func (r *stubUserRepo) List(_ context.Context) ([]*domain.User, error) {
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubUserRepo) ListByRole(ctx context.Context, role domain.Role) ([]*domain.User, error) {
	all, _ := r.List(ctx)
	out := all[:0]
	for _, u := range all {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *stubUserRepo) Update(_ context.Context, u *domain.User) error {
	existing, ok := r.users[u.ID]
	if !ok {
		return domain.NotFound("user", u.ID)
	}
	c := cloneUser(u)
	c.RefreshTokenHash = existing.RefreshTokenHash
	c.RefreshTokenExpiry = existing.RefreshTokenExpiry
	r.writes++
	r.users[u.ID] = c
	return nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return domain.NotFound("user", id)
	}
	r.writes++
	delete(r.users, id)
	return nil
}

func (r *stubUserRepo) SetRefreshToken(_ context.Context, id, hash string, expiry time.Time) error {
	u, ok := r.users[id]
	if !ok {
		return domain.NotFound("user", id)
	}
	u.RefreshTokenHash = hash
	u.RefreshTokenExpiry = expiry
	return nil
}

func (r *stubUserRepo) RotateRefreshToken(_ context.Context, id, oldHash, newHash string, expiry time.Time) (bool, error) {
	u, ok := r.users[id]
	if !ok || u.RefreshTokenHash != oldHash {
		return false, nil
	}
	u.RefreshTokenHash = newHash
	u.RefreshTokenExpiry = expiry
	return true, nil
}

// ---- appointments ----

type stubAppointmentRepo struct {
	items  map[string]*domain.Appointment
	writes int
	lists  int
}

func newStubAppointmentRepo() *stubAppointmentRepo {
	return &stubAppointmentRepo{items: make(map[string]*domain.Appointment)}
}

func (r *stubAppointmentRepo) Create(_ context.Context, a *domain.Appointment) error {
	r.writes++
	c := *a
	r.items[a.ID] = &c
	return nil
}

func (r *stubAppointmentRepo) FindByID(_ context.Context, id string) (*domain.Appointment, error) {
	a, ok := r.items[id]
	if !ok {
		return nil, domain.NotFound("appointment", id)
	}
	c := *a
	return &c, nil
}

func (r *stubAppointmentRepo) List(_ context.Context, f ports.AppointmentFilter) ([]*domain.Appointment, error) {
	r.lists++
	var out []*domain.Appointment
	for _, a := range r.items {
		switch {
		case f.DoctorID != "" && a.DoctorID != f.DoctorID,
			f.PatientID != "" && a.PatientID != f.PatientID,
			!f.StartAfter.IsZero() && !a.StartTime.After(f.StartAfter),
			!f.StartFrom.IsZero() && a.StartTime.Before(f.StartFrom),
			!f.StartBefore.IsZero() && !a.StartTime.Before(f.StartBefore),
			len(f.Statuses) > 0 && !slices.Contains(f.Statuses, a.Status):
			continue
		}
		c := *a
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (r *stubAppointmentRepo) Update(_ context.Context, a *domain.Appointment) error {
	if _, ok := r.items[a.ID]; !ok {
		return domain.NotFound("appointment", a.ID)
	}
	r.writes++
	c := *a
	r.items[a.ID] = &c
	return nil
}

func (r *stubAppointmentRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.items[id]; !ok {
		return domain.NotFound("appointment", id)
	}
	r.writes++
	delete(r.items, id)
	return nil
}

// ---- messages ----

type stubMessageRepo struct {
	items map[string]*domain.Message
}

func newStubMessageRepo() *stubMessageRepo {
	return &stubMessageRepo{items: make(map[string]*domain.Message)}
}

func (r *stubMessageRepo) Create(_ context.Context, m *domain.Message) error {
	c := *m
	r.items[m.ID] = &c
	return nil
}

func (r *stubMessageRepo) FindByID(_ context.Context, id string) (*domain.Message, error) {
	m, ok := r.items[id]
	if !ok {
		return nil, domain.NotFound("message", id)
	}
	c := *m
	return &c, nil
}

func (r *stubMessageRepo) filter(keep func(*domain.Message) bool, newestFirst bool) []*domain.Message {
	var out []*domain.Message
	for _, m := range r.items {
		if keep(m) {
			c := *m
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if newestFirst {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (r *stubMessageRepo) ListForUser(_ context.Context, userID string) ([]*domain.Message, error) {
	return r.filter(func(m *domain.Message) bool {
		return m.SenderID == userID || m.ReceiverID == userID
	}, true), nil
}

func (r *stubMessageRepo) ListUnread(_ context.Context, receiverID string) ([]*domain.Message, error) {
	return r.filter(func(m *domain.Message) bool {
		return m.ReceiverID == receiverID && !m.IsRead
	}, true), nil
}

func (r *stubMessageRepo) ListConversation(_ context.Context, a, b string) ([]*domain.Message, error) {
	return r.filter(func(m *domain.Message) bool {
		return (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a)
	}, false), nil
}

func (r *stubMessageRepo) MarkRead(_ context.Context, id string, at time.Time) (bool, error) {
	m, ok := r.items[id]
	if !ok {
		return false, domain.NotFound("message", id)
	}
	if m.IsRead {
		return false, nil
	}
	m.IsRead = true
	m.ReadAt = &at
	return true, nil
}

func (r *stubMessageRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.items[id]; !ok {
		return domain.NotFound("message", id)
	}
	delete(r.items, id)
	return nil
}

// ---- reminders ----

type stubReminderRepo struct {
	items map[string]*domain.Reminder
}

func newStubReminderRepo() *stubReminderRepo {
	return &stubReminderRepo{items: make(map[string]*domain.Reminder)}
}

func (r *stubReminderRepo) Create(_ context.Context, rem *domain.Reminder) error {
	c := *rem
	r.items[rem.ID] = &c
	return nil
}

func (r *stubReminderRepo) FindByID(_ context.Context, id string) (*domain.Reminder, error) {
	rem, ok := r.items[id]
	if !ok {
		return nil, domain.NotFound("reminder", id)
	}
	c := *rem
	return &c, nil
}

func (r *stubReminderRepo) sorted(keep func(*domain.Reminder) bool) []*domain.Reminder {
	var out []*domain.Reminder
	for _, rem := range r.items {
		if keep(rem) {
			c := *rem
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReminderDateTime.Before(out[j].ReminderDateTime) })
	return out
}

func (r *stubReminderRepo) ListByUser(_ context.Context, userID string, unreadOnly bool) ([]*domain.Reminder, error) {
	return r.sorted(func(rem *domain.Reminder) bool {
		return rem.UserID == userID && (!unreadOnly || !rem.IsRead)
	}), nil
}

func (r *stubReminderRepo) ListByAppointment(_ context.Context, appointmentID string) ([]*domain.Reminder, error) {
	return r.sorted(func(rem *domain.Reminder) bool { return rem.AppointmentID == appointmentID }), nil
}

func (r *stubReminderRepo) MarkRead(_ context.Context, id string, at time.Time) error {
	rem, ok := r.items[id]
	if !ok {
		return domain.NotFound("reminder", id)
	}
	rem.IsRead = true
	rem.UpdatedAt = at
	return nil
}

func (r *stubReminderRepo) MarkAllRead(_ context.Context, userID string, at time.Time) (int64, error) {
	var n int64
	for _, rem := range r.items {
		if rem.UserID == userID && !rem.IsRead {
			rem.IsRead = true
			rem.UpdatedAt = at
			n++
		}
	}
	return n, nil
}

func (r *stubReminderRepo) ListDue(_ context.Context, now time.Time, limit int) ([]*domain.Reminder, error) {
	out := r.sorted(func(rem *domain.Reminder) bool {
		return !rem.IsRead && rem.NotifiedAt == nil && !rem.ReminderDateTime.After(now)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *stubReminderRepo) MarkNotified(_ context.Context, id string, at time.Time) error {
	rem, ok := r.items[id]
	if !ok {
		return domain.NotFound("reminder", id)
	}
	rem.NotifiedAt = &at
	return nil
}

func (r *stubReminderRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.items[id]; !ok {
		return domain.NotFound("reminder", id)
	}
	delete(r.items, id)
	return nil
}

// ---- cache / notifier ----

// stubCache stores JSON so cached values never alias service state.
type stubCache struct {
	entries map[string][]byte
	hits    int
}

func newStubCache() *stubCache {
	return &stubCache{entries: make(map[string][]byte)}
}

func (c *stubCache) Get(_ context.Context, key string, dest any) bool {
	b, ok := c.entries[key]
	if !ok {
		return false
	}
	if json.Unmarshal(b, dest) != nil {
		return false
	}
	c.hits++
	return true
}

func (c *stubCache) Set(_ context.Context, key string, value any, _ time.Duration) {
	b, err := json.Marshal(value)
	if err == nil {
		c.entries[key] = b
	}
}

func (c *stubCache) Remove(_ context.Context, keys ...string) {
	for _, k := range keys {
		delete(c.entries, k)
	}
}

func (c *stubCache) RemoveByPrefix(_ context.Context, prefixes ...string) {
	for k := range c.entries {
		for _, p := range prefixes {
			if strings.HasPrefix(k, p) {
				delete(c.entries, k)
				break
			}
		}
	}
}

func (c *stubCache) has(key string) bool {
	_, ok := c.entries[key]
	return ok
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []ports.Notification
}

func (n *recordingNotifier) Notify(note ports.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, note)
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.sent))
	for _, s := range n.sent {
		out = append(out, s.Type)
	}
	return out
}
