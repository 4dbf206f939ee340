package service

import (
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/carepoint/scheduling-api/internal/core/domain"
	"github.com/carepoint/scheduling-api/internal/core/ports"
)

// passwordCost is lowered by tests.
var passwordCost = bcrypt.DefaultCost

// dummyHash is compared against when a login names an unknown email so both
// failure paths take comparable time.
var dummyHash = sync.OnceValue(func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), passwordCost)
	return h
})

func hashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}

// fieldErrors accumulates per-field validation failures.
type fieldErrors []domain.FieldError

func (f *fieldErrors) add(field, msg string) {
	*f = append(*f, domain.FieldError{Field: field, Error: msg})
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &domain.ValidationError{Fields: f}
}

func normalizeSpecialization(role domain.Role, specialization string) string {
	if role != domain.RoleDoctor {
		return ""
	}
	return strings.TrimSpace(specialization)
}

type nopNotifier struct{}

func (nopNotifier) Notify(ports.Notification) {}

func orNopNotifier(n ports.Notifier) ports.Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}

func utcNow() time.Time { return time.Now().UTC() }

func toUserView(u *domain.User) ports.UserView {
	return ports.UserView{
		ID:                u.ID,
		Email:             u.Email,
		FirstName:         u.FirstName,
		LastName:          u.LastName,
		Role:              u.Role,
		Specialization:    u.Specialization,
		ProfilePictureURL: u.ProfilePictureURL,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}

func toUserViews(users []*domain.User) []ports.UserView {
	out := make([]ports.UserView, 0, len(users))
	for _, u := range users {
		out = append(out, toUserView(u))
	}
	return out
}

func toAppointmentView(a *domain.Appointment) ports.AppointmentView {
	return ports.AppointmentView{
		ID:        a.ID,
		Title:     a.Title,
		PatientID: a.PatientID,
		DoctorID:  a.DoctorID,
		StartTime: a.StartTime,
		EndTime:   a.EndTime,
		Status:    a.Status,
		Notes:     a.Notes,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func toAppointmentViews(list []*domain.Appointment) []ports.AppointmentView {
	out := make([]ports.AppointmentView, 0, len(list))
	for _, a := range list {
		out = append(out, toAppointmentView(a))
	}
	return out
}

func toMessageView(m *domain.Message) ports.MessageView {
	return ports.MessageView{
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
}

func toMessageViews(list []*domain.Message) []ports.MessageView {
	out := make([]ports.MessageView, 0, len(list))
	for _, m := range list {
		out = append(out, toMessageView(m))
	}
	return out
}
