package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/carepoint/scheduling-api/internal/api/middleware"
	"github.com/carepoint/scheduling-api/internal/core/domain"
	"github.com/carepoint/scheduling-api/internal/core/ports"
)

var (
	patient = domain.Principal{ID: "p1", Email: "patient@example.com", Role: domain.RolePatient}
	doctor  = domain.Principal{ID: "d1", Email: "doctor@example.com", Role: domain.RoleDoctor}
	admin   = domain.Principal{ID: "a1", Email: "admin@example.com", Role: domain.RoleAdmin}

	testStart = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
)

// newContext builds an echo context with the validator installed and, when
// p is non-nil, the caller injected as the Auth middleware would.
func newContext(method, target, body string, p *domain.Principal) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if p != nil {
		middleware.SetPrincipal(c, *p)
	}
	return c, rec
}

func withParams(c echo.Context, kv ...string) echo.Context {
	var names, values []string
	for i := 0; i+1 < len(kv); i += 2 {
		names = append(names, kv[i])
		values = append(values, kv[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	return c
}

type stubAuthService struct {
	ports.AuthService
	registerFn func(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error)
	loginFn    func(ctx context.Context, email, password string) (*ports.AuthResult, error)
	refreshFn  func(ctx context.Context, access, refresh string) (*ports.TokenPair, error)
	forgotFn   func(ctx context.Context, email string) error
	logoutFn   func(ctx context.Context, userID string) error
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) RefreshToken(ctx context.Context, access, refresh string) (*ports.TokenPair, error) {
	return s.refreshFn(ctx, access, refresh)
}

func (s *stubAuthService) ForgotPassword(ctx context.Context, email string) error {
	return s.forgotFn(ctx, email)
}

func (s *stubAuthService) Logout(ctx context.Context, userID string) error {
	return s.logoutFn(ctx, userID)
}

type stubUserService struct {
	ports.UserService
	getFn    func(ctx context.Context, id string) (*ports.UserView, error)
	updateFn func(ctx context.Context, id string, in ports.UpdateUserInput) (*ports.UserView, error)
	uploadFn func(ctx context.Context, id string, r io.Reader, size int64, contentType string) (*ports.UserView, error)
}

func (s *stubUserService) Get(ctx context.Context, id string) (*ports.UserView, error) {
	return s.getFn(ctx, id)
}

func (s *stubUserService) Update(ctx context.Context, id string, in ports.UpdateUserInput) (*ports.UserView, error) {
	return s.updateFn(ctx, id, in)
}

func (s *stubUserService) UploadProfilePicture(ctx context.Context, id string, r io.Reader, size int64, contentType string) (*ports.UserView, error) {
	return s.uploadFn(ctx, id, r, size, contentType)
}

// stubAppointmentService serves a fixed set of appointments.
type stubAppointmentService struct {
	ports.AppointmentService
	appts    []ports.AppointmentView
	created  *ports.CreateAppointmentInput
	updated  *ports.UpdateAppointmentInput
	rangeArg [2]time.Time
}

func (s *stubAppointmentService) List(context.Context) ([]ports.AppointmentView, error) {
	return s.appts, nil
}

func (s *stubAppointmentService) Range(_ context.Context, from, to time.Time) ([]ports.AppointmentView, error) {
	s.rangeArg = [2]time.Time{from, to}
	return s.appts, nil
}

func (s *stubAppointmentService) Get(_ context.Context, id string) (*ports.AppointmentView, error) {
	for _, a := range s.appts {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, domain.NotFound("appointment", id)
}

func (s *stubAppointmentService) Create(_ context.Context, in ports.CreateAppointmentInput) (*ports.AppointmentView, error) {
	s.created = &in
	return &ports.AppointmentView{ID: "new", Title: in.Title, DoctorID: in.DoctorID, PatientID: in.PatientID,
		StartTime: in.StartTime, EndTime: in.EndTime, Status: domain.StatusPending}, nil
}

func (s *stubAppointmentService) Update(_ context.Context, id string, in ports.UpdateAppointmentInput) (*ports.AppointmentView, error) {
	s.updated = &in
	a, err := s.Get(context.Background(), id)
	if err != nil {
		return nil, err
	}
	if in.Status != nil {
		a.Status = *in.Status
	}
	return a, nil
}

type stubMessageService struct {
	ports.MessageService
	msgs   map[string]ports.MessageView
	sent   *ports.SendMessageInput
	marked string
}

func (s *stubMessageService) Send(_ context.Context, in ports.SendMessageInput) (*ports.MessageView, error) {
	s.sent = &in
	return &ports.MessageView{ID: "m-new", SenderID: in.SenderID, ReceiverID: in.ReceiverID, Content: in.Content}, nil
}

func (s *stubMessageService) Get(_ context.Context, id string) (*ports.MessageView, error) {
	m, ok := s.msgs[id]
	if !ok {
		return nil, domain.NotFound("message", id)
	}
	return &m, nil
}

func (s *stubMessageService) MarkRead(_ context.Context, id string) (*ports.MessageView, error) {
	s.marked = id
	m := s.msgs[id]
	m.IsRead = true
	return &m, nil
}

type stubReminderService struct {
	ports.ReminderService
	rems    []ports.ReminderView
	created *ports.CreateReminderInput
}

func (s *stubReminderService) Create(_ context.Context, in ports.CreateReminderInput) (*ports.ReminderView, error) {
	s.created = &in
	return &ports.ReminderView{ID: "r-new", UserID: in.UserID, AppointmentID: in.AppointmentID, Title: in.Title}, nil
}

func (s *stubReminderService) Get(_ context.Context, id string) (*ports.ReminderView, error) {
	for _, r := range s.rems {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, domain.NotFound("reminder", id)
}

func (s *stubReminderService) ForAppointment(_ context.Context, appointmentID string) ([]ports.ReminderView, error) {
	var out []ports.ReminderView
	for _, r := range s.rems {
		if r.AppointmentID == appointmentID {
			out = append(out, r)
		}
	}
	return out, nil
}
