package handler

import (
	"context"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/carelink/telemedicine/internal/api/middleware"
	"github.com/carelink/telemedicine/internal/core/domain"
	"github.com/carelink/telemedicine/internal/core/ports"
)

type stubAuthService struct {
	loginFn   func(ctx context.Context, email, password string, role domain.Role) (*ports.AuthResult, error)
	signupFn  func(ctx context.Context, in ports.SignupInput) (*ports.AuthResult, error)
	logoutFn  func(ctx context.Context) error
	currentFn func(ctx context.Context) (*domain.User, error)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string, role domain.Role) (*ports.AuthResult, error) {
	return s.loginFn(ctx, email, password, role)
}

func (s *stubAuthService) Signup(ctx context.Context, in ports.SignupInput) (*ports.AuthResult, error) {
	return s.signupFn(ctx, in)
}

func (s *stubAuthService) Logout(ctx context.Context) error { return s.logoutFn(ctx) }

func (s *stubAuthService) CurrentUser(ctx context.Context) (*domain.User, error) {
	return s.currentFn(ctx)
}

type stubAppointmentService struct {
	bookFn    func(ctx context.Context, actor ports.Actor, in ports.BookAppointmentInput) (*ports.BookResult, error)
	statusFn  func(ctx context.Context, actor ports.Actor, id string, next domain.AppointmentStatus) (*domain.Appointment, error)
	doctorsFn func(ctx context.Context) ([]domain.User, error)
}

func (s *stubAppointmentService) Book(ctx context.Context, actor ports.Actor, in ports.BookAppointmentInput) (*ports.BookResult, error) {
	return s.bookFn(ctx, actor, in)
}

func (s *stubAppointmentService) UpdateStatus(ctx context.Context, actor ports.Actor, id string, next domain.AppointmentStatus) (*domain.Appointment, error) {
	return s.statusFn(ctx, actor, id, next)
}

func (s *stubAppointmentService) Doctors(ctx context.Context) ([]domain.User, error) {
	return s.doctorsFn(ctx)
}

type stubPrescriptionService struct {
	issueFn func(ctx context.Context, actor ports.Actor, in ports.IssuePrescriptionInput) (*domain.Prescription, error)
}

func (s *stubPrescriptionService) Issue(ctx context.Context, actor ports.Actor, in ports.IssuePrescriptionInput) (*domain.Prescription, error) {
	return s.issueFn(ctx, actor, in)
}

type stubDashboardService struct {
	patientFn func(ctx context.Context, actor ports.Actor) (*ports.PatientDashboard, error)
	doctorFn  func(ctx context.Context, actor ports.Actor) (*ports.DoctorDashboard, error)
	adminFn   func(ctx context.Context, actor ports.Actor) (*ports.AdminDashboard, error)
}

func (s *stubDashboardService) Patient(ctx context.Context, actor ports.Actor) (*ports.PatientDashboard, error) {
	return s.patientFn(ctx, actor)
}

func (s *stubDashboardService) Doctor(ctx context.Context, actor ports.Actor) (*ports.DoctorDashboard, error) {
	return s.doctorFn(ctx, actor)
}

func (s *stubDashboardService) Admin(ctx context.Context, actor ports.Actor) (*ports.AdminDashboard, error) {
	return s.adminFn(ctx, actor)
}

type stubAvailabilityService struct {
	getFn func(ctx context.Context, doctorID string) (*domain.DoctorAvailability, error)
	setFn func(ctx context.Context, actor ports.Actor, a domain.DoctorAvailability) error
}

func (s *stubAvailabilityService) Get(ctx context.Context, doctorID string) (*domain.DoctorAvailability, error) {
	return s.getFn(ctx, doctorID)
}

func (s *stubAvailabilityService) Set(ctx context.Context, actor ports.Actor, a domain.DoctorAvailability) error {
	return s.setFn(ctx, actor, a)
}

type stubChatService struct {
	conversationFn func(ctx context.Context, appointmentID, selfID, otherID string) ([]domain.Message, error)
	sendFn         func(ctx context.Context, actor ports.Actor, appointmentID, receiverID, text string) (*domain.Message, error)
	openFn         func(ctx context.Context, actor ports.Actor, appointmentID, otherID string) (ports.ChatSession, error)
}

func (s *stubChatService) Conversation(ctx context.Context, appointmentID, selfID, otherID string) ([]domain.Message, error) {
	return s.conversationFn(ctx, appointmentID, selfID, otherID)
}

func (s *stubChatService) Send(ctx context.Context, actor ports.Actor, appointmentID, receiverID, text string) (*domain.Message, error) {
	return s.sendFn(ctx, actor, appointmentID, receiverID, text)
}

func (s *stubChatService) Open(ctx context.Context, actor ports.Actor, appointmentID, otherID string) (ports.ChatSession, error) {
	return s.openFn(ctx, actor, appointmentID, otherID)
}

// stubSession replays a fixed list of snapshots and then closes Updates.
type stubSession struct {
	updates chan []domain.Message
	closed  bool
}

func newStubSession(snapshots ...[]domain.Message) *stubSession {
	ch := make(chan []domain.Message, len(snapshots))
	for _, s := range snapshots {
		ch <- s
	}
	close(ch)
	return &stubSession{updates: ch}
}

func (s *stubSession) Messages() []domain.Message       { return nil }
func (s *stubSession) Updates() <-chan []domain.Message { return s.updates }
func (s *stubSession) Close()                           { s.closed = true }
func (s *stubSession) Send(context.Context, string) (*domain.Message, error) {
	return nil, nil
}

// newContext builds an echo context the way the router would, with the
// validator installed and, when actor is non-nil, the Auth claims set.
func newContext(method, target, body string, actor *ports.Actor) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if actor != nil {
		c.Set(middleware.KeyUserID, actor.ID)
		c.Set(middleware.KeyRole, string(actor.Role))
		c.Set(middleware.KeyName, actor.Name)
	}
	return c, rec
}

var (
	patient = &ports.Actor{ID: "patient-1", Role: domain.RolePatient, Name: "Pat"}
	doctor  = &ports.Actor{ID: domain.SeedDoctorID, Role: domain.RoleDoctor, Name: "Dr. Smith"}
	admin   = &ports.Actor{ID: domain.SeedAdminID, Role: domain.RoleAdmin, Name: "Admin"}
)
