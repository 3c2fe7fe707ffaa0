package ports

import (
	"context"

	"github.com/carelink/telemedicine/internal/core/domain"
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	ID   string
	Role domain.Role
	Name string
}

// SignupInput carries the fields of the signup form.
type SignupInput struct {
	Email          string
	Password       string
	Name           string
	Role           domain.Role
	Phone          string
	Specialization string
}

// AuthResult is returned by login and signup.
type AuthResult struct {
	Token string
	User  domain.User
}

type AuthService interface {
	Login(ctx context.Context, email, password string, role domain.Role) (*AuthResult, error)
	Signup(ctx context.Context, input SignupInput) (*AuthResult, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (*domain.User, error)
}

// BookAppointmentInput carries the booking form.
type BookAppointmentInput struct {
	DoctorID       string
	Date           string
	Time           string
	Reason         string
	IdempotencyKey string
}

// BookResult is returned by Book; AlreadyExisted is set on idempotent replay.
type BookResult struct {
	Appointment    domain.Appointment
	AlreadyExisted bool
}

type AppointmentService interface {
	Book(ctx context.Context, actor Actor, input BookAppointmentInput) (*BookResult, error)
	UpdateStatus(ctx context.Context, actor Actor, appointmentID string, next domain.AppointmentStatus) (*domain.Appointment, error)
	Doctors(ctx context.Context) ([]domain.User, error)
}

// IssuePrescriptionInput carries the prescription form.
type IssuePrescriptionInput struct {
	AppointmentID string
	Medications   string
	Instructions  string
}

type PrescriptionService interface {
	Issue(ctx context.Context, actor Actor, input IssuePrescriptionInput) (*domain.Prescription, error)
}

// ChatSession is an open chat widget.
type ChatSession interface {
	Messages() []domain.Message
	Updates() <-chan []domain.Message
	Send(ctx context.Context, text string) (*domain.Message, error)
	Close()
}

type ChatService interface {
	Conversation(ctx context.Context, appointmentID, selfID, otherID string) ([]domain.Message, error)
	Send(ctx context.Context, actor Actor, appointmentID, receiverID, text string) (*domain.Message, error)
	Open(ctx context.Context, actor Actor, appointmentID, otherID string) (ChatSession, error)
}

// PatientDashboard is the data behind the patient screen.
type PatientDashboard struct {
	Appointments  []domain.Appointment
	Prescriptions []domain.Prescription
	Doctors       []domain.User
}

// DoctorDashboard partitions the doctor's appointments, newest first.
type DoctorDashboard struct {
	Appointments []domain.Appointment
	Pending      []domain.Appointment
	Upcoming     []domain.Appointment
	Completed    []domain.Appointment
}

// AdminDashboard is the data behind the admin screen.
type AdminDashboard struct {
	Patients     []domain.User
	Doctors      []domain.User
	Appointments []domain.Appointment
	Pending      []domain.Appointment
}

type DashboardService interface {
	Patient(ctx context.Context, actor Actor) (*PatientDashboard, error)
	Doctor(ctx context.Context, actor Actor) (*DoctorDashboard, error)
	Admin(ctx context.Context, actor Actor) (*AdminDashboard, error)
}

type AvailabilityService interface {
	Get(ctx context.Context, doctorID string) (*domain.DoctorAvailability, error)
	Set(ctx context.Context, actor Actor, a domain.DoctorAvailability) error
}
