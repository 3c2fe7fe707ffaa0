package ports

import (
	"context"

	"github.com/carelink/telemedicine/internal/core/domain"
)

// UserRepository persists the user collection.
type UserRepository interface {
	GetAll(ctx context.Context) ([]domain.User, error)
	Add(ctx context.Context, user domain.User) error
	SaveAll(ctx context.Context, users []domain.User) error
	// Create appends user unless its email is already taken, in which case it
	// returns domain.ErrEmailExists and writes nothing.
	Create(ctx context.Context, user domain.User) error
	// SeedIfEmpty writes users only when the collection is empty and reports
	// whether it did.
	SeedIfEmpty(ctx context.Context, users []domain.User) (bool, error)
}

// AppointmentRepository persists the appointment collection.
type AppointmentRepository interface {
	GetAll(ctx context.Context) ([]domain.Appointment, error)
	Add(ctx context.Context, a domain.Appointment) error
	// Update merges patch into the appointment with the given id. A missing id
	// is not an error; found reports whether anything was written.
	Update(ctx context.Context, id string, patch domain.AppointmentPatch) (found bool, err error)
	// Transition atomically moves an appointment to next after check accepts
	// its current state, returning the updated record.
	Transition(ctx context.Context, id string, next domain.AppointmentStatus, check func(domain.Appointment) error) (*domain.Appointment, error)
}

// MessageRepository persists chat messages.
type MessageRepository interface {
	GetAll(ctx context.Context) ([]domain.Message, error)
	Add(ctx context.Context, m domain.Message) error
}

// PrescriptionRepository persists prescriptions.
type PrescriptionRepository interface {
	GetAll(ctx context.Context) ([]domain.Prescription, error)
	Add(ctx context.Context, p domain.Prescription) error
}

// AvailabilityRepository persists doctor availability, one record per doctor.
type AvailabilityRepository interface {
	GetAll(ctx context.Context) ([]domain.DoctorAvailability, error)
	Upsert(ctx context.Context, doctorID string, a domain.DoctorAvailability) error
}

// SessionStore holds the snapshot of the signed-in user.
type SessionStore interface {
	// Current returns nil when nobody is signed in.
	Current(ctx context.Context) (*domain.User, error)
	// SetCurrent stores a snapshot; nil clears it.
	SetCurrent(ctx context.Context, user *domain.User) error
}

// IdempotencyStore remembers the result of a request keyed by a client token.
type IdempotencyStore interface {
	Lookup(ctx context.Context, key string) (value string, found bool, err error)
	Remember(ctx context.Context, key, value string) error
}
