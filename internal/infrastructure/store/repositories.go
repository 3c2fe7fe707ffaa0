package store

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/carelink/telemedicine/internal/core/domain"
	"github.com/carelink/telemedicine/internal/core/ports"
)

// Collection names; the persisted key is <namespace>_<name>.
const (
	usersCollection         = "users"
	appointmentsCollection  = "appointments"
	messagesCollection      = "messages"
	prescriptionsCollection = "prescriptions"
	availabilityCollection  = "availability"
	currentUserKey          = "current_user"
)

// UserRepository persists registered accounts under the users key.
type UserRepository struct {
	col *Collection[domain.User]
}

// NewUserRepository returns a UserRepository over kv.
func NewUserRepository(kv ports.KeyValueStore, namespace string, log zerolog.Logger) *UserRepository {
	return &UserRepository{col: newCollection[domain.User](kv, namespace, usersCollection, "id", log)}
}

// GetAll returns every stored account, in stored order.
func (r *UserRepository) GetAll(ctx context.Context) ([]domain.User, error) {
	return r.col.GetAll(ctx)
}

// Add appends user without checking for a duplicate email.
func (r *UserRepository) Add(ctx context.Context, user domain.User) error {
	return r.col.Add(ctx, user)
}

// SaveAll replaces every stored account.
func (r *UserRepository) SaveAll(ctx context.Context, users []domain.User) error {
	return r.col.SaveAll(ctx, users)
}

// Create appends user unless an account with the same email exists, in which
// case it returns domain.ErrEmailExists.
func (r *UserRepository) Create(ctx context.Context, user domain.User) error {
	return r.col.Append(ctx, user, func(users []domain.User) error {
		for _, u := range users {
			if u.Email == user.Email {
				return domain.ErrEmailExists
			}
		}
		return nil
	})
}

// SeedIfEmpty stores seed when no account exists yet and reports whether it
// did.
func (r *UserRepository) SeedIfEmpty(ctx context.Context, seed []domain.User) (bool, error) {
	seeded := false
	err := r.col.Mutate(ctx, func(users []domain.User) ([]domain.User, error) {
		seeded = false
		if len(users) > 0 {
			return nil, ports.ErrSkipUpdate
		}
		seeded = true
		return append([]domain.User(nil), seed...), nil
	})
	if err != nil {
		return false, err
	}
	return seeded, nil
}

// AppointmentRepository persists appointments under the appointments key.
type AppointmentRepository struct {
	col *Collection[domain.Appointment]
}

// NewAppointmentRepository returns an AppointmentRepository over kv.
func NewAppointmentRepository(kv ports.KeyValueStore, namespace string, log zerolog.Logger) *AppointmentRepository {
	return &AppointmentRepository{col: newCollection[domain.Appointment](kv, namespace, appointmentsCollection, "id", log)}
}

// GetAll returns every stored appointment, in stored order.
func (r *AppointmentRepository) GetAll(ctx context.Context) ([]domain.Appointment, error) {
	return r.col.GetAll(ctx)
}

// Add appends a.
func (r *AppointmentRepository) Add(ctx context.Context, a domain.Appointment) error {
	return r.col.Add(ctx, a)
}

// Update merges patch over the stored appointment with the given id. It
// reports false, writing nothing, when no appointment matched.
func (r *AppointmentRepository) Update(ctx context.Context, id string, patch domain.AppointmentPatch) (bool, error) {
	return r.col.Update(ctx, id, patch.Fields())
}

// Transition moves the appointment to next after check, when given, accepts
// its current state. Both happen in one atomic update. A missing id yields
// domain.ErrAppointmentNotFound.
func (r *AppointmentRepository) Transition(ctx context.Context, id string, next domain.AppointmentStatus, check func(domain.Appointment) error) (*domain.Appointment, error) {
	updated, err := r.col.Patch(ctx, id, func(current domain.Appointment) (map[string]any, error) {
		if check != nil {
			if err := check(current); err != nil {
				return nil, err
			}
		}
		return domain.StatusPatch(next).Fields(), nil
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, fmt.Errorf("transition %s: %w", id, domain.ErrAppointmentNotFound)
	}
	return updated, nil
}

// MessageRepository persists chat messages under the messages key.
type MessageRepository struct {
	col *Collection[domain.Message]
}

// NewMessageRepository returns a MessageRepository over kv.
func NewMessageRepository(kv ports.KeyValueStore, namespace string, log zerolog.Logger) *MessageRepository {
	return &MessageRepository{col: newCollection[domain.Message](kv, namespace, messagesCollection, "id", log)}
}

// GetAll returns every stored message, in stored order.
func (r *MessageRepository) GetAll(ctx context.Context) ([]domain.Message, error) {
	return r.col.GetAll(ctx)
}

// Add appends m.
func (r *MessageRepository) Add(ctx context.Context, m domain.Message) error {
	return r.col.Add(ctx, m)
}

// PrescriptionRepository persists prescriptions under the prescriptions key.
type PrescriptionRepository struct {
	col *Collection[domain.Prescription]
}

// NewPrescriptionRepository returns a PrescriptionRepository over kv.
func NewPrescriptionRepository(kv ports.KeyValueStore, namespace string, log zerolog.Logger) *PrescriptionRepository {
	return &PrescriptionRepository{col: newCollection[domain.Prescription](kv, namespace, prescriptionsCollection, "id", log)}
}

// GetAll returns every stored prescription, in stored order.
func (r *PrescriptionRepository) GetAll(ctx context.Context) ([]domain.Prescription, error) {
	return r.col.GetAll(ctx)
}

// Add appends p.
func (r *PrescriptionRepository) Add(ctx context.Context, p domain.Prescription) error {
	return r.col.Add(ctx, p)
}

// AvailabilityRepository persists one weekly schedule per doctor, keyed by
// doctorId.
type AvailabilityRepository struct {
	col *Collection[domain.DoctorAvailability]
}

// NewAvailabilityRepository returns an AvailabilityRepository over kv.
func NewAvailabilityRepository(kv ports.KeyValueStore, namespace string, log zerolog.Logger) *AvailabilityRepository {
	return &AvailabilityRepository{col: newCollection[domain.DoctorAvailability](kv, namespace, availabilityCollection, "doctorId", log)}
}

// GetAll returns every stored schedule, in stored order.
func (r *AvailabilityRepository) GetAll(ctx context.Context) ([]domain.DoctorAvailability, error) {
	return r.col.GetAll(ctx)
}

// Upsert stores a as the schedule of doctorID, replacing any previous one.
func (r *AvailabilityRepository) Upsert(ctx context.Context, doctorID string, a domain.DoctorAvailability) error {
	return r.col.Upsert(ctx, doctorID, a)
}
