package store

import (
	"github.com/rs/zerolog"

	"github.com/carelink/telemedicine/internal/core/ports"
)

// DefaultNamespace is the key prefix used by the browser application.
const DefaultNamespace = "telemedicine"

// Store groups the domain accessors built over one key/value backend.
type Store struct {
	Users         *UserRepository
	Appointments  *AppointmentRepository
	Messages      *MessageRepository
	Prescriptions *PrescriptionRepository
	Availability  *AvailabilityRepository
	Session       *SessionHolder
}

// New builds every accessor over kv. An empty namespace selects
// DefaultNamespace.
func New(kv ports.KeyValueStore, namespace string, log zerolog.Logger) *Store {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Store{
		Users:         NewUserRepository(kv, namespace, log),
		Appointments:  NewAppointmentRepository(kv, namespace, log),
		Messages:      NewMessageRepository(kv, namespace, log),
		Prescriptions: NewPrescriptionRepository(kv, namespace, log),
		Availability:  NewAvailabilityRepository(kv, namespace, log),
		Session:       NewSessionHolder(kv, namespace),
	}
}
