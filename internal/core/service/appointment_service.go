package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/carelink/telemedicine/internal/api/metrics"
	"github.com/carelink/telemedicine/internal/core/domain"
	"github.com/carelink/telemedicine/internal/core/ports"
)

// unknownDoctorName is stored when a booking names an ID that is not a doctor.
const unknownDoctorName = "Unknown"

type AppointmentService struct {
	appointments ports.AppointmentRepository
	users        ports.UserRepository
	idempotency  ports.IdempotencyStore
	changes      ports.ChangeSink
	logger       zerolog.Logger
}

// NewAppointmentService wires the service. idempotency and changes may be nil.
func NewAppointmentService(
	appointments ports.AppointmentRepository,
	users ports.UserRepository,
	idempotency ports.IdempotencyStore,
	changes ports.ChangeSink,
	logger zerolog.Logger,
) *AppointmentService {
	return &AppointmentService{
		appointments: appointments,
		users:        users,
		idempotency:  idempotency,
		changes:      changes,
		logger:       logger,
	}
}

// Book creates a pending appointment for the calling patient. A repeated
// idempotency key returns the appointment created the first time.
func (s *AppointmentService) Book(ctx context.Context, actor ports.Actor, in ports.BookAppointmentInput) (*ports.BookResult, error) {
	if actor.Role != domain.RolePatient {
		return nil, domain.ErrForbidden
	}

	idemKey := ""
	if in.IdempotencyKey != "" && s.idempotency != nil {
		idemKey = actor.ID + ":" + in.IdempotencyKey
		if existing := s.replay(ctx, idemKey); existing != nil {
			metrics.AppointmentsBookedTotal.WithLabelValues("replayed").Inc()
			s.logger.Info().Str("idempotency_key", in.IdempotencyKey).Str("appointment_id", existing.ID).Msg("idempotent replay")
			return &ports.BookResult{Appointment: *existing, AlreadyExisted: true}, nil
		}
	}

	users, err := s.users.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("book appointment: %w", err)
	}
	doctorName := unknownDoctorName
	for _, u := range users {
		if u.ID == in.DoctorID && u.Role == domain.RoleDoctor {
			doctorName = u.Name
			break
		}
	}

	a := domain.Appointment{
		ID:          newID("apt"),
		PatientID:   actor.ID,
		PatientName: actor.Name,
		DoctorID:    in.DoctorID,
		DoctorName:  doctorName,
		Date:        in.Date,
		Time:        in.Time,
		Status:      domain.StatusPending,
		Reason:      in.Reason,
		CreatedAt:   domain.Now(),
	}
	if err := s.appointments.Add(ctx, a); err != nil {
		s.logger.Error().Err(err).Msg("failed to store appointment")
		return nil, fmt.Errorf("book appointment: %w", err)
	}

	if idemKey != "" {
		if err := s.idempotency.Remember(ctx, idemKey, a.ID); err != nil {
			s.logger.Warn().Err(err).Str("appointment_id", a.ID).Msg("failed to record idempotency key")
		}
	}

	metrics.AppointmentsBookedTotal.WithLabelValues("created").Inc()
	s.notify(ports.ChangeEvent{AppointmentID: a.ID, Kind: ports.ChangeAppointment, RecordID: a.ID})
	s.logger.Info().
		Str("appointment_id", a.ID).
		Str("patient_id", a.PatientID).
		Str("doctor_id", a.DoctorID).
		Msg("appointment booked")

	return &ports.BookResult{Appointment: a}, nil
}

func (s *AppointmentService) replay(ctx context.Context, key string) *domain.Appointment {
	id, found, err := s.idempotency.Lookup(ctx, key)
	if err != nil {
		s.logger.Warn().Err(err).Msg("idempotency lookup failed, booking anyway")
		return nil
	}
	if !found {
		return nil
	}
	a, err := findAppointment(ctx, s.appointments, id)
	if err != nil {
		return nil
	}
	return a
}

// UpdateStatus applies a doctor or admin action. Doctors act on their own
// appointments along the full transition table; admins may only confirm or
// cancel pending ones.
func (s *AppointmentService) UpdateStatus(ctx context.Context, actor ports.Actor, id string, next domain.AppointmentStatus) (*domain.Appointment, error) {
	if actor.Role != domain.RoleDoctor && actor.Role != domain.RoleAdmin {
		return nil, domain.ErrForbidden
	}
	if !next.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidTransition, next)
	}

	var from domain.AppointmentStatus
	updated, err := s.appointments.Transition(ctx, id, next, func(a domain.Appointment) error {
		if actor.Role == domain.RoleDoctor && a.DoctorID != actor.ID {
			return domain.ErrForbidden
		}
		if actor.Role == domain.RoleAdmin && a.Status != domain.StatusPending {
			return fmt.Errorf("%w (admin may only act on pending appointments)", domain.ErrInvalidTransition)
		}
		if !a.Status.CanTransitionTo(next) {
			return fmt.Errorf("%w (from %s to %s)", domain.ErrInvalidTransition, a.Status, next)
		}
		from = a.Status
		return nil
	})
	if err != nil {
		if !errors.Is(err, domain.ErrInvalidTransition) && !errors.Is(err, domain.ErrForbidden) && !errors.Is(err, domain.ErrAppointmentNotFound) {
			s.logger.Error().Err(err).Str("appointment_id", id).Msg("status update failed")
		}
		return nil, fmt.Errorf("update status: %w", err)
	}

	metrics.AppointmentTransitionsTotal.WithLabelValues(string(from), string(next)).Inc()
	s.notify(ports.ChangeEvent{AppointmentID: id, Kind: ports.ChangeAppointment, RecordID: id})
	s.logger.Info().
		Str("appointment_id", id).
		Str("from", string(from)).
		Str("to", string(next)).
		Str("actor_id", actor.ID).
		Msg("appointment status changed")

	return updated, nil
}

// Doctors lists every user with the doctor role, in collection order.
func (s *AppointmentService) Doctors(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	return usersWithRole(users, domain.RoleDoctor), nil
}

func (s *AppointmentService) notify(ev ports.ChangeEvent) {
	if s.changes != nil {
		s.changes.Enqueue(ev)
	}
}
