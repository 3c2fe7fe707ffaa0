package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/carelink/telemedicine/internal/api/metrics"
	"github.com/carelink/telemedicine/internal/core/domain"
	"github.com/carelink/telemedicine/internal/core/ports"
)

type PrescriptionService struct {
	prescriptions ports.PrescriptionRepository
	appointments  ports.AppointmentRepository
	changes       ports.ChangeSink
	logger        zerolog.Logger
}

func NewPrescriptionService(
	prescriptions ports.PrescriptionRepository,
	appointments ports.AppointmentRepository,
	changes ports.ChangeSink,
	logger zerolog.Logger,
) *PrescriptionService {
	return &PrescriptionService{
		prescriptions: prescriptions,
		appointments:  appointments,
		changes:       changes,
		logger:        logger,
	}
}

// Issue records a prescription for a confirmed appointment owned by the
// calling doctor and then marks the appointment completed.
func (s *PrescriptionService) Issue(ctx context.Context, actor ports.Actor, in ports.IssuePrescriptionInput) (*domain.Prescription, error) {
	if actor.Role != domain.RoleDoctor {
		return nil, domain.ErrForbidden
	}

	a, err := findAppointment(ctx, s.appointments, in.AppointmentID)
	if err != nil {
		return nil, fmt.Errorf("issue prescription: %w", err)
	}
	if a.DoctorID != actor.ID {
		return nil, domain.ErrForbidden
	}
	if a.Status != domain.StatusConfirmed {
		return nil, fmt.Errorf("issue prescription: %w (appointment is %s)", domain.ErrInvalidTransition, a.Status)
	}

	p := domain.Prescription{
		ID:            newID("presc"),
		AppointmentID: a.ID,
		PatientID:     a.PatientID,
		DoctorID:      actor.ID,
		DoctorName:    actor.Name,
		Medications:   in.Medications,
		Instructions:  in.Instructions,
		Date:          domain.Now(),
	}
	if err := s.prescriptions.Add(ctx, p); err != nil {
		return nil, fmt.Errorf("issue prescription: %w", err)
	}
	metrics.PrescriptionsIssuedTotal.Inc()

	_, err = s.appointments.Transition(ctx, a.ID, domain.StatusCompleted, func(cur domain.Appointment) error {
		if !cur.Status.CanTransitionTo(domain.StatusCompleted) {
			return fmt.Errorf("%w (from %s to %s)", domain.ErrInvalidTransition, cur.Status, domain.StatusCompleted)
		}
		return nil
	})
	if err != nil {
		// The prescription is already stored; report the failed completion.
		s.logger.Error().Err(err).Str("appointment_id", a.ID).Str("prescription_id", p.ID).Msg("prescription stored but appointment not completed")
		return &p, fmt.Errorf("complete appointment: %w", err)
	}
	metrics.AppointmentTransitionsTotal.WithLabelValues(string(domain.StatusConfirmed), string(domain.StatusCompleted)).Inc()

	if s.changes != nil {
		s.changes.Enqueue(ports.ChangeEvent{AppointmentID: a.ID, Kind: ports.ChangePrescription, RecordID: p.ID})
	}
	s.logger.Info().
		Str("prescription_id", p.ID).
		Str("appointment_id", a.ID).
		Str("doctor_id", actor.ID).
		Msg("prescription issued")

	return &p, nil
}
