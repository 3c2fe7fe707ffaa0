package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/carelink/telemedicine/internal/core/domain"
	"github.com/carelink/telemedicine/internal/core/ports"
)

// DashboardService assembles the data behind each role's screen. Every call
// re-reads the collections.
type DashboardService struct {
	users         ports.UserRepository
	appointments  ports.AppointmentRepository
	prescriptions ports.PrescriptionRepository
	logger        zerolog.Logger
}

func NewDashboardService(
	users ports.UserRepository,
	appointments ports.AppointmentRepository,
	prescriptions ports.PrescriptionRepository,
	logger zerolog.Logger,
) *DashboardService {
	return &DashboardService{
		users:         users,
		appointments:  appointments,
		prescriptions: prescriptions,
		logger:        logger,
	}
}

func gate(actor ports.Actor, role domain.Role) error {
	if actor.ID == "" || actor.Role != role {
		return domain.ErrUnauthorized
	}
	return nil
}

// Patient returns the caller's appointments and prescriptions in stored order
// plus the doctor directory.
func (s *DashboardService) Patient(ctx context.Context, actor ports.Actor) (*ports.PatientDashboard, error) {
	if err := gate(actor, domain.RolePatient); err != nil {
		return nil, err
	}

	appointments, err := s.appointments.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("patient dashboard: %w", err)
	}
	prescriptions, err := s.prescriptions.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("patient dashboard: %w", err)
	}
	users, err := s.users.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("patient dashboard: %w", err)
	}

	own := make([]domain.Prescription, 0, len(prescriptions))
	for _, p := range prescriptions {
		if p.PatientID == actor.ID {
			own = append(own, p)
		}
	}

	return &ports.PatientDashboard{
		Appointments:  filterAppointments(appointments, func(a domain.Appointment) bool { return a.PatientID == actor.ID }),
		Prescriptions: own,
		Doctors:       usersWithRole(users, domain.RoleDoctor),
	}, nil
}

// Doctor returns the caller's appointments newest first, split by status.
// Cancelled appointments only appear in the full list.
func (s *DashboardService) Doctor(ctx context.Context, actor ports.Actor) (*ports.DoctorDashboard, error) {
	if err := gate(actor, domain.RoleDoctor); err != nil {
		return nil, err
	}

	all, err := s.appointments.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("doctor dashboard: %w", err)
	}
	own := filterAppointments(all, func(a domain.Appointment) bool { return a.DoctorID == actor.ID })
	newestFirst(own)

	return &ports.DoctorDashboard{
		Appointments: own,
		Pending:      withStatus(own, domain.StatusPending),
		Upcoming:     withStatus(own, domain.StatusConfirmed),
		Completed:    withStatus(own, domain.StatusCompleted),
	}, nil
}

// Admin returns every user split by role and every appointment newest first.
func (s *DashboardService) Admin(ctx context.Context, actor ports.Actor) (*ports.AdminDashboard, error) {
	if err := gate(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}

	users, err := s.users.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("admin dashboard: %w", err)
	}
	appointments, err := s.appointments.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("admin dashboard: %w", err)
	}
	newestFirst(appointments)

	return &ports.AdminDashboard{
		Patients:     usersWithRole(users, domain.RolePatient),
		Doctors:      usersWithRole(users, domain.RoleDoctor),
		Appointments: appointments,
		Pending:      withStatus(appointments, domain.StatusPending),
	}, nil
}

func withStatus(list []domain.Appointment, status domain.AppointmentStatus) []domain.Appointment {
	return filterAppointments(list, func(a domain.Appointment) bool { return a.Status == status })
}
