package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/carelink/telemedicine/internal/core/domain"
	"github.com/carelink/telemedicine/internal/core/ports"
)

func findAppointment(ctx context.Context, repo ports.AppointmentRepository, id string) (*domain.Appointment, error) {
	all, err := repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, fmt.Errorf("%s: %w", id, domain.ErrAppointmentNotFound)
}

func usersWithRole(users []domain.User, role domain.Role) []domain.User {
	out := make([]domain.User, 0, len(users))
	for _, u := range users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out
}

func filterAppointments(all []domain.Appointment, keep func(domain.Appointment) bool) []domain.Appointment {
	out := make([]domain.Appointment, 0, len(all))
	for _, a := range all {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}

// newestFirst sorts by createdAt descending; equal instants keep their
// collection order.
func newestFirst(list []domain.Appointment) {
	slices.SortStableFunc(list, func(a, b domain.Appointment) int {
		return b.CreatedAt.Compare(a.CreatedAt.Time)
	})
}
