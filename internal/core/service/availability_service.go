package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/carelink/telemedicine/internal/core/domain"
	"github.com/carelink/telemedicine/internal/core/ports"
)

type AvailabilityService struct {
	availability ports.AvailabilityRepository
	logger       zerolog.Logger
}

func NewAvailabilityService(availability ports.AvailabilityRepository, logger zerolog.Logger) *AvailabilityService {
	return &AvailabilityService{availability: availability, logger: logger}
}

func (s *AvailabilityService) Get(ctx context.Context, doctorID string) (*domain.DoctorAvailability, error) {
	all, err := s.availability.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("get availability: %w", err)
	}
	for i := range all {
		if all[i].DoctorID == doctorID {
			return &all[i], nil
		}
	}
	return nil, domain.ErrAvailabilityNotFound
}

// Set replaces the calling doctor's availability. The doctorId in a is
// ignored in favour of the caller's ID.
func (s *AvailabilityService) Set(ctx context.Context, actor ports.Actor, a domain.DoctorAvailability) error {
	if actor.Role != domain.RoleDoctor {
		return domain.ErrForbidden
	}
	a.DoctorID = actor.ID
	if a.AvailableDays == nil {
		a.AvailableDays = []string{}
	}
	if err := s.availability.Upsert(ctx, actor.ID, a); err != nil {
		return fmt.Errorf("set availability: %w", err)
	}
	s.logger.Info().Str("doctor_id", actor.ID).Strs("days", a.AvailableDays).Msg("availability updated")
	return nil
}
