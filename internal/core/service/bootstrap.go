package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/carelink/telemedicine/internal/core/domain"
	"github.com/carelink/telemedicine/internal/core/ports"
)

// Bootstrap writes the default admin and doctor accounts into an empty user
// collection.
type Bootstrap struct {
	users  ports.UserRepository
	logger zerolog.Logger
}

func NewBootstrap(users ports.UserRepository, logger zerolog.Logger) *Bootstrap {
	return &Bootstrap{users: users, logger: logger}
}

// SeedDefaultUsers only checks whether the collection is empty; it does not
// look for the seeded IDs, so a collection holding any user is left alone.
func (b *Bootstrap) SeedDefaultUsers(ctx context.Context) (bool, error) {
	seeded, err := b.users.SeedIfEmpty(ctx, domain.DefaultUsers(domain.Now()))
	if err != nil {
		return false, fmt.Errorf("seed default users: %w", err)
	}
	if seeded {
		b.logger.Info().Msg("seeded default admin and doctor accounts")
	}
	return seeded, nil
}
