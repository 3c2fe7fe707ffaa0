package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/carelink/telemedicine/internal/core/domain"
	"github.com/carelink/telemedicine/internal/core/ports"
)

// AuthOptions tunes token issuance and password storage.
type AuthOptions struct {
	JWTSecret string
	TokenTTL  time.Duration
	// HashPasswords stores new passwords as bcrypt hashes instead of plaintext.
	HashPasswords bool
}

// AuthService implements login, signup and the session holder lifecycle.
type AuthService struct {
	users   ports.UserRepository
	session ports.SessionStore
	seeder  *Bootstrap
	opts    AuthOptions
	logger  zerolog.Logger
}

func NewAuthService(users ports.UserRepository, session ports.SessionStore, seeder *Bootstrap, opts AuthOptions, logger zerolog.Logger) *AuthService {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	return &AuthService{users: users, session: session, seeder: seeder, opts: opts, logger: logger}
}

// Login finds the user whose email, password and role all match. Any mismatch
// yields the same domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string, role domain.Role) (*ports.AuthResult, error) {
	if _, err := s.seeder.SeedDefaultUsers(ctx); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	users, err := s.users.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	for _, u := range users {
		if u.Email == email && u.Role == role && passwordMatches(u.Password, password) {
			s.logger.Info().Str("user_id", u.ID).Str("role", string(u.Role)).Msg("login succeeded")
			return s.startSession(ctx, u)
		}
	}

	s.logger.Info().Str("email", email).Str("role", string(role)).Msg("login rejected")
	return nil, domain.ErrInvalidCredentials
}

// Signup registers a patient or doctor and signs them in.
func (s *AuthService) Signup(ctx context.Context, in ports.SignupInput) (*ports.AuthResult, error) {
	if in.Role != domain.RolePatient && in.Role != domain.RoleDoctor {
		return nil, domain.ErrInvalidRole
	}
	if _, err := s.seeder.SeedDefaultUsers(ctx); err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}

	password := in.Password
	if s.opts.HashPasswords {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("signup: hash password: %w", err)
		}
		password = string(hash)
	}

	user := domain.User{
		ID:        newID(string(in.Role)),
		Email:     in.Email,
		Password:  password,
		Role:      in.Role,
		Name:      in.Name,
		Phone:     in.Phone,
		CreatedAt: domain.Now(),
	}
	if in.Role == domain.RoleDoctor {
		user.Specialization = in.Specialization
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("user signed up")
	return s.startSession(ctx, user)
}

// Logout clears the session holder.
func (s *AuthService) Logout(ctx context.Context) error {
	if err := s.session.SetCurrent(ctx, nil); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (s *AuthService) CurrentUser(ctx context.Context) (*domain.User, error) {
	return s.session.Current(ctx)
}

func (s *AuthService) startSession(ctx context.Context, u domain.User) (*ports.AuthResult, error) {
	if err := s.session.SetCurrent(ctx, &u); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	token, err := s.generateToken(u)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &ports.AuthResult{Token: token, User: u}, nil
}

func (s *AuthService) generateToken(u domain.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": u.ID,
		"role":    string(u.Role),
		"name":    u.Name,
		"exp":     time.Now().Add(s.opts.TokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.opts.JWTSecret))
}

// passwordMatches accepts bcrypt hashes and plaintext. Records written by the
// browser app and the seed accounts are plaintext.
func passwordMatches(stored, given string) bool {
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}
