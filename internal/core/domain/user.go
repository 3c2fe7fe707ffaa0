package domain

import "errors"

// Role identifies which dashboard and actions a user is entitled to.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

var (
	ErrInvalidCredentials = errors.New("invalid credentials or role")
	ErrEmailExists        = errors.New("email already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidRole        = errors.New("invalid role")
	ErrUnauthorized       = errors.New("not signed in with the required role")
	ErrForbidden          = errors.New("access forbidden")
)

// User is a registered account. Email is unique across the collection.
// Password holds the plaintext secret unless hashing is enabled, in which
// case it holds a bcrypt hash.
type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Password       string    `json:"password"`
	Role           Role      `json:"role"`
	Name           string    `json:"name"`
	Phone          string    `json:"phone,omitempty"`
	Specialization string    `json:"specialization,omitempty"`
	CreatedAt      Timestamp `json:"createdAt"`
}

// Public returns a copy safe to hand to API clients.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:             u.ID,
		Email:          u.Email,
		Role:           u.Role,
		Name:           u.Name,
		Phone:          u.Phone,
		Specialization: u.Specialization,
		CreatedAt:      u.CreatedAt,
	}
}

// PublicUser is a User without its password.
type PublicUser struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Role           Role      `json:"role"`
	Name           string    `json:"name"`
	Phone          string    `json:"phone,omitempty"`
	Specialization string    `json:"specialization,omitempty"`
	CreatedAt      Timestamp `json:"createdAt"`
}
