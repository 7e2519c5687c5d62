package account

import (
	"time"

	"github.com/clinicrecords/api/internal/platform/auth"
)

// User maps to the app_user table.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         auth.Role `json:"role"`
	PatientID    *int64    `json:"patient_id"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// Identity is the session identity the user currently holds.
func (u *User) Identity() auth.Identity {
	return auth.Identity{UserID: u.ID, Role: u.Role, LinkedPatientID: u.PatientID}
}

type CreateUserRequest struct {
	Name      string `json:"name" validate:"required,min=2,max=200"`
	Email     string `json:"email" validate:"required,email,max=320"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	Role      string `json:"role" validate:"required,oneof=ADMIN PROFESSIONAL PATIENT CAREGIVER"`
	PatientID *int64 `json:"patient_id" validate:"omitempty,gt=0"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the token and its lifetime in seconds.
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
	User      *User  `json:"user"`
}

type SetActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}
