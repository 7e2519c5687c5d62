package auth

import (
	"context"
	"time"

	"github.com/clinicrecords/api/internal/platform/apperr"
)

// Role is the coarse permission class carried by every authenticated user.
type Role string

const (
	RoleAdmin        Role = "ADMIN"
	RoleProfessional Role = "PROFESSIONAL"
	RolePatient      Role = "PATIENT"
	RoleCaregiver    Role = "CAREGIVER"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleProfessional, RolePatient, RoleCaregiver:
		return true
	}
	return false
}

// Identity is the authenticated caller derived from a verified token.
// LinkedPatientID is set only for PATIENT users.
type Identity struct {
	UserID          int64     `json:"user_id"`
	Role            Role      `json:"role"`
	LinkedPatientID *int64    `json:"patient_id,omitempty"`
	TokenID         string    `json:"-"`
	ExpiresAt       time.Time `json:"-"`
}

type contextKey string

const identityKey contextKey = "identity"

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the caller set by JWTMiddleware.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// Caller returns the identity on ctx or UNAUTHENTICATED when there is none.
func Caller(ctx context.Context) (Identity, error) {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return Identity{}, apperr.Unauthenticated("authentication required")
	}
	return id, nil
}
