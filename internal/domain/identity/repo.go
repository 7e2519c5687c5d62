package identity

import (
	"context"

	"github.com/clinicrecords/api/internal/platform/auth"
)

type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id int64) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id int64) error
	// List pages through patients, optionally filtered by a substring of the
	// name or national id.
	List(ctx context.Context, q string, limit, offset int) ([]*Patient, int, error)
}

type CaregiverLinkRepository interface {
	Create(ctx context.Context, l *CaregiverLink) error
	ListByPatient(ctx context.Context, patientID int64) ([]*CaregiverLink, error)
	Exists(ctx context.Context, patientID, caregiverUserID int64) (bool, error)
	// UserRole returns the role of a prospective caregiver, or
	// apperr.ErrNotFound when no such user exists.
	UserRole(ctx context.Context, userID int64) (auth.Role, error)
}
