package scheduling

import (
	"context"
	"time"
)

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id int64) (*Appointment, error)
	// FindActive returns the appointment holding the professional's slot at
	// the exact timestamp, or apperr.ErrNotFound.
	FindActive(ctx context.Context, professionalID int64, at time.Time, statuses []Status) (*Appointment, error)
	// Transition moves an appointment from one status to another. It returns
	// apperr.ErrNotFound when no appointment with that id is in status from.
	Transition(ctx context.Context, id int64, from, to Status, cancellationReason *string) (*Appointment, error)
	List(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error)
	// CountByStatus groups appointments scheduled within [from, to], both
	// ends inclusive. Nil bounds are open.
	CountByStatus(ctx context.Context, from, to *time.Time) (map[Status]int, error)
}
