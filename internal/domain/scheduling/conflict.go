package scheduling

import (
	"context"
	"errors"
	"time"

	"github.com/clinicrecords/api/internal/platform/apperr"
)

// ConflictChecker answers whether a professional's slot is taken. The check
// is advisory: callers run it in the same transaction as the insert and rely
// on appointment_active_slot_uniq to settle races.
type ConflictChecker struct {
	appointments AppointmentRepository
}

func NewConflictChecker(appointments AppointmentRepository) *ConflictChecker {
	return &ConflictChecker{appointments: appointments}
}

// HasConflict reports whether an active appointment exists for the
// professional at exactly at (after normalization).
func (c *ConflictChecker) HasConflict(ctx context.Context, professionalID int64, at time.Time) (bool, error) {
	_, err := c.appointments.FindActive(ctx, professionalID, NormalizeTime(at), ActiveStatuses)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
