package clinical

import (
	"context"

	"github.com/clinicrecords/api/internal/domain/scheduling"
)

type NoteRepository interface {
	Create(ctx context.Context, n *ClinicalNote) error
	GetByID(ctx context.Context, id int64) (*ClinicalNote, error)
	ListByPatient(ctx context.Context, patientID int64) ([]*ClinicalNote, error)
}

type PrescriptionRepository interface {
	Create(ctx context.Context, p *Prescription) error
	ListByPatient(ctx context.Context, patientID int64) ([]*Prescription, error)
}

// AppointmentLookup is the part of the scheduling store the clinical service
// needs to check note ownership.
type AppointmentLookup interface {
	GetByID(ctx context.Context, id int64) (*scheduling.Appointment, error)
}
