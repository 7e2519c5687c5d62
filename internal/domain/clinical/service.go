package clinical

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/clinicrecords/api/internal/domain/scheduling"
	"github.com/clinicrecords/api/internal/platform/apperr"
	"github.com/clinicrecords/api/internal/platform/auth"
	"github.com/clinicrecords/api/internal/platform/policy"
)

type Service struct {
	notes         NoteRepository
	prescriptions PrescriptionRepository
	appointments  AppointmentLookup
	policy        *policy.Engine
}

func NewService(notes NoteRepository, prescriptions PrescriptionRepository, appointments AppointmentLookup, engine *policy.Engine) *Service {
	return &Service{notes: notes, prescriptions: prescriptions, appointments: appointments, policy: engine}
}

// -- Clinical Notes --

// CreateNote records a note on an appointment. Only the professional
// assigned to the appointment may write it, and never on a cancelled one.
func (s *Service) CreateNote(ctx context.Context, caller auth.Identity, req CreateNoteRequest) (*ClinicalNote, error) {
	if caller.Role != auth.RoleProfessional {
		return nil, apperr.Forbidden("only professionals can write clinical notes")
	}
	appt, err := s.appointments.GetByID(ctx, req.AppointmentID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.NotFound("appointment")
		}
		return nil, err
	}
	if appt.ProfessionalID != caller.UserID {
		return nil, apperr.Forbidden("appointment belongs to another professional")
	}
	if err := s.policy.Authorize(ctx, caller, policy.Owned(policy.KindClinicalNote, appt.PatientID), policy.OpCreate); err != nil {
		return nil, err
	}
	if appt.Status == scheduling.StatusCancelled {
		return nil, apperr.Validation("cannot add a note to a cancelled appointment", nil)
	}

	n := &ClinicalNote{
		AppointmentID:  appt.ID,
		PatientID:      appt.PatientID,
		ProfessionalID: appt.ProfessionalID,
		Narrative:      strings.TrimSpace(req.Narrative),
		Vitals:         req.Vitals,
	}
	if err := s.notes.Create(ctx, n); err != nil {
		if errors.Is(err, apperr.ErrInvalidReference) {
			return nil, apperr.NotFound("appointment")
		}
		return nil, fmt.Errorf("create clinical note: %w", err)
	}
	return n, nil
}

// ListNotesByPatient returns the patient's notes, newest first, each with
// its prescriptions.
func (s *Service) ListNotesByPatient(ctx context.Context, caller auth.Identity, patientID int64) ([]*ClinicalNote, error) {
	if err := s.policy.Authorize(ctx, caller, policy.Owned(policy.KindClinicalNote, patientID), policy.OpRead); err != nil {
		return nil, err
	}
	notes, err := s.notes.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	rxs, err := s.prescriptions.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}

	byNote := make(map[int64][]*Prescription, len(notes))
	for _, rx := range rxs {
		byNote[rx.ClinicalNoteID] = append(byNote[rx.ClinicalNoteID], rx)
	}
	for _, n := range notes {
		n.Prescriptions = byNote[n.ID]
	}
	if notes == nil {
		notes = []*ClinicalNote{}
	}
	return notes, nil
}

// -- Prescriptions --

// CreatePrescription attaches a prescription to a note. Ownership is checked
// through the note's appointment.
func (s *Service) CreatePrescription(ctx context.Context, caller auth.Identity, req CreatePrescriptionRequest) (*Prescription, error) {
	if caller.Role != auth.RoleProfessional {
		return nil, apperr.Forbidden("only professionals can prescribe")
	}
	note, err := s.notes.GetByID(ctx, req.ClinicalNoteID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.NotFound("clinical note")
		}
		return nil, err
	}
	if note.ProfessionalID != caller.UserID {
		return nil, apperr.Forbidden("clinical note belongs to another professional")
	}
	if err := s.policy.Authorize(ctx, caller, policy.Owned(policy.KindPrescription, note.PatientID), policy.OpCreate); err != nil {
		return nil, err
	}

	rx := &Prescription{
		ClinicalNoteID: note.ID,
		PatientID:      note.PatientID,
		Medication:     strings.TrimSpace(req.Medication),
		Dosage:         strings.TrimSpace(req.Dosage),
		DurationDays:   req.DurationDays,
		Notes:          req.Notes,
	}
	if err := s.prescriptions.Create(ctx, rx); err != nil {
		if errors.Is(err, apperr.ErrInvalidReference) {
			return nil, apperr.NotFound("clinical note")
		}
		return nil, fmt.Errorf("create prescription: %w", err)
	}
	return rx, nil
}

func (s *Service) ListPrescriptionsByPatient(ctx context.Context, caller auth.Identity, patientID int64) ([]*Prescription, error) {
	if err := s.policy.Authorize(ctx, caller, policy.Owned(policy.KindPrescription, patientID), policy.OpRead); err != nil {
		return nil, err
	}
	rxs, err := s.prescriptions.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if rxs == nil {
		rxs = []*Prescription{}
	}
	return rxs, nil
}
