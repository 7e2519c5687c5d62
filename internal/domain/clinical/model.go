package clinical

import "time"

// ClinicalNote maps to clinical_note. PatientID and ProfessionalID are read
// from the referenced appointment.
type ClinicalNote struct {
	ID             int64           `json:"id"`
	AppointmentID  int64           `json:"appointment_id"`
	PatientID      int64           `json:"patient_id"`
	ProfessionalID int64           `json:"professional_id"`
	Narrative      string          `json:"narrative"`
	Vitals         *string         `json:"vitals,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	Prescriptions  []*Prescription `json:"prescriptions,omitempty"`
}

// Prescription maps to prescription. PatientID is read through the note's
// appointment.
type Prescription struct {
	ID             int64     `json:"id"`
	ClinicalNoteID int64     `json:"clinical_note_id"`
	PatientID      int64     `json:"patient_id"`
	Medication     string    `json:"medication"`
	Dosage         string    `json:"dosage"`
	DurationDays   int       `json:"duration_days"`
	Notes          *string   `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type CreateNoteRequest struct {
	AppointmentID int64   `json:"appointment_id" validate:"required,gt=0"`
	Narrative     string  `json:"narrative" validate:"required,min=5,max=10000"`
	Vitals        *string `json:"vitals" validate:"omitempty,max=2000"`
}

type CreatePrescriptionRequest struct {
	ClinicalNoteID int64   `json:"clinical_note_id" validate:"required,gt=0"`
	Medication     string  `json:"medication" validate:"required,min=2,max=200"`
	Dosage         string  `json:"dosage" validate:"required,min=2,max=200"`
	DurationDays   int     `json:"duration_days" validate:"required,gt=0,lte=365"`
	Notes          *string `json:"notes" validate:"omitempty,max=2000"`
}
