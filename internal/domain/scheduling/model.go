package scheduling

import (
	"time"
)

type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// ActiveStatuses occupy a professional's slot. CANCELLED never does.
var ActiveStatuses = []Status{StatusScheduled, StatusCompleted}

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Appointment maps to the appointment table.
type Appointment struct {
	ID                 int64     `json:"id"`
	PatientID          int64     `json:"patient_id"`
	ProfessionalID     int64     `json:"professional_id"`
	ScheduledAt        time.Time `json:"scheduled_at"`
	Status             Status    `json:"status"`
	Reason             *string   `json:"reason,omitempty"`
	CancellationReason *string   `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// NormalizeTime is the slot key: UTC, whole seconds.
func NormalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// CreateAppointmentRequest books a slot. ProfessionalID defaults to the
// caller when a professional books for themselves.
type CreateAppointmentRequest struct {
	PatientID      int64     `json:"patient_id" validate:"required,gt=0"`
	ProfessionalID int64     `json:"professional_id" validate:"omitempty,gt=0"`
	ScheduledAt    time.Time `json:"scheduled_at" validate:"required"`
	Reason         *string   `json:"reason" validate:"omitempty,max=500"`
}

type CancelAppointmentRequest struct {
	CancellationReason string `json:"cancellation_reason" validate:"required,min=2,max=500"`
}

// Filter narrows an appointment listing. Nil fields match everything.
type Filter struct {
	PatientID      *int64
	ProfessionalID *int64
	Status         *Status
}
