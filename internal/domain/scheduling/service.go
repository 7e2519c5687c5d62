package scheduling

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/clinicrecords/api/internal/platform/apperr"
	"github.com/clinicrecords/api/internal/platform/auth"
	"github.com/clinicrecords/api/internal/platform/db"
	"github.com/clinicrecords/api/internal/platform/policy"
)

var errSlotTaken = apperr.Conflict("professional already has an active appointment at this time")

type Service struct {
	appointments AppointmentRepository
	conflicts    *ConflictChecker
	tx           db.Transactor
	policy       *policy.Engine
}

func NewService(appointments AppointmentRepository, tx db.Transactor, engine *policy.Engine) *Service {
	return &Service{
		appointments: appointments,
		conflicts:    NewConflictChecker(appointments),
		tx:           tx,
		policy:       engine,
	}
}

// CreateAppointment books a slot. The conflict check and the insert share a
// transaction; a unique violation from a concurrent booking is reported as
// the same CONFLICT.
func (s *Service) CreateAppointment(ctx context.Context, caller auth.Identity, req CreateAppointmentRequest) (*Appointment, error) {
	if err := s.policy.Authorize(ctx, caller, policy.Owned(policy.KindAppointment, req.PatientID), policy.OpCreate); err != nil {
		return nil, err
	}

	professionalID := req.ProfessionalID
	if professionalID == 0 {
		if caller.Role != auth.RoleProfessional {
			return nil, apperr.Validation("professional_id is required", nil)
		}
		professionalID = caller.UserID
	}

	a := &Appointment{
		PatientID:      req.PatientID,
		ProfessionalID: professionalID,
		ScheduledAt:    NormalizeTime(req.ScheduledAt),
		Status:         StatusScheduled,
		Reason:         req.Reason,
	}

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		taken, err := s.conflicts.HasConflict(ctx, a.ProfessionalID, a.ScheduledAt)
		if err != nil {
			return err
		}
		if taken {
			return errSlotTaken
		}
		return s.appointments.Create(ctx, a)
	})
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrDuplicate):
			return nil, errSlotTaken
		case errors.Is(err, apperr.ErrInvalidReference):
			return nil, apperr.Validation("patient or professional does not exist", nil)
		}
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, fmt.Errorf("create appointment: %w", err)
	}
	return a, nil
}

func (s *Service) GetAppointment(ctx context.Context, caller auth.Identity, id int64) (*Appointment, error) {
	a, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(ctx, caller, policy.Owned(policy.KindAppointment, a.PatientID), policy.OpRead); err != nil {
		return nil, err
	}
	return a, nil
}

// CancelAppointment frees the slot. The row is kept with its reason.
func (s *Service) CancelAppointment(ctx context.Context, caller auth.Identity, id int64, reason string) (*Appointment, error) {
	reason = strings.TrimSpace(reason)
	if len([]rune(reason)) < 2 {
		return nil, apperr.Validation("cancellation_reason must be at least 2 characters", nil)
	}
	a, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(ctx, caller, policy.Owned(policy.KindAppointment, a.PatientID), policy.OpUpdate); err != nil {
		return nil, err
	}
	if a.Status == StatusCancelled {
		return nil, apperr.Conflict("appointment is already cancelled")
	}
	return s.transition(ctx, a, StatusCancelled, &reason)
}

// CompleteAppointment marks a scheduled appointment as attended.
func (s *Service) CompleteAppointment(ctx context.Context, caller auth.Identity, id int64) (*Appointment, error) {
	a, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(ctx, caller, policy.Owned(policy.KindAppointment, a.PatientID), policy.OpUpdate); err != nil {
		return nil, err
	}
	if a.Status != StatusScheduled {
		return nil, apperr.Conflict("only scheduled appointments can be completed")
	}
	return s.transition(ctx, a, StatusCompleted, nil)
}

func (s *Service) transition(ctx context.Context, a *Appointment, to Status, reason *string) (*Appointment, error) {
	updated, err := s.appointments.Transition(ctx, a.ID, a.Status, to, reason)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			// Another request changed the status first.
			return nil, apperr.Conflict("appointment status changed concurrently")
		}
		return nil, fmt.Errorf("update appointment %d: %w", a.ID, err)
	}
	return updated, nil
}

// ListAppointments applies role scoping before filtering: a patient only
// sees their own appointments and a caregiver must name a linked patient.
func (s *Service) ListAppointments(ctx context.Context, caller auth.Identity, f Filter, limit, offset int) ([]*Appointment, int, error) {
	switch caller.Role {
	case auth.RolePatient:
		if caller.LinkedPatientID == nil {
			return nil, 0, apperr.Forbidden("no linked patient")
		}
		pid := *caller.LinkedPatientID
		f.PatientID = &pid
	case auth.RoleCaregiver:
		if f.PatientID == nil {
			return nil, 0, apperr.Validation("patient_id is required", nil)
		}
	}

	res := policy.Resource{Kind: policy.KindAppointment}
	if f.PatientID != nil {
		res = policy.Owned(policy.KindAppointment, *f.PatientID)
	}
	if err := s.policy.Authorize(ctx, caller, res, policy.OpRead); err != nil {
		return nil, 0, err
	}
	return s.appointments.List(ctx, f, limit, offset)
}

// CountAppointmentsByStatus backs the appointments report. Every status is
// present in the result, with zero when nothing matched.
func (s *Service) CountAppointmentsByStatus(ctx context.Context, from, to *time.Time) (map[string]int, error) {
	counts, err := s.appointments.CountByStatus(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("count appointments: %w", err)
	}
	out := map[string]int{
		string(StatusScheduled): 0,
		string(StatusCompleted): 0,
		string(StatusCancelled): 0,
	}
	for st, n := range counts {
		out[string(st)] = n
	}
	return out, nil
}

func (s *Service) find(ctx context.Context, id int64) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.NotFound("appointment")
		}
		return nil, err
	}
	return a, nil
}
