package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/clinicrecords/api/internal/platform/apperr"
	"github.com/clinicrecords/api/internal/platform/auth"
	"github.com/clinicrecords/api/internal/platform/policy"
)

type Service struct {
	patients PatientRepository
	links    CaregiverLinkRepository
	policy   *policy.Engine
}

func NewService(patients PatientRepository, links CaregiverLinkRepository, engine *policy.Engine) *Service {
	return &Service{patients: patients, links: links, policy: engine}
}

// -- Patient --

func (s *Service) CreatePatient(ctx context.Context, caller auth.Identity, req CreatePatientRequest) (*Patient, error) {
	if err := s.policy.Authorize(ctx, caller, policy.Resource{Kind: policy.KindPatient}, policy.OpCreate); err != nil {
		return nil, err
	}
	p, err := req.ToPatient()
	if err != nil {
		return nil, apperr.Validation("birth_date must be YYYY-MM-DD", nil)
	}
	p.Name = strings.TrimSpace(p.Name)
	p.NationalID = strings.TrimSpace(p.NationalID)

	if err := s.patients.Create(ctx, p); err != nil {
		if errors.Is(err, apperr.ErrDuplicate) {
			return nil, apperr.Conflict("national_id already registered")
		}
		return nil, fmt.Errorf("create patient: %w", err)
	}
	return p, nil
}

// GetPatient authorizes before the lookup so a denied caller cannot probe
// which ids exist.
func (s *Service) GetPatient(ctx context.Context, caller auth.Identity, id int64) (*Patient, error) {
	if err := s.policy.Authorize(ctx, caller, policy.Owned(policy.KindPatient, id), policy.OpRead); err != nil {
		return nil, err
	}
	return s.findPatient(ctx, id)
}

func (s *Service) ListPatients(ctx context.Context, caller auth.Identity, q string, limit, offset int) ([]*Patient, int, error) {
	if err := s.policy.Authorize(ctx, caller, policy.Resource{Kind: policy.KindPatient}, policy.OpRead); err != nil {
		return nil, 0, err
	}
	return s.patients.List(ctx, strings.TrimSpace(q), limit, offset)
}

func (s *Service) UpdatePatient(ctx context.Context, caller auth.Identity, id int64, req UpdatePatientRequest) (*Patient, error) {
	if err := s.policy.Authorize(ctx, caller, policy.Owned(policy.KindPatient, id), policy.OpUpdate); err != nil {
		return nil, err
	}
	p, err := s.findPatient(ctx, id)
	if err != nil {
		return nil, err
	}
	req.Apply(p)
	if err := s.patients.Update(ctx, p); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.NotFound("patient")
		}
		return nil, fmt.Errorf("update patient: %w", err)
	}
	return p, nil
}

func (s *Service) DeletePatient(ctx context.Context, caller auth.Identity, id int64) error {
	if err := s.policy.Authorize(ctx, caller, policy.Owned(policy.KindPatient, id), policy.OpDelete); err != nil {
		return err
	}
	if err := s.patients.Delete(ctx, id); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.NotFound("patient")
		}
		return fmt.Errorf("delete patient: %w", err)
	}
	return nil
}

func (s *Service) findPatient(ctx context.Context, id int64) (*Patient, error) {
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.NotFound("patient")
		}
		return nil, err
	}
	return p, nil
}

// -- Caregiver Links --

func (s *Service) LinkCaregiver(ctx context.Context, caller auth.Identity, patientID int64, req CreateCaregiverLinkRequest) (*CaregiverLink, error) {
	if err := s.policy.Authorize(ctx, caller, policy.Owned(policy.KindCaregiverLink, patientID), policy.OpCreate); err != nil {
		return nil, err
	}
	if _, err := s.findPatient(ctx, patientID); err != nil {
		return nil, err
	}
	role, err := s.links.UserRole(ctx, req.CaregiverUserID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Validation("caregiver user does not exist", nil)
		}
		return nil, fmt.Errorf("link caregiver: %w", err)
	}
	// Links only grant access to CAREGIVER users.
	if role != auth.RoleCaregiver {
		return nil, apperr.Validation("linked user must have the CAREGIVER role", nil)
	}

	l := &CaregiverLink{PatientID: patientID, CaregiverUserID: req.CaregiverUserID, Degree: req.Degree}
	if err := s.links.Create(ctx, l); err != nil {
		switch {
		case errors.Is(err, apperr.ErrDuplicate):
			return nil, apperr.Conflict("caregiver already linked to this patient")
		case errors.Is(err, apperr.ErrInvalidReference):
			return nil, apperr.Validation("caregiver user does not exist", nil)
		}
		return nil, fmt.Errorf("link caregiver: %w", err)
	}
	return l, nil
}

func (s *Service) ListCaregivers(ctx context.Context, caller auth.Identity, patientID int64) ([]*CaregiverLink, error) {
	if err := s.policy.Authorize(ctx, caller, policy.Owned(policy.KindCaregiverLink, patientID), policy.OpRead); err != nil {
		return nil, err
	}
	links, err := s.links.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if links == nil {
		links = []*CaregiverLink{}
	}
	return links, nil
}
