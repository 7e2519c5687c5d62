package notification

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
	repo   Repository
	policy *policy.Engine
}

func NewService(repo Repository, engine *policy.Engine) *Service {
	return &Service{repo: repo, policy: engine}
}

func (s *Service) Create(ctx context.Context, caller auth.Identity, req CreateRequest) (*Notification, error) {
	if err := s.policy.Authorize(ctx, caller, policy.Owned(policy.KindNotification, req.PatientID), policy.OpCreate); err != nil {
		return nil, err
	}
	n := &Notification{
		PatientID: req.PatientID,
		Type:      Type(req.Type),
		Message:   strings.TrimSpace(req.Message),
		Channel:   Channel(req.Channel),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		if errors.Is(err, apperr.ErrInvalidReference) {
			return nil, apperr.Validation("patient does not exist", nil)
		}
		return nil, fmt.Errorf("create notification: %w", err)
	}
	return n, nil
}

func (s *Service) ListByPatient(ctx context.Context, caller auth.Identity, patientID int64, limit, offset int) ([]*Notification, int, error) {
	if err := s.policy.Authorize(ctx, caller, policy.Owned(policy.KindNotification, patientID), policy.OpRead); err != nil {
		return nil, 0, err
	}
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}
