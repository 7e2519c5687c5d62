package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/clinicrecords/api/internal/platform/apperr"
	"github.com/clinicrecords/api/internal/platform/auth"
)

type Service struct {
	users       UserRepository
	tokens      *auth.TokenIssuer
	revocations *auth.TokenRevocationStore
	bcryptCost  int
	// dummyHash is compared against when the email is unknown so a failed
	// login costs the same as a wrong password.
	dummyHash string
}

func NewService(users UserRepository, tokens *auth.TokenIssuer, revocations *auth.TokenRevocationStore, bcryptCost int) *Service {
	dummy, _ := auth.HashPassword("not-a-real-password", bcryptCost)
	return &Service{users: users, tokens: tokens, revocations: revocations, bcryptCost: bcryptCost, dummyHash: dummy}
}

// Login checks credentials and issues a session token. Unknown email, wrong
// password and inactive account all yield the same UNAUTHENTICATED error.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	invalid := apperr.Unauthenticated("invalid credentials")

	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			auth.CheckPassword(s.dummyHash, req.Password)
			return nil, invalid
		}
		return nil, err
	}
	if !auth.CheckPassword(u.PasswordHash, req.Password) || !u.Active {
		return nil, invalid
	}

	token, _, err := s.tokens.Issue(u.Identity())
	if err != nil {
		return nil, err
	}
	return &LoginResponse{
		Token:     token,
		ExpiresIn: int64(s.tokens.TTL().Seconds()),
		User:      u,
	}, nil
}

// Logout revokes the token the caller authenticated with.
func (s *Service) Logout(ctx context.Context, id auth.Identity) {
	if s.revocations == nil || id.TokenID == "" {
		return
	}
	s.revocations.Revoke(id.TokenID, id.ExpiresAt)
}

// CreateUser registers a credential. PATIENT users must be linked to a
// patient record and only PATIENT users may carry one.
func (s *Service) CreateUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	role := auth.Role(req.Role)
	if !role.Valid() {
		return nil, apperr.Validation("invalid role", nil)
	}
	if role == auth.RolePatient && req.PatientID == nil {
		return nil, apperr.Validation("patient_id is required for PATIENT users", nil)
	}
	if role != auth.RolePatient && req.PatientID != nil {
		return nil, apperr.Validation("patient_id is only allowed for PATIENT users", nil)
	}

	hash, err := auth.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	u := &User{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		Role:         role,
		PatientID:    req.PatientID,
		Active:       true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, apperr.ErrDuplicate) {
			return nil, apperr.Conflict("email already registered")
		}
		if errors.Is(err, apperr.ErrInvalidReference) {
			return nil, apperr.Validation("patient does not exist", nil)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *Service) GetUser(ctx context.Context, id int64) (*User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.NotFound("user")
		}
		return nil, err
	}
	return u, nil
}

// SetActive enables or disables a user. Disabling revokes every token the
// user holds.
func (s *Service) SetActive(ctx context.Context, id int64, active bool) (*User, error) {
	if err := s.users.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.NotFound("user")
		}
		return nil, err
	}
	if !active && s.revocations != nil {
		s.revocations.RevokeAllForUser(id)
	}
	return s.GetUser(ctx, id)
}

// VerifySession re-reads the user behind a token. The session is rejected
// when the user is gone or inactive, or when the stored role or patient link
// no longer matches the token claims.
func (s *Service) VerifySession(ctx context.Context, id auth.Identity) error {
	u, err := s.users.GetByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.Unauthenticated("user no longer exists")
		}
		return err
	}
	if !u.Active {
		return apperr.Unauthenticated("user is inactive")
	}
	if u.Role != id.Role || !samePatient(u.PatientID, id.LinkedPatientID) {
		return apperr.Unauthenticated("session is stale, log in again")
	}
	return nil
}

func samePatient(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
