package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/clinicrecords/api/internal/platform/apperr"
	"github.com/clinicrecords/api/internal/platform/auth"
)

type mockUserRepo struct {
	users  map[int64]*User
	nextID int64
	// patients is the set of patient ids that exist, for FK checks.
	patients map[int64]bool
	getErr   error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[int64]*User), nextID: 1, patients: map[int64]bool{42: true}}
}

func (m *mockUserRepo) Create(_ context.Context, u *User) error {
	for _, existing := range m.users {
		if existing.Email == strings.ToLower(u.Email) {
			return fmt.Errorf("insert user: %w", apperr.ErrDuplicate)
		}
	}
	if u.PatientID != nil && !m.patients[*u.PatientID] {
		return fmt.Errorf("insert user: %w", apperr.ErrInvalidReference)
	}
	u.ID = m.nextID
	m.nextID++
	u.CreatedAt = time.Now()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id int64) (*User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	u, ok := m.users[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range m.users {
		if u.Email == strings.ToLower(email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (m *mockUserRepo) SetActive(_ context.Context, id int64, active bool) error {
	u, ok := m.users[id]
	if !ok {
		return apperr.ErrNotFound
	}
	u.Active = active
	return nil
}

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestService(t *testing.T) (*Service, *mockUserRepo, *auth.TokenRevocationStore) {
	t.Helper()
	repo := newMockUserRepo()
	tokens := auth.NewTokenIssuer([]byte(testSecret), "clinic-test", time.Hour)
	revocations := auth.NewTokenRevocationStore(time.Hour, time.Minute)
	t.Cleanup(revocations.Close)
	return NewService(repo, tokens, revocations, bcrypt.MinCost), repo, revocations
}

func createUser(t *testing.T, svc *Service, email string, role auth.Role, patientID *int64) *User {
	t.Helper()
	u, err := svc.CreateUser(context.Background(), CreateUserRequest{
		Name: "Test User", Email: email, Password: "correct-horse", Role: string(role), PatientID: patientID,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func int64Ptr(v int64) *int64 { return &v }

func TestService_CreateUser(t *testing.T) {
	svc, _, _ := newTestService(t)

	u := createUser(t, svc, "Doc@Clinic.example", auth.RoleProfessional, nil)
	if u.ID == 0 {
		t.Fatal("expected id to be assigned")
	}
	if u.Email != "doc@clinic.example" {
		t.Errorf("expected email to be normalized, got %q", u.Email)
	}
	if u.PasswordHash == "correct-horse" || !auth.CheckPassword(u.PasswordHash, "correct-horse") {
		t.Error("expected password to be stored as a bcrypt hash")
	}
	if !u.Active {
		t.Error("expected new user to be active")
	}
}

func TestService_CreateUser_Rules(t *testing.T) {
	tests := []struct {
		name     string
		role     auth.Role
		patient  *int64
		wantCode apperr.Code
	}{
		{"patient without link", auth.RolePatient, nil, apperr.CodeValidation},
		{"professional with link", auth.RoleProfessional, int64Ptr(42), apperr.CodeValidation},
		{"patient with unknown record", auth.RolePatient, int64Ptr(999), apperr.CodeValidation},
		{"invalid role", auth.Role("NURSE"), nil, apperr.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestService(t)
			_, err := svc.CreateUser(context.Background(), CreateUserRequest{
				Name: "X Y", Email: "x@clinic.example", Password: "correct-horse", Role: string(tt.role), PatientID: tt.patient,
			})
			if got := apperr.From(err); got == nil || got.Code != tt.wantCode {
				t.Errorf("expected %s, got %v", tt.wantCode, err)
			}
		})
	}
}

func TestService_CreateUser_DuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService(t)
	createUser(t, svc, "dup@clinic.example", auth.RoleAdmin, nil)

	_, err := svc.CreateUser(context.Background(), CreateUserRequest{
		Name: "Other", Email: "DUP@clinic.example", Password: "correct-horse", Role: "ADMIN",
	})
	if !errors.Is(err, apperr.Conflict("")) {
		t.Errorf("expected CONFLICT, got %v", err)
	}
}

func TestService_Login(t *testing.T) {
	svc, _, _ := newTestService(t)
	u := createUser(t, svc, "pat@clinic.example", auth.RolePatient, int64Ptr(42))

	resp, err := svc.Login(context.Background(), LoginRequest{Email: "pat@clinic.example", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("expected a token")
	}
	if resp.ExpiresIn != 3600 {
		t.Errorf("expected expires_in 3600, got %d", resp.ExpiresIn)
	}

	claims, err := svc.tokens.Verify(resp.Token)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	id, err := claims.Identity()
	if err != nil {
		t.Fatalf("claims identity: %v", err)
	}
	if id.UserID != u.ID || id.Role != auth.RolePatient || id.LinkedPatientID == nil || *id.LinkedPatientID != 42 {
		t.Errorf("unexpected identity %+v", id)
	}
}

func TestService_Login_Failures(t *testing.T) {
	svc, repo, _ := newTestService(t)
	createUser(t, svc, "doc@clinic.example", auth.RoleProfessional, nil)
	inactive := createUser(t, svc, "gone@clinic.example", auth.RoleProfessional, nil)
	repo.users[inactive.ID].Active = false

	tests := []struct {
		name  string
		email string
		pw    string
	}{
		{"unknown email", "nobody@clinic.example", "correct-horse"},
		{"wrong password", "doc@clinic.example", "wrong-horse"},
		{"inactive user", "gone@clinic.example", "correct-horse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), LoginRequest{Email: tt.email, Password: tt.pw})
			got := apperr.From(err)
			if got == nil || got.Code != apperr.CodeUnauthenticated {
				t.Fatalf("expected UNAUTHENTICATED, got %v", err)
			}
			if got.Message != "invalid credentials" {
				t.Errorf("expected uniform message, got %q", got.Message)
			}
		})
	}
}

func TestService_Logout_RevokesToken(t *testing.T) {
	svc, _, revocations := newTestService(t)
	id := auth.Identity{UserID: 1, Role: auth.RoleAdmin, TokenID: "jti-1", ExpiresAt: time.Now().Add(time.Hour)}

	svc.Logout(context.Background(), id)
	if !revocations.IsRevoked("jti-1", 1, time.Now()) {
		t.Error("expected token to be revoked after logout")
	}
}

func TestService_SetActive(t *testing.T) {
	svc, _, revocations := newTestService(t)
	u := createUser(t, svc, "doc@clinic.example", auth.RoleProfessional, nil)
	issuedAt := time.Now().Add(-time.Minute)

	got, err := svc.SetActive(context.Background(), u.ID, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Active {
		t.Error("expected user to be inactive")
	}
	if !revocations.IsRevoked("any", u.ID, issuedAt) {
		t.Error("expected existing tokens to be revoked on deactivation")
	}

	_, err = svc.SetActive(context.Background(), 999, true)
	if !errors.Is(err, apperr.NotFound("")) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestService_VerifySession(t *testing.T) {
	svc, repo, _ := newTestService(t)
	pat := createUser(t, svc, "pat@clinic.example", auth.RolePatient, int64Ptr(42))
	repo.patients[7] = true

	tests := []struct {
		name    string
		mutate  func(u *User)
		id      auth.Identity
		wantErr bool
	}{
		{"current", nil, auth.Identity{UserID: pat.ID, Role: auth.RolePatient, LinkedPatientID: int64Ptr(42)}, false},
		{"unknown user", nil, auth.Identity{UserID: 999, Role: auth.RolePatient, LinkedPatientID: int64Ptr(42)}, true},
		{"role changed", nil, auth.Identity{UserID: pat.ID, Role: auth.RoleAdmin}, true},
		{"link changed", nil, auth.Identity{UserID: pat.ID, Role: auth.RolePatient, LinkedPatientID: int64Ptr(7)}, true},
		{"inactive", func(u *User) { u.Active = false }, auth.Identity{UserID: pat.ID, Role: auth.RolePatient, LinkedPatientID: int64Ptr(42)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.mutate != nil {
				tt.mutate(repo.users[pat.ID])
				defer func() { repo.users[pat.ID].Active = true }()
			}
			err := svc.VerifySession(context.Background(), tt.id)
			if (err != nil) != tt.wantErr {
				t.Fatalf("VerifySession() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, apperr.Unauthenticated("")) {
				t.Errorf("expected UNAUTHENTICATED, got %v", err)
			}
		})
	}
}

func TestService_VerifySession_StorageError(t *testing.T) {
	svc, repo, _ := newTestService(t)
	repo.getErr = errors.New("connection refused")

	err := svc.VerifySession(context.Background(), auth.Identity{UserID: 1, Role: auth.RoleAdmin})
	if err == nil || errors.Is(err, apperr.Unauthenticated("")) {
		t.Errorf("expected storage error to pass through, got %v", err)
	}
}
