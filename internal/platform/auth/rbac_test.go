package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/clinicrecords/api/internal/platform/apperr"
)

func runGuard(t *testing.T, id *Identity, roles ...Role) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if id != nil {
		req = req.WithContext(WithIdentity(req.Context(), *id))
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := RequireRole(roles...)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})(c)
	return rec, err
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name    string
		role    Role
		allowed []Role
		wantOK  bool
	}{
		{"listed role", RoleProfessional, []Role{RoleProfessional}, true},
		{"admin bypass", RoleAdmin, []Role{RoleProfessional}, true},
		{"patient denied", RolePatient, []Role{RoleProfessional}, false},
		{"caregiver denied", RoleCaregiver, []Role{RoleAdmin}, false},
		{"one of many", RoleCaregiver, []Role{RolePatient, RoleCaregiver}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := runGuard(t, &Identity{UserID: 1, Role: tt.role}, tt.allowed...)
			if tt.wantOK {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if rec.Code != http.StatusOK {
					t.Errorf("expected 200, got %d", rec.Code)
				}
				return
			}
			if !errors.Is(err, apperr.Forbidden("")) {
				t.Errorf("expected FORBIDDEN, got %v", err)
			}
		})
	}
}

func TestRequireRole_NoIdentity(t *testing.T) {
	_, err := runGuard(t, nil, RoleAdmin)
	if !errors.Is(err, apperr.Unauthenticated("")) {
		t.Errorf("expected UNAUTHENTICATED, got %v", err)
	}
}
