package account

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/clinicrecords/api/internal/platform/apperr"
	"github.com/clinicrecords/api/internal/platform/auth"
	"github.com/clinicrecords/api/internal/platform/validate"
)

func newTestContext(method, path, body string, id *auth.Identity) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = validate.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if id != nil {
		req = req.WithContext(auth.WithIdentity(req.Context(), *id))
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_Login(t *testing.T) {
	svc, _, _ := newTestService(t)
	createUser(t, svc, "doc@clinic.example", auth.RoleProfessional, nil)
	h := NewHandler(svc, nil)

	c, rec := newTestContext(http.MethodPost, "/api/auth/login", `{"email":"doc@clinic.example","password":"correct-horse"}`, nil)
	if err := h.Login(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["token"] == "" || body["token"] == nil {
		t.Error("expected token in response")
	}
	if body["expires_in"] != float64(3600) {
		t.Errorf("expected expires_in 3600, got %v", body["expires_in"])
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Error("response must not contain the password hash")
	}
}

func TestHandler_Login_ValidationError(t *testing.T) {
	svc, _, _ := newTestService(t)
	h := NewHandler(svc, nil)

	c, _ := newTestContext(http.MethodPost, "/api/auth/login", `{"email":"not-an-email"}`, nil)
	err := h.Login(c)
	if !errors.Is(err, apperr.Validation("", nil)) {
		t.Errorf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestHandler_Me(t *testing.T) {
	svc, _, _ := newTestService(t)
	u := createUser(t, svc, "pat@clinic.example", auth.RolePatient, int64Ptr(42))
	h := NewHandler(svc, nil)

	c, rec := newTestContext(http.MethodGet, "/api/auth/me", "", &auth.Identity{UserID: u.ID, Role: auth.RolePatient, LinkedPatientID: int64Ptr(42)})
	if err := h.Me(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got User
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.ID != u.ID || got.PatientID == nil || *got.PatientID != 42 {
		t.Errorf("unexpected user %+v", got)
	}
}

func TestHandler_Me_Unauthenticated(t *testing.T) {
	svc, _, _ := newTestService(t)
	h := NewHandler(svc, nil)

	c, _ := newTestContext(http.MethodGet, "/api/auth/me", "", nil)
	if err := h.Me(c); !errors.Is(err, apperr.Unauthenticated("")) {
		t.Errorf("expected UNAUTHENTICATED, got %v", err)
	}
}

func TestHandler_CreateUser(t *testing.T) {
	svc, _, _ := newTestService(t)
	h := NewHandler(svc, nil)

	body := `{"name":"Ana Souza","email":"ana@clinic.example","password":"correct-horse","role":"PATIENT","patient_id":42}`
	c, rec := newTestContext(http.MethodPost, "/api/users", body, &auth.Identity{UserID: 1, Role: auth.RoleAdmin})
	if err := h.CreateUser(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
}

func TestHandler_SetActive(t *testing.T) {
	svc, _, _ := newTestService(t)
	u := createUser(t, svc, "doc@clinic.example", auth.RoleProfessional, nil)
	h := NewHandler(svc, nil)

	c, rec := newTestContext(http.MethodPatch, "/api/users/1/active", `{"active":false}`, &auth.Identity{UserID: 99, Role: auth.RoleAdmin})
	c.SetParamNames("id")
	c.SetParamValues("1")
	if err := h.SetActive(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got User
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.ID != u.ID || got.Active {
		t.Errorf("expected user %d to be inactive, got %+v", u.ID, got)
	}

	if err := svc.VerifySession(context.Background(), u.Identity()); err == nil {
		t.Error("expected deactivated user's session to be rejected")
	}
}

func TestHandler_SetActive_InvalidID(t *testing.T) {
	svc, _, _ := newTestService(t)
	h := NewHandler(svc, nil)

	c, _ := newTestContext(http.MethodPatch, "/api/users/abc/active", `{"active":true}`, &auth.Identity{UserID: 1, Role: auth.RoleAdmin})
	c.SetParamNames("id")
	c.SetParamValues("abc")
	if err := h.SetActive(c); !errors.Is(err, apperr.Validation("", nil)) {
		t.Errorf("expected VALIDATION_ERROR, got %v", err)
	}
}
