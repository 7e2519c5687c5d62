package identity

import (
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

func newTestHandler() (*Handler, *mockPatientRepo, *echo.Echo) {
	svc, repo, _ := newTestService()
	h := NewHandler(svc, nil)
	e := echo.New()
	e.Validator = validate.New()
	return h, repo, e
}

func newRequest(method, target, body string, id auth.Identity) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	return req.WithContext(auth.WithIdentity(req.Context(), id))
}

func TestHandler_CreatePatient(t *testing.T) {
	h, _, e := newTestHandler()

	body := `{"name":"Maria Silva","national_id":"12345678900","birth_date":"1985-03-14"}`
	rec := httptest.NewRecorder()
	c := e.NewContext(newRequest(http.MethodPost, "/api/patients", body, professional), rec)

	if err := h.CreatePatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	var p Patient
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if p.Name != "Maria Silva" || p.NationalID != "12345678900" {
		t.Errorf("unexpected patient %+v", p)
	}
}

func TestHandler_CreatePatient_Validation(t *testing.T) {
	h, _, e := newTestHandler()

	body := `{"name":"M","birth_date":"14/03/1985"}`
	c := e.NewContext(newRequest(http.MethodPost, "/api/patients", body, professional), httptest.NewRecorder())

	err := h.CreatePatient(c)
	appErr := apperr.From(err)
	if appErr == nil || appErr.Code != apperr.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
	details, ok := appErr.Details.([]validate.FieldError)
	if !ok || len(details) != 3 {
		t.Errorf("expected 3 field errors, got %#v", appErr.Details)
	}
}

func TestHandler_GetPatient_Scenario(t *testing.T) {
	h, repo, e := newTestHandler()
	seedPatient(repo, 42, "Own Record", "42")
	seedPatient(repo, 7, "Someone Else", "7")

	tests := []struct {
		id      string
		wantErr error
	}{
		{"42", nil},
		{"7", apperr.Forbidden("")},
		{"abc", apperr.Validation("", nil)},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(newRequest(http.MethodGet, "/api/patients/"+tt.id, "", patientUser(42)), rec)
			c.SetParamNames("id")
			c.SetParamValues(tt.id)

			err := h.GetPatient(c)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if rec.Code != http.StatusOK {
					t.Errorf("expected 200, got %d", rec.Code)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestHandler_ListPatients(t *testing.T) {
	h, repo, e := newTestHandler()
	seedPatient(repo, 1, "Ana Souza", "111")
	seedPatient(repo, 2, "Bruno Lima", "222")

	rec := httptest.NewRecorder()
	c := e.NewContext(newRequest(http.MethodGet, "/api/patients?q=bruno&page=1&limit=10", "", admin), rec)

	if err := h.ListPatients(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var body struct {
		Page  int        `json:"page"`
		Limit int        `json:"limit"`
		Total int        `json:"total"`
		Data  []*Patient `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Total != 1 || len(body.Data) != 1 || body.Data[0].Name != "Bruno Lima" {
		t.Errorf("unexpected page %+v", body)
	}
	if body.Page != 1 || body.Limit != 10 {
		t.Errorf("expected page=1 limit=10, got page=%d limit=%d", body.Page, body.Limit)
	}
}

func TestHandler_UpdatePatient(t *testing.T) {
	h, repo, e := newTestHandler()
	seedPatient(repo, 5, "Old Name", "555")

	rec := httptest.NewRecorder()
	c := e.NewContext(newRequest(http.MethodPut, "/api/patients/5", `{"address":"Rua A, 10"}`, professional), rec)
	c.SetParamNames("id")
	c.SetParamValues("5")

	if err := h.UpdatePatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.patients[5].Address == nil || *repo.patients[5].Address != "Rua A, 10" {
		t.Error("expected address to be updated")
	}
}

func TestHandler_DeletePatient(t *testing.T) {
	h, repo, e := newTestHandler()
	seedPatient(repo, 5, "To Delete", "555")

	rec := httptest.NewRecorder()
	c := e.NewContext(newRequest(http.MethodDelete, "/api/patients/5", "", admin), rec)
	c.SetParamNames("id")
	c.SetParamValues("5")

	if err := h.DeletePatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
}

func TestHandler_LinkCaregiver(t *testing.T) {
	h, repo, e := newTestHandler()
	seedPatient(repo, 42, "Linked Patient", "42")

	rec := httptest.NewRecorder()
	c := e.NewContext(newRequest(http.MethodPost, "/api/patients/42/caregivers", `{"caregiver_user_id":9,"degree":"son"}`, admin), rec)
	c.SetParamNames("id")
	c.SetParamValues("42")

	if err := h.LinkCaregiver(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	c = e.NewContext(newRequest(http.MethodPost, "/api/patients/42/caregivers", `{"caregiver_user_id":9}`, admin), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("42")
	if err := h.LinkCaregiver(c); !errors.Is(err, apperr.Conflict("")) {
		t.Errorf("expected CONFLICT on duplicate link, got %v", err)
	}
}
