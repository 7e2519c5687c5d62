package scheduling

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

func newTestHandler() (*Handler, *Service, *echo.Echo) {
	svc, _ := newTestService()
	e := echo.New()
	e.Validator = validate.New()
	return NewHandler(svc, nil), svc, e
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

func TestHandler_CreateAppointment(t *testing.T) {
	h, _, e := newTestHandler()
	body := `{"patient_id":42,"professional_id":2,"scheduled_at":"2026-03-10T11:00:00-03:00","reason":"checkup"}`

	rec := httptest.NewRecorder()
	c := e.NewContext(newRequest(http.MethodPost, "/api/appointments", body, professional), rec)
	if err := h.CreateAppointment(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var a Appointment
	if err := json.Unmarshal(rec.Body.Bytes(), &a); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !a.ScheduledAt.Equal(slot) || a.Status != StatusScheduled {
		t.Errorf("unexpected appointment %+v", a)
	}

	c = e.NewContext(newRequest(http.MethodPost, "/api/appointments", body, professional), httptest.NewRecorder())
	if err := h.CreateAppointment(c); !errors.Is(err, apperr.Conflict("")) {
		t.Errorf("expected CONFLICT for the same slot, got %v", err)
	}
}

func TestHandler_CreateAppointment_Validation(t *testing.T) {
	h, _, e := newTestHandler()

	c := e.NewContext(newRequest(http.MethodPost, "/api/appointments", `{"professional_id":2}`, professional), httptest.NewRecorder())
	if err := h.CreateAppointment(c); !errors.Is(err, apperr.Validation("", nil)) {
		t.Errorf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestHandler_CancelAppointment(t *testing.T) {
	h, svc, e := newTestHandler()
	a := book(t, svc, professional, 42, 2, slot)

	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{"short reason", `{"cancellation_reason":"x"}`, apperr.Validation("", nil)},
		{"ok", `{"cancellation_reason":"patient request"}`, nil},
		{"already cancelled", `{"cancellation_reason":"patient request"}`, apperr.Conflict("")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(newRequest(http.MethodPatch, "/api/appointments/1/cancel", tt.body, professional), rec)
			c.SetParamNames("id")
			c.SetParamValues("1")

			err := h.CancelAppointment(c)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				var got Appointment
				if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
					t.Fatalf("invalid JSON: %v", err)
				}
				if got.ID != a.ID || got.Status != StatusCancelled {
					t.Errorf("unexpected appointment %+v", got)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestHandler_ListAppointments(t *testing.T) {
	h, svc, e := newTestHandler()
	book(t, svc, professional, 42, 2, slot)
	book(t, svc, professional, 7, 3, slot)

	rec := httptest.NewRecorder()
	c := e.NewContext(newRequest(http.MethodGet, "/api/appointments?professional_id=3&status=SCHEDULED", "", admin), rec)
	if err := h.ListAppointments(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body struct {
		Total int            `json:"total"`
		Data  []*Appointment `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Total != 1 || len(body.Data) != 1 || body.Data[0].PatientID != 7 {
		t.Errorf("unexpected page %+v", body)
	}
}

func TestHandler_ListAppointments_BadQuery(t *testing.T) {
	h, _, e := newTestHandler()

	for _, q := range []string{"patient_id=abc", "professional_id=-1", "status=DONE"} {
		c := e.NewContext(newRequest(http.MethodGet, "/api/appointments?"+q, "", admin), httptest.NewRecorder())
		if err := h.ListAppointments(c); !errors.Is(err, apperr.Validation("", nil)) {
			t.Errorf("%s: expected VALIDATION_ERROR, got %v", q, err)
		}
	}
}

func TestHandler_ListAppointments_CaregiverNeedsPatient(t *testing.T) {
	h, _, e := newTestHandler()

	c := e.NewContext(newRequest(http.MethodGet, "/api/appointments", "", caregiver), httptest.NewRecorder())
	if err := h.ListAppointments(c); !errors.Is(err, apperr.Validation("", nil)) {
		t.Errorf("expected VALIDATION_ERROR, got %v", err)
	}
}
