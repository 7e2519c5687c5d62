package validate

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/clinicrecords/api/internal/platform/apperr"
)

func newBindContext(body string) echo.Context {
	e := echo.New()
	e.Validator = New()
	req := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestBind(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"cancellation_reason":"patient request"}`, false},
		{"too short", `{"cancellation_reason":"x"}`, true},
		{"missing", `{}`, true},
		{"malformed", `{"cancellation_reason":`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var dst cancelBody
			err := Bind(newBindContext(tt.body), &dst)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Bind() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, apperr.Validation("", nil)) {
				t.Errorf("expected VALIDATION_ERROR, got %v", err)
			}
		})
	}
}

func TestParamID(t *testing.T) {
	tests := []struct {
		value   string
		want    int64
		wantErr bool
	}{
		{"42", 42, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			c := newBindContext("")
			c.SetParamNames("id")
			c.SetParamValues(tt.value)
			got, err := ParamID(c, "id")
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParamID() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParamID() = %d, want %d", got, tt.want)
			}
		})
	}
}
