// Package reporting serves aggregate, admin-only views over scheduling data.
package reporting

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/clinicrecords/api/internal/platform/apperr"
	"github.com/clinicrecords/api/internal/platform/audit"
	"github.com/clinicrecords/api/internal/platform/auth"
	"github.com/clinicrecords/api/internal/platform/middleware"
	"github.com/clinicrecords/api/internal/platform/policy"
)

const dateLayout = "2006-01-02"

// AppointmentCounter groups appointments scheduled within [from, to] by
// status. Nil bounds are open.
type AppointmentCounter interface {
	CountAppointmentsByStatus(ctx context.Context, from, to *time.Time) (map[string]int, error)
}

// Period echoes the bounds the report was computed over.
type Period struct {
	From *time.Time `json:"from"`
	To   *time.Time `json:"to"`
}

type AppointmentReport struct {
	Period   Period         `json:"period"`
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
}

type Handler struct {
	counter AppointmentCounter
	policy  *policy.Engine
	audit   audit.Recorder
}

func NewHandler(counter AppointmentCounter, engine *policy.Engine, rec audit.Recorder) *Handler {
	return &Handler{counter: counter, policy: engine, audit: rec}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	reports := api.Group("/reports")
	reports.GET("/appointments", h.Appointments, middleware.Audit(h.audit, "report", ""))
}

// Appointments reports appointment totals per status. from and to accept
// RFC 3339 timestamps or dates; a date-only to covers that whole day.
func (h *Handler) Appointments(c echo.Context) error {
	ctx := c.Request().Context()
	caller, err := auth.Caller(ctx)
	if err != nil {
		return err
	}
	if err := h.policy.Authorize(ctx, caller, policy.Resource{Kind: policy.KindReport}, policy.OpRead); err != nil {
		return err
	}

	from, err := parseBound(c.QueryParam("from"), false)
	if err != nil {
		return apperr.Validation("from must be a date (YYYY-MM-DD) or RFC 3339 timestamp", nil)
	}
	to, err := parseBound(c.QueryParam("to"), true)
	if err != nil {
		return apperr.Validation("to must be a date (YYYY-MM-DD) or RFC 3339 timestamp", nil)
	}
	if from != nil && to != nil && from.After(*to) {
		return apperr.Validation("from must not be after to", nil)
	}

	counts, err := h.counter.CountAppointmentsByStatus(ctx, from, to)
	if err != nil {
		return err
	}
	report := AppointmentReport{Period: Period{From: from, To: to}, ByStatus: counts}
	for _, n := range counts {
		report.Total += n
	}
	return c.JSON(http.StatusOK, report)
}

// parseBound reads an optional query bound. When end is set a date-only
// value becomes the last microsecond of that day, the finest precision
// timestamptz stores.
func parseBound(v string, end bool) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return nil, err
	}
	if end {
		t = t.AddDate(0, 0, 1).Add(-time.Microsecond)
	}
	return &t, nil
}
