package scheduling

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/clinicrecords/api/internal/platform/apperr"
	"github.com/clinicrecords/api/internal/platform/audit"
	"github.com/clinicrecords/api/internal/platform/auth"
	"github.com/clinicrecords/api/internal/platform/middleware"
	"github.com/clinicrecords/api/internal/platform/validate"
	"github.com/clinicrecords/api/pkg/pagination"
)

type Handler struct {
	svc   *Service
	audit audit.Recorder
}

func NewHandler(svc *Service, rec audit.Recorder) *Handler {
	return &Handler{svc: svc, audit: rec}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/appointments")
	g.POST("", h.CreateAppointment, middleware.Audit(h.audit, "appointment", ""))
	g.GET("", h.ListAppointments, middleware.Audit(h.audit, "appointment", ""))
	g.GET("/:id", h.GetAppointment, middleware.Audit(h.audit, "appointment", "id"))
	g.PATCH("/:id/cancel", h.CancelAppointment, middleware.Audit(h.audit, "appointment", "id"))
	g.PATCH("/:id/complete", h.CompleteAppointment, middleware.Audit(h.audit, "appointment", "id"))
}

func (h *Handler) CreateAppointment(c echo.Context) error {
	caller, err := auth.Caller(c.Request().Context())
	if err != nil {
		return err
	}
	var req CreateAppointmentRequest
	if err := validate.Bind(c, &req); err != nil {
		return err
	}
	a, err := h.svc.CreateAppointment(c.Request().Context(), caller, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) GetAppointment(c echo.Context) error {
	caller, err := auth.Caller(c.Request().Context())
	if err != nil {
		return err
	}
	id, err := validate.ParamID(c, "id")
	if err != nil {
		return err
	}
	a, err := h.svc.GetAppointment(c.Request().Context(), caller, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) ListAppointments(c echo.Context) error {
	caller, err := auth.Caller(c.Request().Context())
	if err != nil {
		return err
	}
	f, err := filterFromQuery(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	appts, total, err := h.svc.ListAppointments(c.Request().Context(), caller, f, pg.Limit, pg.Offset())
	if err != nil {
		return err
	}
	if appts == nil {
		appts = []*Appointment{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(appts, total, pg))
}

func (h *Handler) CancelAppointment(c echo.Context) error {
	caller, err := auth.Caller(c.Request().Context())
	if err != nil {
		return err
	}
	id, err := validate.ParamID(c, "id")
	if err != nil {
		return err
	}
	var req CancelAppointmentRequest
	if err := validate.Bind(c, &req); err != nil {
		return err
	}
	a, err := h.svc.CancelAppointment(c.Request().Context(), caller, id, req.CancellationReason)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) CompleteAppointment(c echo.Context) error {
	caller, err := auth.Caller(c.Request().Context())
	if err != nil {
		return err
	}
	id, err := validate.ParamID(c, "id")
	if err != nil {
		return err
	}
	a, err := h.svc.CompleteAppointment(c.Request().Context(), caller, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func filterFromQuery(c echo.Context) (Filter, error) {
	var f Filter
	for name, dst := range map[string]**int64{"patient_id": &f.PatientID, "professional_id": &f.ProfessionalID} {
		v := c.QueryParam(name)
		if v == "" {
			continue
		}
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return Filter{}, apperr.Validation("invalid "+name, nil)
		}
		*dst = &id
	}
	if v := c.QueryParam("status"); v != "" {
		st := Status(v)
		if !st.Valid() {
			return Filter{}, apperr.Validation("status must be one of SCHEDULED, COMPLETED, CANCELLED", nil)
		}
		f.Status = &st
	}
	return f, nil
}
