package notification

import (
	"net/http"

	"github.com/labstack/echo/v4"

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
	g := api.Group("/notifications")
	g.POST("", h.Create, middleware.Audit(h.audit, "notification", ""))
	g.GET("/patient/:patient_id", h.ListByPatient, middleware.Audit(h.audit, "notification", "patient_id"))
}

func (h *Handler) Create(c echo.Context) error {
	caller, err := auth.Caller(c.Request().Context())
	if err != nil {
		return err
	}
	var req CreateRequest
	if err := validate.Bind(c, &req); err != nil {
		return err
	}
	n, err := h.svc.Create(c.Request().Context(), caller, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, n)
}

func (h *Handler) ListByPatient(c echo.Context) error {
	caller, err := auth.Caller(c.Request().Context())
	if err != nil {
		return err
	}
	patientID, err := validate.ParamID(c, "patient_id")
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListByPatient(c.Request().Context(), caller, patientID, pg.Limit, pg.Offset())
	if err != nil {
		return err
	}
	if items == nil {
		items = []*Notification{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}
