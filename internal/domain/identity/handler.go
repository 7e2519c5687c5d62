package identity

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
	patients := api.Group("/patients")
	patients.POST("", h.CreatePatient, middleware.Audit(h.audit, "patient", ""))
	patients.GET("", h.ListPatients, middleware.Audit(h.audit, "patient", ""))
	patients.GET("/:id", h.GetPatient, middleware.Audit(h.audit, "patient", "id"))
	patients.PUT("/:id", h.UpdatePatient, middleware.Audit(h.audit, "patient", "id"))
	patients.DELETE("/:id", h.DeletePatient, middleware.Audit(h.audit, "patient", "id"))

	patients.POST("/:id/caregivers", h.LinkCaregiver, middleware.Audit(h.audit, "caregiver_link", "id"))
	patients.GET("/:id/caregivers", h.ListCaregivers, middleware.Audit(h.audit, "caregiver_link", "id"))
}

// -- Patient Handlers --

func (h *Handler) CreatePatient(c echo.Context) error {
	caller, err := auth.Caller(c.Request().Context())
	if err != nil {
		return err
	}
	var req CreatePatientRequest
	if err := validate.Bind(c, &req); err != nil {
		return err
	}
	p, err := h.svc.CreatePatient(c.Request().Context(), caller, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPatient(c echo.Context) error {
	caller, err := auth.Caller(c.Request().Context())
	if err != nil {
		return err
	}
	id, err := validate.ParamID(c, "id")
	if err != nil {
		return err
	}
	p, err := h.svc.GetPatient(c.Request().Context(), caller, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPatients(c echo.Context) error {
	caller, err := auth.Caller(c.Request().Context())
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	patients, total, err := h.svc.ListPatients(c.Request().Context(), caller, c.QueryParam("q"), pg.Limit, pg.Offset())
	if err != nil {
		return err
	}
	if patients == nil {
		patients = []*Patient{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(patients, total, pg))
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	caller, err := auth.Caller(c.Request().Context())
	if err != nil {
		return err
	}
	id, err := validate.ParamID(c, "id")
	if err != nil {
		return err
	}
	var req UpdatePatientRequest
	if err := validate.Bind(c, &req); err != nil {
		return err
	}
	p, err := h.svc.UpdatePatient(c.Request().Context(), caller, id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) DeletePatient(c echo.Context) error {
	caller, err := auth.Caller(c.Request().Context())
	if err != nil {
		return err
	}
	id, err := validate.ParamID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeletePatient(c.Request().Context(), caller, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Caregiver Link Handlers --

func (h *Handler) LinkCaregiver(c echo.Context) error {
	caller, err := auth.Caller(c.Request().Context())
	if err != nil {
		return err
	}
	patientID, err := validate.ParamID(c, "id")
	if err != nil {
		return err
	}
	var req CreateCaregiverLinkRequest
	if err := validate.Bind(c, &req); err != nil {
		return err
	}
	l, err := h.svc.LinkCaregiver(c.Request().Context(), caller, patientID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, l)
}

func (h *Handler) ListCaregivers(c echo.Context) error {
	caller, err := auth.Caller(c.Request().Context())
	if err != nil {
		return err
	}
	patientID, err := validate.ParamID(c, "id")
	if err != nil {
		return err
	}
	links, err := h.svc.ListCaregivers(c.Request().Context(), caller, patientID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, links)
}
