package clinical

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinicrecords/api/internal/platform/audit"
	"github.com/clinicrecords/api/internal/platform/auth"
	"github.com/clinicrecords/api/internal/platform/middleware"
	"github.com/clinicrecords/api/internal/platform/validate"
)

type Handler struct {
	svc   *Service
	audit audit.Recorder
}

func NewHandler(svc *Service, rec audit.Recorder) *Handler {
	return &Handler{svc: svc, audit: rec}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	notes := api.Group("/clinical-notes")
	notes.POST("", h.CreateNote, middleware.Audit(h.audit, "clinical_note", ""))
	notes.GET("/patient/:patient_id", h.ListNotes, middleware.Audit(h.audit, "clinical_note", "patient_id"))

	rx := api.Group("/prescriptions")
	rx.POST("", h.CreatePrescription, middleware.Audit(h.audit, "prescription", ""))
	rx.GET("/patient/:patient_id", h.ListPrescriptions, middleware.Audit(h.audit, "prescription", "patient_id"))
}

func (h *Handler) CreateNote(c echo.Context) error {
	caller, err := auth.Caller(c.Request().Context())
	if err != nil {
		return err
	}
	var req CreateNoteRequest
	if err := validate.Bind(c, &req); err != nil {
		return err
	}
	n, err := h.svc.CreateNote(c.Request().Context(), caller, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, n)
}

func (h *Handler) ListNotes(c echo.Context) error {
	caller, err := auth.Caller(c.Request().Context())
	if err != nil {
		return err
	}
	patientID, err := validate.ParamID(c, "patient_id")
	if err != nil {
		return err
	}
	notes, err := h.svc.ListNotesByPatient(c.Request().Context(), caller, patientID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, notes)
}

func (h *Handler) CreatePrescription(c echo.Context) error {
	caller, err := auth.Caller(c.Request().Context())
	if err != nil {
		return err
	}
	var req CreatePrescriptionRequest
	if err := validate.Bind(c, &req); err != nil {
		return err
	}
	rx, err := h.svc.CreatePrescription(c.Request().Context(), caller, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, rx)
}

func (h *Handler) ListPrescriptions(c echo.Context) error {
	caller, err := auth.Caller(c.Request().Context())
	if err != nil {
		return err
	}
	patientID, err := validate.ParamID(c, "patient_id")
	if err != nil {
		return err
	}
	rxs, err := h.svc.ListPrescriptionsByPatient(c.Request().Context(), caller, patientID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rxs)
}
