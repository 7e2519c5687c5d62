package account

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
	api.POST("/auth/login", h.Login, middleware.Audit(h.audit, "", ""))
	api.POST("/auth/logout", h.Logout, middleware.Audit(h.audit, "", ""))
	api.GET("/auth/me", h.Me)

	// The audit middleware sits outside RequireRole so denied attempts are
	// recorded.
	users := api.Group("/users")
	admin := auth.RequireRole(auth.RoleAdmin)
	users.POST("", h.CreateUser, middleware.Audit(h.audit, "user", ""), admin)
	users.GET("/:id", h.GetUser, admin)
	users.PATCH("/:id/active", h.SetActive, middleware.Audit(h.audit, "user", "id"), admin)
}

func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := validate.Bind(c, &req); err != nil {
		return err
	}
	resp, err := h.svc.Login(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) Logout(c echo.Context) error {
	id, err := auth.Caller(c.Request().Context())
	if err != nil {
		return err
	}
	h.svc.Logout(c.Request().Context(), id)
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Me(c echo.Context) error {
	id, err := auth.Caller(c.Request().Context())
	if err != nil {
		return err
	}
	u, err := h.svc.GetUser(c.Request().Context(), id.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) CreateUser(c echo.Context) error {
	var req CreateUserRequest
	if err := validate.Bind(c, &req); err != nil {
		return err
	}
	u, err := h.svc.CreateUser(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, u)
}

func (h *Handler) GetUser(c echo.Context) error {
	id, err := validate.ParamID(c, "id")
	if err != nil {
		return err
	}
	u, err := h.svc.GetUser(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) SetActive(c echo.Context) error {
	id, err := validate.ParamID(c, "id")
	if err != nil {
		return err
	}
	var req SetActiveRequest
	if err := validate.Bind(c, &req); err != nil {
		return err
	}
	u, err := h.svc.SetActive(c.Request().Context(), id, *req.Active)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}
