package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/clinicrecords/api/internal/platform/audit"
	"github.com/clinicrecords/api/internal/platform/auth"
)

// Audit records one entry per request on the routes it wraps. kind names the
// resource family and idParam, when non-empty, is the path parameter holding
// the resource id. Requests rejected before reaching the handler (401, 403)
// are recorded too. Recording never affects the response.
func Audit(rec audit.Recorder, kind, idParam string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if rec == nil {
				return err
			}

			req := c.Request()
			entry := audit.Entry{
				Action:    httpMethodToAction(req.Method),
				Route:     req.Method + " " + c.Path(),
				CreatedAt: time.Now().UTC(),
				Status:    responseStatus(c, err),
			}
			if kind != "" {
				k := kind
				entry.ResourceKind = &k
			}
			if idParam != "" {
				if id, perr := strconv.ParseInt(c.Param(idParam), 10, 64); perr == nil {
					entry.ResourceID = &id
				}
			}
			if id, ok := auth.IdentityFromContext(req.Context()); ok {
				uid := id.UserID
				entry.UserID = &uid
			}
			if ip := c.RealIP(); ip != "" {
				entry.IP = &ip
			}
			entry.RequestID, _ = c.Get("request_id").(string)

			rec.Record(entry)
			return err
		}
	}
}

// responseStatus reports the status the client will see. When the handler
// returned an error the response is not written yet.
func responseStatus(c echo.Context, err error) int {
	if err == nil {
		return c.Response().Status
	}
	return classify(err).Status
}

func httpMethodToAction(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}
