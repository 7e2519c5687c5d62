package validate

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/clinicrecords/api/internal/platform/apperr"
)

// Bind decodes the request into dst and runs the echo validator on it.
// Decoding failures become VALIDATION_ERROR.
func Bind(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return appErr
		}
		return apperr.Validation("malformed request body", nil)
	}
	if err := c.Validate(dst); err != nil {
		return err
	}
	return nil
}

// ParamID parses a positive int64 path parameter.
func ParamID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid "+name, []FieldError{{Field: name, Rule: "gt", Message: "must be a positive integer"}})
	}
	return id, nil
}
