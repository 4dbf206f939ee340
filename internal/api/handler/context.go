package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carepoint/scheduling-api/internal/api/middleware"
	"github.com/carepoint/scheduling-api/internal/core/domain"
)

// caller returns the Principal injected by the Auth middleware and fails
// fast before any service call when it is absent.
func caller(c echo.Context) (domain.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return domain.Principal{}, domain.ErrUnauthorized
	}
	return p, nil
}

// bindAndValidate decodes the request body and runs struct validation.
// A decode failure is a 400; a rule failure is a 422 with per-field errors.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if c.Echo().Validator == nil {
		return nil
	}
	return c.Validate(req)
}
