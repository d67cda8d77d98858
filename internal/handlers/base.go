package handlers

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/pkg/repositories"
)

// SuccessResponse returns a 200 OK with data
func SuccessResponse(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, data)
}

// CreatedResponse returns a 201 Created with data
func CreatedResponse(c echo.Context, data any) error {
	return c.JSON(http.StatusCreated, data)
}

// BadRequest returns a 400 Bad Request error
func BadRequest(message string) error {
	return httperror.NewHTTPError(http.StatusBadRequest, message)
}

// ParseLimit reads the limit query parameter. Absent or empty means the
// default; anything that is not an integer is a 400. Negative values pass
// through unchanged.
func ParseLimit(c echo.Context) (int, error) {
	limit := repositories.DefaultLimit
	if err := echo.QueryParamsBinder(c).Int("limit", &limit).BindError(); err != nil {
		return 0, httperror.NewHTTPError(http.StatusBadRequest, "limit must be an integer").
			AddMetaValue("limit", c.QueryParam("limit"))
	}
	return limit, nil
}
