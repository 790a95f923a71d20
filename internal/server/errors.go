package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// NotFoundJSON is the echo error handler: every error that escapes a handler,
// unknown routes included, comes back as an ErrorResponse body instead of
// echo's default shape.
func NotFoundJSON() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			_ = c.JSON(he.Code, ErrorResponse{
				Error: http.StatusText(he.Code),
				Code:  he.Code,
			})
			return
		}

		_ = c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "internal server error",
			Code:  http.StatusInternalServerError,
		})
	}
}
