package apperr

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

type errorResponse struct {
	Error string `json:"error"`
	Title string `json:"title"`
	Field string `json:"field,omitempty"`
}

// GlobalErrorHandler renders every handler error as {"error", "title"} JSON.
// Validation errors become 400, echo.HTTPError keeps its code and anything else is a logged 500.
func GlobalErrorHandler() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := http.StatusInternalServerError, errorResponse{Error: "internal server error"}

		var ve *ValidationError
		var he *echo.HTTPError
		switch {
		case errors.As(err, &ve):
			code = http.StatusBadRequest
			body.Error = ve.Message
			body.Title = "validation error"
			body.Field = ve.Field
		case errors.As(err, &he):
			code = he.Code
			body.Error = fmt.Sprintf("%v", he.Message)
		default:
			slog.Error("Unhandled error",
				"error", err,
				"method", c.Request().Method,
				"path", c.Path(),
			)
		}
		if body.Title == "" {
			body.Title = http.StatusText(code)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, body)
		}
		if err != nil {
			slog.Error("Failed to write error response", "error", err)
		}
	}
}
