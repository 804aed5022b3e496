package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/taskboard/internal/service"
	"github.com/iliyamo/taskboard/internal/validation"
)

// errorBody is the envelope of every error response.
type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// classify maps an error returned by a handler to its HTTP status and
// body. It is the single place where service errors meet status codes.
func classify(err error) (int, errorBody) {
	var verr *validation.Error
	var herr *echo.HTTPError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, errorBody{Error: "validation failed", Fields: verr.Fields}
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized, errorBody{Error: "unauthorized"}
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, errorBody{Error: "forbidden"}
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, errorBody{Error: "not found"}
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, errorBody{Error: "email already registered"}
	case errors.As(err, &herr) && herr.Code < http.StatusInternalServerError:
		// Routing, method and body-limit errors raised by Echo itself.
		return herr.Code, errorBody{Error: strings.ToLower(http.StatusText(herr.Code))}
	}
	return http.StatusInternalServerError, errorBody{Error: "internal server error"}
}

// ErrorHandler renders every error in the {"error": ...} envelope. Only
// internal failures are logged, with the request id, and their details
// never reach the client.
func ErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, body := classify(err)
		if status == http.StatusInternalServerError {
			logger.Error("request failed",
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
				"method", c.Request().Method,
				"path", c.Path(),
				"err", err,
			)
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, body)
		}
		if werr != nil {
			logger.Error("write error response", "err", werr)
		}
	}
}
