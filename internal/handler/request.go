package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/taskboard/internal/middleware"
	"github.com/iliyamo/taskboard/internal/model"
	"github.com/iliyamo/taskboard/internal/service"
	"github.com/iliyamo/taskboard/internal/validation"
)

// storeTimeout bounds the store work done on behalf of one request.
const storeTimeout = 5 * time.Second

func requestCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), storeTimeout)
}

// actor returns the authenticated caller together with the client IP.
func actor(c echo.Context) (model.Actor, error) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return model.Actor{}, service.ErrUnauthorized
	}
	return model.Actor{Identity: id, IP: c.RealIP()}, nil
}

// bindBody decodes the JSON body into dst. A malformed body is reported
// as a validation failure on the "body" field.
func bindBody(c echo.Context, dst any) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, dst); err != nil {
		var herr *echo.HTTPError
		if errors.As(err, &herr) && herr.Code == http.StatusBadRequest {
			return validation.Field("body", "must be a valid JSON object")
		}
		return err
	}
	return nil
}

// bindPage reads page and limit from the query string, keeping the
// defaults when they are absent.
func bindPage(c echo.Context, page, limit *int) *echo.ValueBinder {
	*page, *limit = service.DefaultPage, service.DefaultLimit
	return echo.QueryParamsBinder(c).Int("page", page).Int("limit", limit)
}

// queryErr turns a query binding failure into a validation failure on
// the offending parameter.
func queryErr(err error) error {
	var berr *echo.BindingError
	if errors.As(err, &berr) {
		return validation.Field(berr.Field, "is invalid")
	}
	return err
}
