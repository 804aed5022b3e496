package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/taskboard/internal/service"
)

// ListLogs: GET /cards/:id/logs?page&limit, newest entry first.
func (h *CardHandler) ListLogs(c echo.Context) error {
	var in service.PageInput
	if err := bindPage(c, &in.Page, &in.Limit).BindError(); err != nil {
		return queryErr(err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	res, err := h.Cards.ListAuditLog(ctx, c.Param("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}
