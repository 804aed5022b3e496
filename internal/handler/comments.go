package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/taskboard/internal/model"
	"github.com/iliyamo/taskboard/internal/service"
)

// ListComments: GET /cards/:id/comments
func (h *CardHandler) ListComments(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	items, err := h.Cards.ListComments(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, itemsResp[model.Comment]{Items: items})
}

// AddComment: POST /cards/:id/comments
func (h *CardHandler) AddComment(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var in service.CommentInput
	if err := bindBody(c, &in); err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	com, err := h.Cards.AddComment(ctx, a, c.Param("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, com)
}

// UpdateComment: PATCH /cards/:id/comments/:commentId, author only.
func (h *CardHandler) UpdateComment(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var in service.CommentInput
	if err := bindBody(c, &in); err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	com, err := h.Cards.UpdateComment(ctx, a, c.Param("id"), c.Param("commentId"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, com)
}

// DeleteComment: DELETE /cards/:id/comments/:commentId, author only.
func (h *CardHandler) DeleteComment(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Cards.DeleteComment(ctx, a, c.Param("id"), c.Param("commentId")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
