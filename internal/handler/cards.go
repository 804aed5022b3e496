package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/taskboard/internal/service"
)

// CardHandler exposes cards, their comments and their audit log. Every
// route sits behind JWTAuth.
type CardHandler struct {
	Cards *service.CardService
}

func NewCardHandler(s *service.CardService) *CardHandler {
	if s == nil {
		panic("nil card service passed to NewCardHandler")
	}
	return &CardHandler{Cards: s}
}

type itemsResp[T any] struct {
	Items []T `json:"items"`
}

// List: GET /cards?page&limit&archived
func (h *CardHandler) List(c echo.Context) error {
	var in service.ListCardsInput
	err := bindPage(c, &in.Page, &in.Limit).
		Bool("archived", &in.Archived).
		BindError()
	if err != nil {
		return queryErr(err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	res, err := h.Cards.List(ctx, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// Create: POST /cards
func (h *CardHandler) Create(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var in service.CreateCardInput
	if err := bindBody(c, &in); err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	card, err := h.Cards.Create(ctx, a, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, card)
}

// Get: GET /cards/:id
func (h *CardHandler) Get(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	card, err := h.Cards.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, card)
}

// Update: PATCH /cards/:id
func (h *CardHandler) Update(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var in service.UpdateCardInput
	if err := bindBody(c, &in); err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	card, err := h.Cards.Update(ctx, a, c.Param("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, card)
}

// Delete: DELETE /cards/:id, cascading to the card's comments.
func (h *CardHandler) Delete(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Cards.Delete(ctx, a, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Archive: POST /cards/:id/archive
func (h *CardHandler) Archive(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	card, err := h.Cards.Archive(ctx, a, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, card)
}

// Unarchive: POST /cards/:id/unarchive
func (h *CardHandler) Unarchive(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	card, err := h.Cards.Unarchive(ctx, a, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, card)
}
