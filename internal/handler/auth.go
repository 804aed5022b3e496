package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/taskboard/internal/service"
)

// AuthHandler exposes registration, login and token exchange.
type AuthHandler struct {
	Auth *service.AuthService
}

func NewAuthHandler(a *service.AuthService) *AuthHandler {
	if a == nil {
		panic("nil auth service passed to NewAuthHandler")
	}
	return &AuthHandler{Auth: a}
}

// ----- DTOs -----

type refreshReq struct {
	Refresh string `json:"refresh"`
}

type userResp struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type meResp struct {
	UID  uint64 `json:"uid"`
	Role string `json:"role"`
}

// Register: create a user; no tokens are issued.
func (h *AuthHandler) Register(c echo.Context) error {
	var req service.RegisterInput
	if err := bindBody(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.Auth.Register(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, userResp{ID: u.ID, Email: u.Email, Role: string(u.Role)})
}

// Login: verify credentials and return an access/refresh pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req service.LoginInput
	if err := bindBody(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	res, err := h.Auth.Login(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// Refresh: exchange a refresh token for a new access token. The refresh
// token is not rotated.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := bindBody(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	res, err := h.Auth.Refresh(ctx, req.Refresh)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// Logout: revoke a refresh token.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	if err := bindBody(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Auth.Logout(ctx, req.Refresh); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Me: echo back the identity carried by the access token.
func (h *AuthHandler) Me(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, meResp{UID: a.UserID, Role: string(a.Role)})
}
