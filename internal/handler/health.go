package handler // declare the package name; contains HTTP handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// PingFunc checks that a backing store answers.
type PingFunc func(ctx context.Context) error

// HealthHandler reports liveness and store readiness.
type HealthHandler struct {
	Mongo PingFunc
	MySQL PingFunc
}

// Liveness is a simple health-check endpoint used by load balancers. It
// returns a plain text "ok" without touching any store.
func Liveness(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

type healthResp struct {
	OK    bool `json:"ok"`
	Mongo bool `json:"mongo"`
	MySQL bool `json:"mysql"`
}

// Health pings both stores and answers 503 when either is down.
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	res := healthResp{
		Mongo: ping(ctx, h.Mongo),
		MySQL: ping(ctx, h.MySQL),
	}
	res.OK = res.Mongo && res.MySQL
	status := http.StatusOK
	if !res.OK {
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, res)
}

func ping(ctx context.Context, fn PingFunc) bool {
	return fn != nil && fn(ctx) == nil
}
