package router // package router defines how HTTP routes are registered for the API

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/taskboard/internal/handler"
	"github.com/iliyamo/taskboard/internal/middleware"
)

// Deps bundles everything the router needs to mount the API.
type Deps struct {
	Logger    *slog.Logger
	Auth      *handler.AuthHandler
	Cards     *handler.CardHandler
	Health    *handler.HealthHandler
	Verifier  middleware.TokenVerifier
	AuthLimit echo.MiddlewareFunc // stacked on /auth
	APILimit  echo.MiddlewareFunc // applied to every route
}

// New builds an Echo instance with the global middleware chain, the error
// envelope and every route registered.
func New(d Deps) *echo.Echo {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ErrorHandler(d.Logger)

	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: func() string { return uuid.NewString() },
	}))
	e.Use(requestLogger(d.Logger))
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(echomw.Secure())
	e.Use(echomw.BodyLimit("1M"))
	e.Use(orNoop(d.APILimit))

	RegisterRoutes(e, d.Health)
	RegisterAuth(e, d.Auth, d.Verifier, d.AuthLimit)
	RegisterCards(e, d.Cards, d.Verifier)
	return e
}

// RegisterRoutes registers routes that do not require authentication:
// liveness and store readiness.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/healthz", handler.Liveness)
	if h != nil {
		e.GET("/health", h.Health)
	}
}

// RegisterAuth mounts the /auth group behind its own, stricter limiter.
// Register, login, refresh and logout are public; /auth/me needs an
// access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, v middleware.TokenVerifier, limit echo.MiddlewareFunc) {
	g := e.Group("/auth", orNoop(limit))
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)
	g.GET("/me", a.Me, middleware.JWTAuth(v))
}

// RegisterCards mounts the /cards group. Every route requires a valid
// access token.
func RegisterCards(e *echo.Echo, h *handler.CardHandler, v middleware.TokenVerifier) {
	g := e.Group("/cards", middleware.JWTAuth(v))
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/archive", h.Archive)
	g.POST("/:id/unarchive", h.Unarchive)

	g.GET("/:id/comments", h.ListComments)
	g.POST("/:id/comments", h.AddComment)
	g.PATCH("/:id/comments/:commentId", h.UpdateComment)
	g.DELETE("/:id/comments/:commentId", h.DeleteComment)

	g.GET("/:id/logs", h.ListLogs)
}

func orNoop(mw echo.MiddlewareFunc) echo.MiddlewareFunc {
	if mw == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return mw
}

// requestLogger emits one structured line per request.
func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"request_id", v.RequestID,
				"remote_ip", v.RemoteIP,
			}
			if v.Error != nil {
				attrs = append(attrs, "err", v.Error)
			}
			logger.Info("request", attrs...)
			return nil
		},
	})
}
