package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/mern-bugtracker/bug-tracker/docs"
	"github.com/mern-bugtracker/bug-tracker/internal/api/handler"
	"github.com/mern-bugtracker/bug-tracker/internal/api/middleware"
	"github.com/mern-bugtracker/bug-tracker/internal/core/ports"
)

// Dependencies carries everything the router needs. Storage handles never
// reach this package; they are wrapped in services and ping checks by main.
type Dependencies struct {
	Bugs     ports.BugService
	Activity ports.ActivityService
	Users    ports.UserService
	// Readiness maps dependency names to ping checks for /api/health/ready.
	Readiness map[string]handler.PingFunc

	Log         zerolog.Logger
	JWTSecret   string
	RequireAuth bool
	Development bool
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log, deps.Development)

	// Each router gets its own registry for HTTP metrics so several routers
	// can live in one process (tests).
	reg := prometheus.NewRegistry()

	// --- Global middleware ---
	e.Pre(echomiddleware.RemoveTrailingSlash())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echomiddleware.CORS())
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "bugtracker",
		Registerer: reg,
	}))

	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: prometheus.Gatherers{prometheus.DefaultGatherer, reg},
	}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// --- Health probes (no auth required) ---
	readiness := handler.NewReadinessHandler(deps.Readiness)
	api.GET("/health", handler.Liveness)
	api.GET("/health/ready", readiness.Readiness)

	// --- Users ---
	users := handler.NewUserHandler(deps.Users)
	api.POST("/users", users.Register)
	if deps.JWTSecret != "" {
		api.POST("/users/login", users.Login)
	}

	// --- Bugs ---
	writeAuth := middleware.OptionalAuth(deps.JWTSecret)
	if deps.RequireAuth {
		writeAuth = middleware.Auth(deps.JWTSecret)
	}

	bugHandler := handler.NewBugHandler(deps.Bugs, deps.Activity)
	bugs := api.Group("/bugs")
	bugs.GET("", bugHandler.List)
	bugs.GET("/:id", bugHandler.Get)
	bugs.GET("/:id/activity", bugHandler.Activity)
	bugs.POST("", bugHandler.Create, writeAuth)
	bugs.PUT("/:id", bugHandler.Update, writeAuth)
	bugs.DELETE("/:id", bugHandler.Delete, writeAuth)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			log.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
