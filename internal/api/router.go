package api

import (
	"context"
	"net"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/carelink/telemedicine/internal/api/handler"
	"github.com/carelink/telemedicine/internal/api/middleware"
	"github.com/carelink/telemedicine/internal/core/domain"
	"github.com/carelink/telemedicine/internal/core/ports"
)

// Deps is everything the HTTP layer needs from main.
type Deps struct {
	JWTSecret string
	Logger    zerolog.Logger

	Auth          ports.AuthService
	Appointments  ports.AppointmentService
	Prescriptions ports.PrescriptionService
	Chat          ports.ChatService
	Dashboards    ports.DashboardService
	Availability  ports.AvailabilityService

	// RateLimiter guards login and signup. Nil disables limiting.
	RateLimiter *middleware.RateLimiter
	// Health lists the backends checked by /health/ready.
	Health map[string]handler.Pinger
	// Registerer receives the echo request metrics. Nil means the default
	// registry, which is also what /metrics serves.
	Registerer prometheus.Registerer
	// BaseContext, when set, parents every request context. Cancelling it
	// ends open chat streams, which Shutdown would otherwise wait for.
	BaseContext context.Context
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)
	if d.BaseContext != nil {
		base := d.BaseContext
		e.Server.BaseContext = func(net.Listener) context.Context { return base }
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Logger))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "http",
		Registerer: d.Registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Operational routes (no auth required) ---
	health := handler.NewHealthHandler(d.Health)
	e.GET("/health", health.Liveness)
	e.GET("/health/ready", health.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	authn := middleware.Auth(d.JWTSecret)
	limit := func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	if d.RateLimiter != nil {
		limit = middleware.RateLimit(d.RateLimiter)
	}

	v1 := e.Group("/v1")

	// --- Auth & session ---
	authHandler := handler.NewAuthHandler(d.Auth)
	v1.POST("/auth/signup", authHandler.Signup, limit)
	v1.POST("/auth/login", authHandler.Login, limit)
	v1.POST("/auth/logout", authHandler.Logout, authn)
	v1.GET("/session", authHandler.Session)

	// --- Doctors ---
	doctors := handler.NewDoctorHandler(d.Appointments, d.Availability)
	v1.GET("/doctors", doctors.List, authn)
	v1.PUT("/doctors/me/availability", doctors.SetAvailability, authn, middleware.RBAC(domain.RoleDoctor))
	v1.GET("/doctors/:id/availability", doctors.GetAvailability, authn)

	// --- Dashboards (role checked by the service, 401 + redirect on mismatch) ---
	dashboards := handler.NewDashboardHandler(d.Dashboards)
	dash := v1.Group("/dashboard", authn)
	dash.GET("/patient", dashboards.Patient)
	dash.GET("/doctor", dashboards.Doctor)
	dash.GET("/admin", dashboards.Admin)

	// --- Appointments ---
	appointments := handler.NewAppointmentHandler(d.Appointments, d.Prescriptions)
	appts := v1.Group("/appointments", authn)
	appts.POST("", appointments.Book, middleware.RBAC(domain.RolePatient))
	appts.PATCH("/:id/status", appointments.UpdateStatus, middleware.RBAC(domain.RoleDoctor, domain.RoleAdmin))
	appts.POST("/:id/prescriptions", appointments.IssuePrescription, middleware.RBAC(domain.RoleDoctor))

	// --- Chat ---
	chat := handler.NewChatHandler(d.Chat)
	participants := middleware.RBAC(domain.RolePatient, domain.RoleDoctor)
	appts.GET("/:id/messages", chat.List, participants)
	appts.POST("/:id/messages", chat.Send, participants)
	appts.GET("/:id/messages/stream", chat.Stream, participants)

	return e
}

// requestLogger writes one zerolog entry per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			switch {
			case v.Status >= 500:
				ev = log.Error().Err(v.Error)
			case v.Error != nil:
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
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
