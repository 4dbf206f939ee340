package api

import (
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/carepoint/scheduling-api/internal/api/handler"
	"github.com/carepoint/scheduling-api/internal/api/middleware"
	"github.com/carepoint/scheduling-api/internal/core/domain"
	"github.com/carepoint/scheduling-api/internal/infrastructure/http/handlers"
)

const (
	defaultBodyLimit = "1M"
	uploadBodyLimit  = "6M"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Auth         *handler.AuthHandler
	Users        *handler.UserHandler
	Appointments *handler.AppointmentHandler
	Messages     *handler.MessageHandler
	Reminders    *handler.ReminderHandler
	Health       *handlers.HealthHandler
	Readiness    *handlers.HealthDependenciesHandler
}

type Options struct {
	Tokens             middleware.TokenParser
	AuthRateLimiter    *middleware.RateLimiter
	CORSAllowedOrigins []string
	Log                zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(h Handlers, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(opts.Log)

	origins := opts.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(opts.Log))
	e.Use(echoprometheus.NewMiddleware("scheduling"))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: origins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(echomiddleware.BodyLimitWithConfig(echomiddleware.BodyLimitConfig{
		Limit: defaultBodyLimit,
		Skipper: func(c echo.Context) bool {
			return strings.HasSuffix(c.Path(), "/profile-picture")
		},
	}))

	authn := middleware.Auth(opts.Tokens)
	adminOnly := middleware.RequireRole(domain.RoleAdmin)

	// --- Health probes and metrics (no auth required) ---
	e.GET("/health", h.Health.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", h.Readiness.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	// --- Auth routes ---
	auth := e.Group("/auth")
	public := auth.Group("")
	if opts.AuthRateLimiter != nil {
		public.Use(middleware.RateLimit(opts.AuthRateLimiter))
	}
	public.POST("/register", h.Auth.Register)
	public.POST("/login", h.Auth.Login)
	public.POST("/refresh-token", h.Auth.RefreshToken)
	public.POST("/forgot-password", h.Auth.ForgotPassword)
	public.POST("/reset-password", h.Auth.ResetPassword)
	auth.POST("/logout", h.Auth.Logout, authn)
	auth.GET("/me", h.Auth.Me, authn)

	// --- Users ---
	users := e.Group("/users", authn)
	users.GET("", h.Users.List, adminOnly)
	users.GET("/doctors", h.Users.ListDoctors)
	users.GET("/:id", h.Users.Get)
	users.POST("", h.Users.Create, adminOnly)
	users.PUT("/:id", h.Users.Update)
	users.PATCH("/:id/password", h.Users.ChangePassword)
	users.PATCH("/:id/profile-picture", h.Users.UpdateProfilePicture, echomiddleware.BodyLimit(uploadBodyLimit))
	users.DELETE("/:id", h.Users.Delete, adminOnly)

	// --- Appointments ---
	appts := e.Group("/appointments", authn)
	appts.GET("", h.Appointments.List)
	appts.GET("/upcoming", h.Appointments.Upcoming)
	appts.GET("/today", h.Appointments.Today)
	appts.GET("/range", h.Appointments.Range)
	appts.GET("/doctor/:id", h.Appointments.ForDoctor)
	appts.GET("/patient/:id", h.Appointments.ForPatient)
	appts.GET("/:id", h.Appointments.Get)
	appts.POST("", h.Appointments.Create)
	appts.PATCH("/:id", h.Appointments.Update)
	appts.PATCH("/:id/status", h.Appointments.UpdateStatus)
	appts.DELETE("/:id", h.Appointments.Delete)

	// --- Messages ---
	msgs := e.Group("/messages", authn)
	msgs.POST("", h.Messages.Send)
	msgs.GET("/:id", h.Messages.Get)
	msgs.GET("/user/:userId", h.Messages.ForUser)
	msgs.GET("/user/:userId/unread", h.Messages.Unread)
	msgs.GET("/conversation/:userId1/:userId2", h.Messages.Conversation)
	msgs.PATCH("/:id/read", h.Messages.MarkRead)
	msgs.DELETE("/:id", h.Messages.Delete)

	// --- Reminders ---
	rems := e.Group("/reminders", authn)
	rems.POST("", h.Reminders.Create)
	rems.GET("/:id", h.Reminders.Get)
	rems.GET("/user/:userId", h.Reminders.ForUser)
	rems.GET("/user/:userId/unread", h.Reminders.UnreadForUser)
	rems.GET("/appointment/:appointmentId", h.Reminders.ForAppointment)
	rems.PATCH("/:id/read", h.Reminders.MarkRead)
	rems.PATCH("/user/:userId/read-all", h.Reminders.MarkAllRead)
	rems.DELETE("/:id", h.Reminders.Delete)

	return e
}
