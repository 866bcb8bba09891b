// Package api is the reference backend the client is tested against. It
// serves the same paths and error shapes as the production backend over an
// in-memory store.
package api

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/clientx/workspace-client/internal/api/handler"
	"github.com/clientx/workspace-client/internal/api/middleware"
	"github.com/clientx/workspace-client/internal/core/domain"
	"github.com/clientx/workspace-client/internal/infrastructure/memdb"
	"github.com/clientx/workspace-client/internal/pkg/validation"
)

// NewRouter builds and returns the Echo instance with all routes registered.
// API routes live under /api.
func NewRouter(store *memdb.Store, issuer *middleware.Issuer, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.New()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			log.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	}))
	e.Use(middleware.Metrics())

	// --- Dependencies ---
	auth := middleware.Auth(issuer, store)
	staff := middleware.RBAC(domain.RoleAdmin, domain.RoleManager)

	authHandler := handler.NewAuthHandler(store, issuer, log)
	projectHandler := handler.NewProjectHandler(store)
	taskHandler := handler.NewTaskHandler(store, log)
	adminHandler := handler.NewAdminHandler(store)

	api := e.Group("/api")

	// --- Users ---
	users := api.Group("/users")
	users.POST("/login/", authHandler.Login)
	users.POST("/token/refresh/", authHandler.Refresh)
	users.POST("/password-reset/", authHandler.PasswordReset)
	users.POST("/register/", authHandler.Register, auth, staff)
	users.GET("/profile/", authHandler.Profile, auth)
	users.PATCH("/profile/", authHandler.UpdateProfile, auth)

	// --- Projects and tasks ---
	tasks := api.Group("/tasks", auth)
	tasks.GET("/groups/", projectHandler.List, staff)
	tasks.POST("/groups/", projectHandler.Create, staff)
	tasks.GET("/groups/:id/", projectHandler.Get, staff)
	tasks.PATCH("/groups/:id/", projectHandler.Update, staff)
	tasks.DELETE("/groups/:id/", projectHandler.Delete, staff)
	tasks.POST("/create/", taskHandler.Create, staff)
	tasks.GET("/my-tasks/", taskHandler.List)
	tasks.PATCH("/:id/", taskHandler.Update)
	tasks.DELETE("/:id/", taskHandler.Delete)

	// --- Notifications, one channel per role ---
	notifications := api.Group("/notifications", auth)
	employeeNotes := handler.NewNotificationHandler(store, "All notifications marked as read")
	managerNotes := handler.NewNotificationHandler(store, "All notifications marked as read")
	adminNotes := handler.NewNotificationHandler(store, "All admin notifications marked as read")
	employeeOnly := middleware.RBAC(domain.RoleEmployee, domain.RoleClient)
	managerOnly := middleware.RBAC(domain.RoleManager)
	adminOnly := middleware.RBAC(domain.RoleAdmin)
	notifications.GET("/employee/", employeeNotes.List, employeeOnly)
	notifications.POST("/employee/", employeeNotes.MarkAllRead, employeeOnly)
	notifications.GET("/manager/", managerNotes.List, managerOnly)
	notifications.POST("/manager/", managerNotes.MarkAllRead, managerOnly)
	notifications.GET("/admin/", adminNotes.List, adminOnly)
	notifications.POST("/admin/", adminNotes.MarkAllRead, adminOnly)

	// --- Admin dashboard ---
	admin := api.Group("/admin-dashboard", auth)
	admin.GET("/", adminHandler.Dashboard, staff)
	admin.GET("/users/", adminHandler.Users, middleware.RBAC(domain.RoleAdmin, domain.RoleManager, domain.RoleClient))
	admin.GET("/tasks/", adminHandler.Tasks, staff)
	admin.GET("/analytics/", adminHandler.Analytics, adminOnly)

	// --- Probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	e.GET("/health", healthHandler.Liveness)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return e
}
