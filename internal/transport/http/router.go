package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vn.io.arda/admin-event-interpreter/internal/transport/mw"
)

// NewRouter sets up all Echo routes and middleware. auth guards every
// route except /health and /metrics; tokens of adminRealm may act on any realm.
func NewRouter(h *Handler, auth echo.MiddlewareFunc, adminRealm string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Global middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Realm"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
	}))

	// Health and metrics (no auth required)
	e.GET("/health", h.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// API, requires authentication
	v1 := e.Group("")
	v1.Use(auth)
	v1.Use(mw.RealmScope(adminRealm))

	v1.POST("/admin-events", h.IngestAdminEvent)

	v1.GET("/interpretations", h.ListInterpretations)
	v1.GET("/interpretations/stream", h.Stream)
	v1.GET("/interpretations/:eventId", h.GetInterpretation)

	v1.GET("/realms/:realm/users/:userId/organizations", h.Organizations)
	v1.GET("/realms/:realm/users/:userId/role-validation", h.ValidateRole)

	return e
}
