package router // package router defines how HTTP routes are registered for the API

import (
	"database/sql" // health check pings the pool

	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/maternal-vitals/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/maternal-vitals/internal/middleware" // import middleware for JWT authentication and role enforcement
	"github.com/iliyamo/maternal-vitals/internal/model"      // roles
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo, db *sql.DB) {
	// Map GET /healthz to the Health handler.  Load balancers use it to
	// verify that the service and its database are reachable.
	e.GET("/healthz", handler.Health(db))
}

// RegisterAuth registers all authentication-related routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1.  registerLimit guards the
// registration endpoint; pass a no-op middleware to disable it.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, registerLimit echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	// Self-registration of patients.  Rate limited per IP.
	g.POST("/register", a.Register, registerLimit)
	// Login with the account id (PID/DOC) and password.
	g.POST("/login", a.Login)
	// Rotate a refresh token.
	g.POST("/refresh", a.Refresh)

	// Routes below require a valid access token of either role.
	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RolePatient, model.RoleDoctor))
	auth.GET("/me", a.Me)
	// Logout revokes one refresh token, or all of the caller's when the
	// body carries none.
	auth.POST("/auth/logout", a.Logout)
}

// RegisterDevice registers the telemetry endpoint.  Devices do not carry
// a session; the handler itself rejects anything but POST with a 405.
func RegisterDevice(e *echo.Echo, d *handler.DeviceHandler) {
	e.Any("/v1/device/readings", d.Readings)
}
