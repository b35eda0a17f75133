package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/maternal-vitals/internal/handler"
	"github.com/iliyamo/maternal-vitals/internal/middleware"
	"github.com/iliyamo/maternal-vitals/internal/model"
)

// RegisterPatient registers patient-scoped endpoints under /v1/patient.
// All routes require a valid JWT and the patient role, and always read the
// caller's own data.
func RegisterPatient(e *echo.Echo, h *handler.PatientHandler, jwtSecret string) {
	g := e.Group(
		"/v1/patient",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RolePatient),
	)
	g.GET("/profile", h.Profile)
	g.GET("/vitals/latest", h.Latest)
	g.GET("/vitals/trend", h.Trend)
	g.GET("/history", h.History)
}
