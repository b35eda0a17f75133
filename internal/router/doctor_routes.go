package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/maternal-vitals/internal/handler"
	"github.com/iliyamo/maternal-vitals/internal/middleware"
	"github.com/iliyamo/maternal-vitals/internal/model"
)

// RegisterDoctor registers doctor endpoints under /v1/doctor.  All routes
// require a valid JWT and the doctor role; per-patient routes are further
// limited to assigned patients inside the handler.
//
// trendCache wraps the 7-day trend, the heaviest read.  It keys on the
// caller as well as the path, so a cached body is never served across
// doctors.
func RegisterDoctor(e *echo.Echo, h *handler.DoctorHandler, jwtSecret string, trendCache echo.MiddlewareFunc) {
	g := e.Group(
		"/v1/doctor",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleDoctor),
	)
	g.GET("/patients", h.Patients)
	g.GET("/triage", h.Triage)

	g.GET("/patients/:pid/vitals/latest", h.Latest)
	g.GET("/patients/:pid/vitals/trend", h.Trend, trendCache)
	g.GET("/patients/:pid/history", h.History)

	g.POST("/alerts/:id/read", h.MarkAlertRead)
}
