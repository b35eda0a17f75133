package handler

import (
    "context"
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"

    "github.com/iliyamo/maternal-vitals/internal/model"
    "github.com/iliyamo/maternal-vitals/internal/service"
)

type patientReader interface {
    historyReader
    SelfScope(ctx context.Context, p service.Principal) (service.PatientScope, error)
}

type profileReader interface {
    PatientProfile(ctx context.Context, accountID string) (model.PatientProfile, error)
}

// PatientHandler serves the patient's own view.  Every endpoint scopes to
// the authenticated patient; there is no patient id in the path.
type PatientHandler struct {
    Reads    patientReader
    Profiles profileReader
    Log      zerolog.Logger
}

func NewPatientHandler(reads patientReader, profiles profileReader, log zerolog.Logger) *PatientHandler {
    return &PatientHandler{Reads: reads, Profiles: profiles, Log: log}
}

func (h *PatientHandler) scope(c echo.Context) (service.PatientScope, error) {
    p, err := currentPrincipal(c)
    if err != nil {
        return service.PatientScope{}, err
    }
    return h.Reads.SelfScope(c.Request().Context(), p)
}

// Profile handles GET /v1/patient/profile.
func (h *PatientHandler) Profile(c echo.Context) error {
    p, err := currentPrincipal(c)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    pp, err := h.Profiles.PatientProfile(c.Request().Context(), p.AccountID)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"status": "success", "data": pp})
}

// Latest handles GET /v1/patient/vitals/latest.
func (h *PatientHandler) Latest(c echo.Context) error {
    s, err := h.scope(c)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return serveLatest(c, h.Reads, h.Log, s)
}

// Trend handles GET /v1/patient/vitals/trend (last 24 hours).
func (h *PatientHandler) Trend(c echo.Context) error {
    s, err := h.scope(c)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return serveTrend(c, h.Reads, h.Log, s, service.PatientTrendWindow)
}

// History handles GET /v1/patient/history.
func (h *PatientHandler) History(c echo.Context) error {
    s, err := h.scope(c)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return serveHistory(c, h.Reads, h.Log, s)
}
