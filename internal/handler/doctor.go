package handler

import (
    "context"
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"

    "github.com/iliyamo/maternal-vitals/internal/model"
    "github.com/iliyamo/maternal-vitals/internal/repository"
    "github.com/iliyamo/maternal-vitals/internal/service"
)

type doctorReader interface {
    historyReader
    DoctorScope(ctx context.Context, p service.Principal, pid string) (service.PatientScope, error)
    Roster(ctx context.Context, p service.Principal) ([]service.RosterEntry, error)
    Triage(ctx context.Context, p service.Principal) ([]repository.TriageRecord, error)
}

type alertAcknowledger interface {
    AcknowledgeForDoctor(ctx context.Context, p service.Principal, alertID uint64) error
}

// DoctorHandler serves the oversight view.  Every per-patient endpoint
// resolves a DoctorScope first, so an unassigned patient never reaches a
// reading or alert query.
type DoctorHandler struct {
    Reads  doctorReader
    Alerts alertAcknowledger
    Log    zerolog.Logger
}

func NewDoctorHandler(reads doctorReader, alerts alertAcknowledger, log zerolog.Logger) *DoctorHandler {
    return &DoctorHandler{Reads: reads, Alerts: alerts, Log: log}
}

func (h *DoctorHandler) scope(c echo.Context) (service.PatientScope, error) {
    p, err := currentPrincipal(c)
    if err != nil {
        return service.PatientScope{}, err
    }
    return h.Reads.DoctorScope(c.Request().Context(), p, strings.TrimSpace(c.Param("pid")))
}

type rosterRow struct {
    PatientID   string  `json:"patient_id"`
    FirstName   string  `json:"first_name"`
    LastName    string  `json:"last_name"`
    HeartRate   *string `json:"heart_rate"`
    SpO2        *string `json:"spo2"`
    Temperature *string `json:"temperature"`
    LastUpdated *string `json:"last_updated"`
    Warning     bool    `json:"warning"`
}

// Patients handles GET /v1/doctor/patients.
func (h *DoctorHandler) Patients(c echo.Context) error {
    p, err := currentPrincipal(c)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    entries, err := h.Reads.Roster(c.Request().Context(), p)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    rows := make([]rosterRow, 0, len(entries))
    for _, e := range entries {
        row := rosterRow{PatientID: e.PatientID, FirstName: e.FirstName, LastName: e.LastName, Warning: e.Warning}
        if rd := e.Latest; rd != nil {
            hr, spo2, temp := twoDecimals(rd.HeartRate), twoDecimals(rd.SpO2), twoDecimals(rd.Temperature)
            ts := rd.Timestamp.UTC().Format(model.TimestampLayout)
            row.HeartRate, row.SpO2, row.Temperature, row.LastUpdated = &hr, &spo2, &temp, &ts
        }
        rows = append(rows, row)
    }
    return c.JSON(http.StatusOK, echo.Map{"status": "success", "data": rows})
}

type triageRow struct {
    PatientID string   `json:"patient_id"`
    FirstName string   `json:"first_name"`
    LastName  string   `json:"last_name"`
    Alert     alertRow `json:"alert"`
}

// Triage handles GET /v1/doctor/triage.
func (h *DoctorHandler) Triage(c echo.Context) error {
    p, err := currentPrincipal(c)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    recs, err := h.Reads.Triage(c.Request().Context(), p)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    rows := make([]triageRow, 0, len(recs))
    for _, r := range recs {
        rows = append(rows, triageRow{PatientID: r.PatientID, FirstName: r.FirstName, LastName: r.LastName, Alert: toAlertRow(r.Alert)})
    }
    return c.JSON(http.StatusOK, echo.Map{"status": "success", "data": rows})
}

// Latest handles GET /v1/doctor/patients/:pid/vitals/latest.
func (h *DoctorHandler) Latest(c echo.Context) error {
    s, err := h.scope(c)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return serveLatest(c, h.Reads, h.Log, s)
}

// Trend handles GET /v1/doctor/patients/:pid/vitals/trend (last 7 days).
func (h *DoctorHandler) Trend(c echo.Context) error {
    s, err := h.scope(c)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return serveTrend(c, h.Reads, h.Log, s, service.DoctorTrendWindow)
}

// History handles GET /v1/doctor/patients/:pid/history.
func (h *DoctorHandler) History(c echo.Context) error {
    s, err := h.scope(c)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return serveHistory(c, h.Reads, h.Log, s)
}

// MarkAlertRead handles POST /v1/doctor/alerts/:id/read.  Marking an
// alert that is already READ succeeds.
func (h *DoctorHandler) MarkAlertRead(c echo.Context) error {
    p, err := currentPrincipal(c)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return errorJSON(c, http.StatusBadRequest, "invalid alert id.")
    }
    if err := h.Alerts.AcknowledgeForDoctor(c.Request().Context(), p, id); err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"status": "success", "message": "Alert marked as read."})
}
