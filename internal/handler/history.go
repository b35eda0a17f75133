package handler

import (
    "context"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"

    "github.com/iliyamo/maternal-vitals/internal/model"
    "github.com/iliyamo/maternal-vitals/internal/service"
)

// historyReader is the scoped read surface shared by the patient and
// doctor views.  *service.HistoryService implements it.
type historyReader interface {
    LatestReading(ctx context.Context, s service.PatientScope) (*model.Reading, error)
    ReadingsInWindow(ctx context.Context, s service.PatientScope, w service.Window) ([]model.Reading, error)
    FullReadingHistory(ctx context.Context, s service.PatientScope) ([]model.Reading, error)
    Alerts(ctx context.Context, s service.PatientScope, status *model.AlertStatus) ([]model.Alert, error)
}

func serveLatest(c echo.Context, h historyReader, log zerolog.Logger, scope service.PatientScope) error {
    rd, err := h.LatestReading(c.Request().Context(), scope)
    if err != nil {
        return writeError(c, log, err)
    }
    return c.JSON(http.StatusOK, latestBody(rd))
}

func serveTrend(c echo.Context, h historyReader, log zerolog.Logger, scope service.PatientScope, w service.Window) error {
    rs, err := h.ReadingsInWindow(c.Request().Context(), scope, w)
    if err != nil {
        return writeError(c, log, err)
    }
    return c.JSON(http.StatusOK, trendBody(rs))
}

// serveHistory answers ?type=readings|alerts[&status=UNREAD|READ].
// type defaults to readings; status applies to alerts only.
func serveHistory(c echo.Context, h historyReader, log zerolog.Logger, scope service.PatientScope) error {
    ctx := c.Request().Context()
    kind := strings.ToLower(strings.TrimSpace(c.QueryParam("type")))
    switch kind {
    case "", "readings":
        rs, err := h.FullReadingHistory(ctx, scope)
        if err != nil {
            return writeError(c, log, err)
        }
        return c.JSON(http.StatusOK, echo.Map{
            "status": "success", "message": "Reading history.", "type": "readings", "data": readingRows(rs),
        })
    case "alerts":
        var status *model.AlertStatus
        if raw := c.QueryParam("status"); raw != "" {
            s, ok := model.ParseAlertStatus(raw)
            if !ok {
                return errorJSON(c, http.StatusBadRequest, "status must be UNREAD or READ.")
            }
            status = &s
        }
        as, err := h.Alerts(ctx, scope, status)
        if err != nil {
            return writeError(c, log, err)
        }
        return c.JSON(http.StatusOK, echo.Map{
            "status": "success", "message": "Alert history.", "type": "alerts", "data": alertRows(as),
        })
    }
    return errorJSON(c, http.StatusBadRequest, "type must be readings or alerts.")
}
